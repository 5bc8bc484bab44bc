package services

import (
	"testing"

	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateVenue(t *testing.T) {
	lines := []models.ChargeLine{
		{Quantity: d("2"), UnitPrice: d("2500")},
		{Quantity: d("100"), UnitPrice: d("45")},
	}

	totals := CalculateVenue(lines, nil, d("10"))

	assert.True(t, totals.Subtotal.Equal(d("9500")), totals.Subtotal.String())
	assert.Equal(t, "950.00", totals.Commission.StringFixed(2))
	assert.True(t, lines[0].LineTotal.Equal(d("5000")))
	assert.True(t, lines[1].LineTotal.Equal(d("4500")))
}

func TestCalculateVenueOverrideRate(t *testing.T) {
	override := d("12.5")
	totals := CalculateVenue([]models.ChargeLine{{Quantity: d("1"), UnitPrice: d("1000")}}, &override, d("10"))
	assert.Equal(t, "125.00", totals.Commission.StringFixed(2))
}

func TestCommissionRoundsToCents(t *testing.T) {
	assert.Equal(t, "33.33", Commission(d("333.33"), d("10")).StringFixed(2))
	assert.Equal(t, "0.00", Commission(d("0"), d("15")).StringFixed(2))
	assert.Equal(t, "2.47", LineTotal(d("3"), d("0.8225")).StringFixed(2))
}

func TestApplyVenueTotals(t *testing.T) {
	venues := []models.ProposalVenue{
		{VenueID: "a", ChargeLines: []models.ChargeLine{{Quantity: d("2"), UnitPrice: d("2500")}}},
		{VenueID: "b", ChargeLines: []models.ChargeLine{{Quantity: d("100"), UnitPrice: d("45")}}},
	}
	total, commission := ApplyVenueTotals(venues, map[string]decimal.Decimal{"a": d("10"), "b": d("5")})

	require.Len(t, venues, 2)
	assert.Equal(t, "500.00", venues[0].Commission.StringFixed(2))
	assert.Equal(t, "225.00", venues[1].Commission.StringFixed(2))
	assert.Equal(t, "9500.00", total.StringFixed(2))
	assert.Equal(t, "725.00", commission.StringFixed(2))
}

func TestProposalCreateStoresTotals(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	venue := f.venue(owner, "Riverside", 10)

	p := f.proposal(owner, f.client(owner, "Acme"), venue)

	assert.Equal(t, "9500.00", p.TotalValue.StringFixed(2))
	assert.Equal(t, "950.00", p.ExpectedCommission.StringFixed(2))
	require.Len(t, p.Venues, 1)
	assert.Equal(t, "950.00", p.Venues[0].Commission.StringFixed(2))
	require.Len(t, p.Venues[0].ChargeLines, 2)
	assert.Equal(t, "5000.00", p.Venues[0].ChargeLines[0].LineTotal.StringFixed(2))
}

func TestProposalRecalculatePicksUpNewVenueRate(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	venue := f.venue(owner, "Riverside", 10)
	p := f.proposal(owner, f.client(owner, "Acme"), venue)

	rate := d("20")
	_, err := NewVenueService(f.db).Update(f.ctx, owner, venue.ID, UpdateVenueInput{StandardCommission: &rate})
	require.NoError(t, err)

	p, err = NewProposalService(f.db).Recalculate(f.ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "1900.00", p.ExpectedCommission.StringFixed(2))
}

func TestProposalUpdateReplacesVenues(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	first := f.venue(owner, "Riverside", 10)
	second := f.venue(owner, "Canal Loft", 5)
	p := f.proposal(owner, f.client(owner, "Acme"), first)

	options := []ProposalVenueInput{{
		VenueID:     second.ID,
		ChargeLines: []ChargeLineInput{{Description: "Hire", Quantity: d("1"), UnitPrice: d("1000")}},
	}}
	p, err := NewProposalService(f.db).Update(f.ctx, owner, p.ID, UpdateProposalInput{Venues: &options})
	require.NoError(t, err)

	require.Len(t, p.Venues, 1)
	assert.Equal(t, second.ID, p.Venues[0].VenueID)
	assert.Equal(t, models.ChargeOther, p.Venues[0].ChargeLines[0].Category)
	assert.Equal(t, "1000.00", p.TotalValue.StringFixed(2))
	assert.Equal(t, "50.00", p.ExpectedCommission.StringFixed(2))
}

func TestProposalRejectsUnknownVenue(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)

	_, err := NewProposalService(f.db).Create(f.ctx, owner, CreateProposalInput{
		ClientID: f.client(owner, "Acme").ID,
		Title:    "Offsite",
		Venues:   []ProposalVenueInput{{VenueID: "missing"}},
	})
	requireCode(t, err, 400, "VALIDATION_ERROR")
}

func TestProposalRejectsAnotherConsultantsVenue(t *testing.T) {
	f := newFixture(t)
	ana := f.user("ana@agency.example", models.RoleConsultant)
	ben := f.user("ben@agency.example", models.RoleConsultant)
	private := f.venue(ana, "Ana Private Hall", 10)
	own := f.venue(ben, "Ben Barn", 10)
	svc := NewProposalService(f.db)

	_, err := svc.Create(f.ctx, ben, CreateProposalInput{
		ClientID: f.client(ben, "Initech").ID,
		Title:    "Offsite",
		Venues:   []ProposalVenueInput{{VenueID: own.ID}, {VenueID: private.ID}},
	})
	requireCode(t, err, 400, "VALIDATION_ERROR")
	assert.Equal(t, "venues[1].venueId", utils.AsAppError(err).Field)

	p := f.proposal(ben, f.client(ben, "Globex"), own)
	options := []ProposalVenueInput{{VenueID: private.ID}}
	_, err = svc.Update(f.ctx, ben, p.ID, UpdateProposalInput{Venues: &options})
	requireCode(t, err, 400, "VALIDATION_ERROR")
	assert.Equal(t, "venues[0].venueId", utils.AsAppError(err).Field)

	admin := f.user("boss@agency.example", models.RoleAdmin)
	_, err = svc.Create(f.ctx, admin, CreateProposalInput{
		ClientID: f.client(admin, "Umbrella").ID,
		Title:    "Board away day",
		Venues:   []ProposalVenueInput{{VenueID: private.ID}, {VenueID: own.ID}},
	})
	require.NoError(t, err)
}

func TestProposalClientFixedOnceBooked(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	v := f.venue(owner, "Riverside", 10)
	p := f.proposal(owner, f.client(owner, "Acme"), v)
	other := f.client(owner, "Globex")
	svc := NewProposalService(f.db)

	moved, err := svc.Update(f.ctx, owner, p.ID, UpdateProposalInput{ClientID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, moved.ClientID)

	f.booking(owner, p, v)
	back := p.ClientID
	_, err = svc.Update(f.ctx, owner, p.ID, UpdateProposalInput{ClientID: &back})
	requireCode(t, err, 409, "CONFLICT")
	assert.Equal(t, "clientId", utils.AsAppError(err).Field)

	var booking models.Booking
	require.NoError(t, f.db.DB(f.ctx).First(&booking, "proposal_id = ?", p.ID).Error)
	assert.Equal(t, other.ID, booking.ClientID)
}
