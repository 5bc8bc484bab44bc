package services

import (
	"testing"
	"time"

	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingFromProposal(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	venue := f.venue(owner, "Riverside", 10)
	client := f.client(owner, "Acme")
	p := f.proposal(owner, client, venue)

	b := f.booking(owner, p, venue)

	assert.Equal(t, models.BookingStatusDraft, b.Status)
	assert.Equal(t, client.ID, b.ClientID)
	assert.Equal(t, "9500.00", b.TotalValue.StringFixed(2))
	assert.Equal(t, "950.00", b.CommissionAmount.StringFixed(2))
	assert.NotNil(t, b.Documents)
	require.NotNil(t, b.Venue)
	assert.Equal(t, "Riverside", b.Venue.Name)
}

func TestBookingFromSentProposalStartsAtProposalSent(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	venue := f.venue(owner, "Riverside", 10)
	p := f.proposal(owner, f.client(owner, "Acme"), venue)
	_, err := NewProposalService(f.db).Send(f.ctx, owner, p.ID)
	require.NoError(t, err)

	b := f.booking(owner, p, venue)
	assert.Equal(t, models.BookingStatusProposalSent, b.Status)
}

func TestBookingRejectsVenueOutsideProposal(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	p := f.proposal(owner, f.client(owner, "Acme"), f.venue(owner, "Riverside", 10))
	stranger := f.venue(owner, "Elsewhere", 10)

	_, err := NewBookingService(f.db).Create(f.ctx, owner, CreateBookingInput{ProposalID: p.ID, VenueID: stranger.ID})
	requireCode(t, err, 400, utils.CodeValidation)
	assert.Equal(t, "venueId", utils.AsAppError(err).Field)

	_, err = NewBookingService(f.db).Create(f.ctx, owner, CreateBookingInput{ProposalID: "nope", VenueID: stranger.ID})
	requireCode(t, err, 400, utils.CodeValidation)
	assert.Equal(t, "proposalId", utils.AsAppError(err).Field)
}

func TestBookingWorkflow(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	venue := f.venue(owner, "Riverside", 10)
	b := f.booking(owner, f.proposal(owner, f.client(owner, "Acme"), venue), venue)

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewBookingService(f.db)
	svc.now = func() time.Time { return now }
	step := func(to models.BookingStatus, expiry *time.Time) (*models.Booking, error) {
		return svc.ChangeStatus(f.ctx, owner, b.ID, StatusChangeInput{Status: to, OptionExpiry: expiry})
	}

	_, err := step(models.BookingStatusConfirmed, nil)
	requireCode(t, err, 409, utils.CodeInvalidTransition)

	b, err = step(models.BookingStatusProposalSent, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusProposalSent, b.Status)

	_, err = step(models.BookingStatusOption, nil)
	requireCode(t, err, 400, utils.CodeValidation)
	assert.Equal(t, "optionExpiry", utils.AsAppError(err).Field)

	expiry := now.AddDate(0, 0, 14)
	b, err = step(models.BookingStatusOption, &expiry)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusOption, b.Status)
	require.NotNil(t, b.OptionExpiry)

	b, err = step(models.BookingStatusOption, nil)
	require.NoError(t, err, "same status is a no-op")
	assert.Equal(t, models.BookingStatusOption, b.Status)

	_, err = step(models.BookingStatusDraft, nil)
	requireCode(t, err, 409, utils.CodeInvalidTransition)

	b, err = step(models.BookingStatusConfirmed, nil)
	require.NoError(t, err)
	require.NotNil(t, b.ConfirmedAt)
	assert.True(t, now.Equal(*b.ConfirmedAt))

	b, err = step(models.BookingStatusCompleted, nil)
	require.NoError(t, err)
	require.NotNil(t, b.CompletedAt)

	_, err = step(models.BookingStatusConfirmed, nil)
	requireCode(t, err, 409, utils.CodeInvalidTransition)
	assert.Equal(t, map[string]string{"from": "completed", "to": "confirmed"}, utils.AsAppError(err).Details)

	_, err = step("cancelled", nil)
	requireCode(t, err, 400, utils.CodeValidation)
}

func TestBookingUpdateStatusUsesWorkflow(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	venue := f.venue(owner, "Riverside", 10)
	b := f.booking(owner, f.proposal(owner, f.client(owner, "Acme"), venue), venue)
	svc := NewBookingService(f.db)

	status := models.BookingStatusCompleted
	_, err := svc.Update(f.ctx, owner, b.ID, UpdateBookingInput{Status: &status})
	requireCode(t, err, 409, utils.CodeInvalidTransition)

	notes := "  "
	value := d("10000")
	b, err = svc.Update(f.ctx, owner, b.ID, UpdateBookingInput{Notes: &notes, TotalValue: &value})
	require.NoError(t, err)
	assert.Nil(t, b.Notes)
	assert.Equal(t, "10000.00", b.TotalValue.StringFixed(2))
}

func TestBookingDocumentsAndDelete(t *testing.T) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	venue := f.venue(owner, "Riverside", 10)
	b := f.booking(owner, f.proposal(owner, f.client(owner, "Acme"), venue), venue)
	svc := NewBookingService(f.db)

	b, err := svc.AddDocument(f.ctx, owner, b.ID, models.DocumentRef{Key: "bookings/x/contract.pdf", Name: "contract.pdf", Size: 12})
	require.NoError(t, err)
	require.Len(t, b.Documents, 1)
	assert.Equal(t, "contract.pdf", b.Documents[0].Name)

	_, err = NewClaimService(f.db, nil, 30).Create(f.ctx, owner, CreateClaimInput{BookingID: b.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(f.ctx, owner, b.ID))
	var claims int64
	require.NoError(t, f.db.DB(f.ctx).Model(&models.CommissionClaim{}).Count(&claims).Error)
	assert.Zero(t, claims)
}
