package services

import (
	"context"
	"testing"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t   *testing.T
	ctx context.Context
	db  *database.GormDatabase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewInMemoryDatabase(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &fixture{t: t, ctx: context.Background(), db: db}
}

func (f *fixture) user(email string, role models.Role) *models.User {
	f.t.Helper()
	u := &models.User{Email: email, Name: email, Role: role}
	require.NoError(f.t, f.db.DB(f.ctx).Create(u).Error)
	return u
}

func (f *fixture) client(owner *models.User, name string) *models.Client {
	f.t.Helper()
	c, err := NewClientService(f.db).Create(f.ctx, owner, CreateClientInput{Name: name})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) venue(owner *models.User, name string, rate int64) *models.Venue {
	f.t.Helper()
	r := decimal.NewFromInt(rate)
	v, err := NewVenueService(f.db).Create(f.ctx, owner, CreateVenueInput{Name: name, StandardCommission: &r})
	require.NoError(f.t, err)
	return v
}

// conferenceLines is 2 x 2500 room hire plus 100 x 45 catering: 9500 in total.
func conferenceLines() []ChargeLineInput {
	return []ChargeLineInput{
		{Description: "Main room hire", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(2500), Category: models.ChargeRoomHire},
		{Description: "Day delegate rate", Quantity: decimal.NewFromInt(100), UnitPrice: decimal.NewFromInt(45), Category: models.ChargeFoodBeverage},
	}
}

func (f *fixture) proposal(owner *models.User, client *models.Client, venues ...*models.Venue) *models.Proposal {
	f.t.Helper()
	options := make([]ProposalVenueInput, 0, len(venues))
	for _, v := range venues {
		options = append(options, ProposalVenueInput{VenueID: v.ID, ChargeLines: conferenceLines()})
	}
	p, err := NewProposalService(f.db).Create(f.ctx, owner, CreateProposalInput{
		ClientID: client.ID,
		Title:    "Sales kickoff",
		Venues:   options,
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) booking(owner *models.User, p *models.Proposal, v *models.Venue) *models.Booking {
	f.t.Helper()
	b, err := NewBookingService(f.db).Create(f.ctx, owner, CreateBookingInput{ProposalID: p.ID, VenueID: v.ID})
	require.NoError(f.t, err)
	return b
}

func requireCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := utils.AsAppError(err)
	require.Equal(t, status, appErr.Status, appErr.Message)
	require.Equal(t, code, appErr.Code)
}
