package services

import (
	"testing"
	"time"

	"venue-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReports(t *testing.T) {
	f := newFixture(t)
	ana := f.user("ana@agency.example", models.RoleConsultant)
	ben := f.user("ben@agency.example", models.RoleConsultant)
	admin := f.user("boss@agency.example", models.RoleAdmin)

	riverside := f.venue(ana, "Riverside", 10)
	loft := f.venue(ana, "Canal Loft", 5)
	p := f.proposal(ana, f.client(ana, "Acme"), riverside, loft)
	bookings := NewBookingService(f.db)

	confirmed := f.booking(ana, p, riverside)
	expiry := time.Now().Add(48 * time.Hour)
	for _, st := range []models.BookingStatus{models.BookingStatusProposalSent, models.BookingStatusOption, models.BookingStatusConfirmed} {
		_, err := bookings.ChangeStatus(f.ctx, ana, confirmed.ID, StatusChangeInput{Status: st, OptionExpiry: &expiry})
		require.NoError(t, err)
	}
	held := f.booking(ana, p, loft)
	for _, st := range []models.BookingStatus{models.BookingStatusProposalSent, models.BookingStatusOption} {
		_, err := bookings.ChangeStatus(f.ctx, ana, held.ID, StatusChangeInput{Status: st, OptionExpiry: &expiry})
		require.NoError(t, err)
	}

	claims := NewClaimService(f.db, nil, 30)
	paid := models.ClaimStatusPaid
	_, err := claims.Create(f.ctx, ana, CreateClaimInput{BookingID: confirmed.ID, Status: &paid})
	require.NoError(t, err)

	f.client(ben, "Ben's client")
	reports := NewReportService(f.db)

	t.Run("dashboard", func(t *testing.T) {
		dash, err := reports.Dashboard(f.ctx, ana)
		require.NoError(t, err)
		assert.Equal(t, int64(1), dash.Clients)
		assert.Equal(t, int64(2), dash.Venues)
		assert.Equal(t, int64(2), dash.Bookings)
		assert.Equal(t, int64(1), dash.BookingsByStatus["confirmed"])
		assert.Equal(t, int64(1), dash.BookingsByStatus["option"])
		assert.Equal(t, int64(0), dash.BookingsByStatus["completed"])
		assert.Equal(t, "9500.00", dash.TotalBookedValue.StringFixed(2))
		assert.Equal(t, "19000.00", dash.PipelineValue.StringFixed(2))
		assert.Equal(t, "950.00", dash.CommissionPaid.StringFixed(2))
		assert.Equal(t, "0.00", dash.CommissionOutstanding.StringFixed(2))
		require.Len(t, dash.ExpiringOptions, 1)
		assert.Equal(t, held.ID, dash.ExpiringOptions[0].ID)
	})

	t.Run("admin sees every consultant", func(t *testing.T) {
		dash, err := reports.Dashboard(f.ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, int64(2), dash.Clients)

		own, err := reports.Dashboard(f.ctx, ben)
		require.NoError(t, err)
		assert.Equal(t, int64(1), own.Clients)
		assert.Zero(t, own.Bookings)
	})

	t.Run("pipeline", func(t *testing.T) {
		pipe, err := reports.Pipeline(f.ctx, ana)
		require.NoError(t, err)
		require.Len(t, pipe.Stages, 5)
		assert.Equal(t, models.BookingStatusDraft, pipe.Stages[0].Status)
		assert.Equal(t, int64(1), pipe.Stages[2].Count)
		assert.Equal(t, "475.00", pipe.Stages[2].Commission.StringFixed(2))
		assert.Equal(t, "19000.00", pipe.TotalValue.StringFixed(2))
		assert.Equal(t, "1425.00", pipe.Commission.StringFixed(2))
	})

	t.Run("commission", func(t *testing.T) {
		rep, err := reports.Commission(f.ctx, ana, nil, nil)
		require.NoError(t, err)
		require.Len(t, rep.ByVenue, 2)
		assert.Equal(t, "Canal Loft", rep.ByVenue[0].VenueName, "ties sort by name")
		assert.Equal(t, "950.00", rep.ByVenue[1].ClaimedCommission.StringFixed(2))
		assert.Equal(t, "1425.00", rep.Totals.ExpectedCommission.StringFixed(2))
		assert.Equal(t, "950.00", rep.Totals.Paid.StringFixed(2))
		require.Len(t, rep.ByStatus, 4)
		assert.Equal(t, int64(1), rep.ByStatus[2].Count)

		future := time.Now().Add(time.Hour)
		empty, err := reports.Commission(f.ctx, ana, &future, nil)
		require.NoError(t, err)
		assert.Empty(t, empty.ByVenue)
		assert.True(t, empty.Totals.Claimed.IsZero())
	})
}
