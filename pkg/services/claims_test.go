package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimFixture(t *testing.T) (*fixture, *models.User, *models.Booking) {
	f := newFixture(t)
	owner := f.user("ana@agency.example", models.RoleConsultant)
	venue := f.venue(owner, "Riverside", 10)
	b := f.booking(owner, f.proposal(owner, f.client(owner, "Acme"), venue), venue)
	return f, owner, b
}

func TestClaimInvoiceNumbersAreSequential(t *testing.T) {
	f, owner, b := claimFixture(t)
	svc := NewClaimService(f.db, NewLocalLocker(), 30)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	first, err := svc.Create(f.ctx, owner, CreateClaimInput{BookingID: b.ID})
	require.NoError(t, err)
	second, err := svc.Create(f.ctx, owner, CreateClaimInput{BookingID: b.ID})
	require.NoError(t, err)

	assert.Equal(t, "INV-2024-0001", *first.InvoiceNumber)
	assert.Equal(t, "INV-2024-0002", *second.InvoiceNumber)
	assert.Equal(t, "950.00", first.Amount.StringFixed(2))
	assert.Equal(t, models.ClaimStatusDraft, first.Status)
	require.NotNil(t, first.Booking)
	require.NotNil(t, first.Booking.Venue)
}

func TestClaimManualInvoiceNumberMustBeUnique(t *testing.T) {
	f, owner, b := claimFixture(t)
	svc := NewClaimService(f.db, nil, 30)
	number := "ACME-7"

	_, err := svc.Create(f.ctx, owner, CreateClaimInput{BookingID: b.ID, InvoiceNumber: &number})
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, owner, CreateClaimInput{BookingID: b.ID, InvoiceNumber: &number})
	requireCode(t, err, 409, utils.CodeConflict)
	assert.Equal(t, "invoiceNumber", utils.AsAppError(err).Field)
}

func TestClaimStatusStampsDates(t *testing.T) {
	f, owner, b := claimFixture(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewClaimService(f.db, nil, 30)
	svc.now = func() time.Time { return now }

	claim, err := svc.Create(f.ctx, owner, CreateClaimInput{BookingID: b.ID})
	require.NoError(t, err)
	assert.Nil(t, claim.SentDate)

	sent := models.ClaimStatusSent
	claim, err = svc.Update(f.ctx, owner, claim.ID, UpdateClaimInput{Status: &sent})
	require.NoError(t, err)
	require.NotNil(t, claim.SentDate)
	require.NotNil(t, claim.DueDate)
	assert.True(t, now.Equal(*claim.SentDate))
	assert.True(t, now.AddDate(0, 0, 30).Equal(*claim.DueDate))

	paid := models.ClaimStatusPaid
	later := now.AddDate(0, 0, 10)
	svc.now = func() time.Time { return later }
	claim, err = svc.Update(f.ctx, owner, claim.ID, UpdateClaimInput{Status: &paid})
	require.NoError(t, err)
	require.NotNil(t, claim.PaidDate)
	assert.True(t, later.Equal(*claim.PaidDate))
	assert.True(t, now.Equal(*claim.SentDate), "sent date is kept")
	assert.Equal(t, models.ClaimStatusPaid, claim.EffectiveStatus)
}

func TestClaimOverdueIsDerived(t *testing.T) {
	f, owner, b := claimFixture(t)
	svc := NewClaimService(f.db, nil, 30)
	sent := models.ClaimStatusSent
	due := time.Now().AddDate(0, 0, -1)

	claim, err := svc.Create(f.ctx, owner, CreateClaimInput{BookingID: b.ID, Status: &sent, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusSent, claim.Status)
	assert.Equal(t, models.ClaimStatusOverdue, claim.EffectiveStatus)
}

func TestClaimRequiresKnownBooking(t *testing.T) {
	f, owner, _ := claimFixture(t)
	_, err := NewClaimService(f.db, nil, 30).Create(f.ctx, owner, CreateClaimInput{BookingID: "missing"})
	requireCode(t, err, 400, utils.CodeValidation)
	assert.Equal(t, "bookingId", utils.AsAppError(err).Field)
}

func TestLocalLockerSerializes(t *testing.T) {
	locker := NewLocalLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "invoice:2024")
			assert.NoError(t, err)
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}
