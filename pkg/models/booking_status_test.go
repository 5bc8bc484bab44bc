package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingStatusDraft, BookingStatusProposalSent, true},
		{BookingStatusProposalSent, BookingStatusOption, true},
		{BookingStatusOption, BookingStatusConfirmed, true},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusOption, BookingStatusOption, true},
		{BookingStatusDraft, BookingStatusConfirmed, false},
		{BookingStatusConfirmed, BookingStatusOption, false},
		{BookingStatusCompleted, BookingStatusDraft, false},
		{BookingStatusDraft, "cancelled", false},
		{"", BookingStatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	assert.True(t, BookingStatusCompleted.IsTerminal())
	assert.False(t, BookingStatusConfirmed.IsTerminal())
	assert.False(t, BookingStatus("bogus").IsTerminal())

	next, ok := BookingStatusOption.Next()
	assert.True(t, ok)
	assert.Equal(t, BookingStatusConfirmed, next)
}

func TestOptionExpiredAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Booking{Status: BookingStatusOption, OptionExpiry: &past}).OptionExpiredAt(now))
	assert.False(t, (&Booking{Status: BookingStatusOption, OptionExpiry: &future}).OptionExpiredAt(now))
	assert.False(t, (&Booking{Status: BookingStatusConfirmed, OptionExpiry: &past}).OptionExpiredAt(now))
}

func TestClaimEffectiveStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -1)

	assert.Equal(t, ClaimStatusOverdue, (&CommissionClaim{Status: ClaimStatusSent, DueDate: &due}).EffectiveStatusAt(now))
	assert.Equal(t, ClaimStatusPaid, (&CommissionClaim{Status: ClaimStatusPaid, DueDate: &due}).EffectiveStatusAt(now))
	assert.Equal(t, ClaimStatusSent, (&CommissionClaim{Status: ClaimStatusSent}).EffectiveStatusAt(now))
}
