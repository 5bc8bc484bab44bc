package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ClaimStatus string

const (
	ClaimStatusDraft   ClaimStatus = "draft"
	ClaimStatusSent    ClaimStatus = "sent"
	ClaimStatusPaid    ClaimStatus = "paid"
	ClaimStatusOverdue ClaimStatus = "overdue"
)

func ClaimStatuses() []ClaimStatus {
	return []ClaimStatus{ClaimStatusDraft, ClaimStatusSent, ClaimStatusPaid, ClaimStatusOverdue}
}

func (s ClaimStatus) IsValid() bool {
	switch s {
	case ClaimStatusDraft, ClaimStatusSent, ClaimStatusPaid, ClaimStatusOverdue:
		return true
	}
	return false
}

// CommissionClaim is the agency's invoice to a venue for commission on a booking.
type CommissionClaim struct {
	Base
	BookingID     string          `gorm:"type:varchar(36);not null;index" json:"bookingId"`
	Booking       *Booking        `json:"booking,omitempty"`
	Status        ClaimStatus     `gorm:"type:varchar(20);not null;default:draft;index" json:"status"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	InvoiceNumber *string         `gorm:"type:varchar(50);uniqueIndex" json:"invoiceNumber"`
	SentDate      *time.Time      `json:"sentDate"`
	DueDate       *time.Time      `json:"dueDate"`
	PaidDate      *time.Time      `json:"paidDate"`
	Notes         *string         `gorm:"type:text" json:"notes"`
	CreatedByID   string          `gorm:"type:varchar(36);not null;index" json:"createdById"`
	CreatedBy     *User           `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT" json:"createdBy,omitempty"`

	EffectiveStatus ClaimStatus `gorm:"-" json:"effectiveStatus"`
}

func (c *CommissionClaim) OwnerID() string { return c.CreatedByID }

// EffectiveStatusAt derives the status at read time: a sent claim past its due date is overdue.
func (c *CommissionClaim) EffectiveStatusAt(now time.Time) ClaimStatus {
	if c.Status == ClaimStatusSent && c.DueDate != nil && c.DueDate.Before(now) {
		return ClaimStatusOverdue
	}
	return c.Status
}

// AfterFind fills EffectiveStatus.
func (c *CommissionClaim) AfterFind(tx *gorm.DB) error {
	c.EffectiveStatus = c.EffectiveStatusAt(time.Now())
	return nil
}
