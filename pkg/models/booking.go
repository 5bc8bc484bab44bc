package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Booking is a venue reservation made from a proposal.
type Booking struct {
	Base
	ProposalID       string            `gorm:"type:varchar(36);not null;index" json:"proposalId"`
	Proposal         *Proposal         `gorm:"constraint:OnDelete:RESTRICT" json:"proposal,omitempty"`
	ClientID         string            `gorm:"type:varchar(36);not null;index" json:"clientId"`
	Client           *Client           `gorm:"constraint:OnDelete:RESTRICT" json:"client,omitempty"`
	VenueID          string            `gorm:"type:varchar(36);not null;index" json:"venueId"`
	Venue            *Venue            `gorm:"constraint:OnDelete:RESTRICT" json:"venue,omitempty"`
	Status           BookingStatus     `gorm:"type:varchar(20);not null;default:draft;index" json:"status"`
	EventDate        *time.Time        `json:"eventDate"`
	OptionExpiry     *time.Time        `json:"optionExpiry"`
	ConfirmedAt      *time.Time        `json:"confirmedAt"`
	CompletedAt      *time.Time        `json:"completedAt"`
	TotalValue       decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"totalValue"`
	CommissionAmount decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"commissionAmount"`
	Documents        []DocumentRef     `gorm:"type:text;serializer:json" json:"documents"`
	Notes            *string           `gorm:"type:text" json:"notes"`
	Claims           []CommissionClaim `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"claims,omitempty"`
	CreatedByID      string            `gorm:"type:varchar(36);not null;index" json:"createdById"`
	CreatedBy        *User             `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT" json:"createdBy,omitempty"`

	IsOptionExpired bool `gorm:"-" json:"isOptionExpired"`
}

func (b *Booking) OwnerID() string { return b.CreatedByID }

// OptionExpiredAt reports whether the booking is held on option past its expiry.
func (b *Booking) OptionExpiredAt(now time.Time) bool {
	return b.Status == BookingStatusOption && b.OptionExpiry != nil && b.OptionExpiry.Before(now)
}

// AfterFind fills the read-time derived fields.
func (b *Booking) AfterFind(tx *gorm.DB) error {
	b.IsOptionExpired = b.OptionExpiredAt(time.Now())
	if b.Documents == nil {
		b.Documents = []DocumentRef{}
	}
	return nil
}

// DocumentRef points at an uploaded signed document.
type DocumentRef struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploadedAt"`
	UploadedByID string    `json:"uploadedById"`
}
