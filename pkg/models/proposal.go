package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProposalStatus string

const (
	ProposalStatusDraft ProposalStatus = "draft"
	ProposalStatusSent  ProposalStatus = "sent"
)

func (s ProposalStatus) IsValid() bool {
	return s == ProposalStatusDraft || s == ProposalStatusSent
}

// ChargeCategory classifies a charge line.
type ChargeCategory string

const (
	ChargeRoomHire     ChargeCategory = "room_hire"
	ChargeFoodBeverage ChargeCategory = "food_beverage"
	ChargeAVEquipment  ChargeCategory = "av_equipment"
	ChargeOther        ChargeCategory = "other"
)

// Proposal groups venue options with itemized charges for one client.
// TotalValue and ExpectedCommission are recomputed from the charge lines on every write.
type Proposal struct {
	Base
	ClientID           string          `gorm:"type:varchar(36);not null;index" json:"clientId"`
	Client             *Client         `gorm:"constraint:OnDelete:RESTRICT" json:"client,omitempty"`
	Title              string          `gorm:"type:varchar(255);not null" json:"title"`
	EventDate          *time.Time      `json:"eventDate"`
	GuestCount         *int            `json:"guestCount"`
	Notes              *string         `gorm:"type:text" json:"notes"`
	Status             ProposalStatus  `gorm:"type:varchar(20);not null;default:draft;index" json:"status"`
	SentAt             *time.Time      `json:"sentAt"`
	TotalValue         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalValue"`
	ExpectedCommission decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"expectedCommission"`
	Venues             []ProposalVenue `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE" json:"venues"`
	CreatedByID        string          `gorm:"type:varchar(36);not null;index" json:"createdById"`
	CreatedBy          *User           `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT" json:"createdBy,omitempty"`
}

func (p *Proposal) OwnerID() string { return p.CreatedByID }

// ProposalVenue links a proposal to one venue option and holds its charge lines.
type ProposalVenue struct {
	Base
	ProposalID     string           `gorm:"type:varchar(36);not null;index" json:"proposalId"`
	VenueID        string           `gorm:"type:varchar(36);not null;index" json:"venueId"`
	Venue          *Venue           `gorm:"constraint:OnDelete:RESTRICT" json:"venue,omitempty"`
	Position       int              `gorm:"not null;default:0" json:"position"`
	CommissionRate *decimal.Decimal `gorm:"type:decimal(5,2)" json:"commissionRate"` // overrides Venue.StandardCommission
	ChargeLines    []ChargeLine     `gorm:"type:text;serializer:json" json:"chargeLines"`
	Subtotal       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	Commission     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"commission"`
	Notes          *string          `gorm:"type:text" json:"notes"`
}

// ChargeLine is one itemized cost, stored inside its ProposalVenue row.
type ChargeLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	Category    ChargeCategory  `json:"category"`
}
