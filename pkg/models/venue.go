package models

import "github.com/shopspring/decimal"

// Venue is a location the agency books on behalf of clients.
type Venue struct {
	Base
	Name               string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Location           *string         `gorm:"type:varchar(255);index" json:"location"`
	Address            *string         `gorm:"type:text" json:"address"`
	ContactName        *string         `gorm:"type:varchar(255)" json:"contactName"`
	Email              *string         `gorm:"type:varchar(255)" json:"email"`
	Phone              *string         `gorm:"type:varchar(50)" json:"phone"`
	Website            *string         `gorm:"type:varchar(255)" json:"website"`
	Capacity           *int            `json:"capacity"`
	StandardCommission decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"standardCommission"` // percent, 0-100
	Notes              *string         `gorm:"type:text" json:"notes"`
	CreatedByID        string          `gorm:"type:varchar(36);not null;index" json:"createdById"`
	CreatedBy          *User           `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT" json:"createdBy,omitempty"`
}

func (v *Venue) OwnerID() string { return v.CreatedByID }
