package models

// Client is a customer of the agency. Optional fields are NULL when unset.
type Client struct {
	Base
	Name        string  `gorm:"type:varchar(255);not null;index" json:"name"`
	Company     *string `gorm:"type:varchar(255)" json:"company"`
	ContactName *string `gorm:"type:varchar(255)" json:"contactName"`
	Email       *string `gorm:"type:varchar(255)" json:"email"`
	Phone       *string `gorm:"type:varchar(50)" json:"phone"`
	Address     *string `gorm:"type:text" json:"address"`
	Notes       *string `gorm:"type:text" json:"notes"`
	CreatedByID string  `gorm:"type:varchar(36);not null;index" json:"createdById"`
	CreatedBy   *User   `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT" json:"createdBy,omitempty"`
}

func (c *Client) OwnerID() string { return c.CreatedByID }
