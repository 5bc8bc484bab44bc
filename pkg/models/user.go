package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is one of the two static roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleConsultant Role = "consultant"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleConsultant
}

// User is keyed by email and created on first OAuth login.
type User struct {
	Base
	Email       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name        string     `gorm:"type:varchar(255)" json:"name"`
	AvatarURL   *string    `gorm:"type:text" json:"avatarUrl"`
	Role        Role       `gorm:"type:varchar(20);not null;default:consultant" json:"role"`
	Provider    string     `gorm:"type:varchar(20)" json:"provider,omitempty"` // "google", "microsoft", "manual"
	ProviderID  string     `gorm:"type:varchar(255)" json:"providerId,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// TokenClaims are the JWT claims for both access and refresh tokens.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"` // "access" or "refresh"
	ID     string `json:"jti"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// ExpiresAt returns the expiry as a time.
func (c *TokenClaims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

func (c *TokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

func (c *TokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Iat, 0)), nil
}

func (c *TokenClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

func (c *TokenClaims) GetIssuer() (string, error) {
	return "", nil
}

func (c *TokenClaims) GetSubject() (string, error) {
	return c.UserID, nil
}

func (c *TokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}
