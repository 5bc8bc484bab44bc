package utils

import (
	"testing"
	"time"

	"venue-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{Base: models.Base{ID: "user-1"}, Email: "ana@agency.example", Role: models.RoleConsultant}
}

func TestGenerateTokenPair(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)

	pair, err := svc.GenerateTokenPair(testUser())
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(60), pair.ExpiresIn)

	access, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.UserID)
	assert.Equal(t, "consultant", access.Role)
	assert.NotEmpty(t, access.ID)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestValidateTokenTypeMismatch(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	pair, err := svc.GenerateTokenPair(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	pair, err := NewJWTService("one", time.Minute, time.Hour).GenerateTokenPair(testUser())
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Minute, time.Hour).ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, CodeUnauthorized, TokenAuthError(err).Code)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	token, err := svc.sign(testUser(), TokenTypeAccess, time.Now().Add(-2*time.Hour), time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, CodeTokenExpired, TokenAuthError(err).Code)
}
