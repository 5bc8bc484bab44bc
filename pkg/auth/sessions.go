package auth

import (
	"context"

	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"
)

// UserLoader fetches the current user record for a token subject.
type UserLoader func(ctx context.Context, id string) (*models.User, error)

// Sessions issues token pairs and checks them against the revocation list.
type Sessions struct {
	jwt     *utils.JWTService
	revoked RevocationStore
}

func NewSessions(jwt *utils.JWTService, revoked RevocationStore) *Sessions {
	if revoked == nil {
		revoked = NewMemoryRevocationStore()
	}
	return &Sessions{jwt: jwt, revoked: revoked}
}

// Issue signs a fresh pair for user.
func (s *Sessions) Issue(user *models.User) (*utils.TokenPair, error) {
	pair, err := s.jwt.GenerateTokenPair(user)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return pair, nil
}

// Authenticate validates an access token and rejects revoked ones.
func (s *Sessions) Authenticate(ctx context.Context, token string) (*models.TokenClaims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, utils.TokenAuthError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued for the user it names.
func (s *Sessions) Refresh(ctx context.Context, refreshToken string, load UserLoader) (*models.User, *utils.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, utils.TokenAuthError(err)
	}

	user, err := load(ctx, claims.UserID)
	if err != nil {
		if utils.AsAppError(err).Code == utils.CodeNotFound {
			return nil, nil, utils.NewUnauthorizedError("User no longer exists")
		}
		return nil, nil, err
	}

	// Consuming the jti is the single step that decides which caller rotates.
	won, err := s.revoked.RevokeIfAbsent(ctx, claims.ID, claims.ExpiresAt())
	if err != nil {
		return nil, nil, utils.NewInternalError(err)
	}
	if !won {
		return nil, nil, utils.NewUnauthorizedError("Token has been revoked")
	}

	pair, err := s.Issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Revoke puts the token id on the revocation list until it expires.
func (s *Sessions) Revoke(ctx context.Context, claims *models.TokenClaims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt()); err != nil {
		return utils.NewInternalError(err)
	}
	return nil
}

// RevokeRefreshToken revokes a refresh token presented at logout. Tokens that
// no longer validate are ignored since they cannot be used anyway.
func (s *Sessions) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil
	}
	return s.Revoke(ctx, claims)
}

func (s *Sessions) checkRevoked(ctx context.Context, claims *models.TokenClaims) error {
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return utils.NewInternalError(err)
	}
	if revoked {
		return utils.NewUnauthorizedError("Token has been revoked")
	}
	return nil
}
