package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions() *Sessions {
	return NewSessions(utils.NewJWTService("test-secret", time.Minute, time.Hour), nil)
}

func loaderFor(users ...*models.User) UserLoader {
	return func(_ context.Context, id string) (*models.User, error) {
		for _, u := range users {
			if u.ID == id {
				return u, nil
			}
		}
		return nil, utils.NewNotFoundError("User")
	}
}

func TestSessionsAuthenticateAndRevoke(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessions()
	user := &models.User{Base: models.Base{ID: "u1"}, Email: "ana@agency.example", Role: models.RoleConsultant}

	pair, err := sessions.Issue(user)
	require.NoError(t, err)

	claims, err := sessions.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	require.NoError(t, sessions.Revoke(ctx, claims))
	_, err = sessions.Authenticate(ctx, pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, utils.CodeUnauthorized, utils.AsAppError(err).Code)

	_, err = sessions.Authenticate(ctx, pair.RefreshToken)
	assert.Equal(t, utils.CodeUnauthorized, utils.AsAppError(err).Code, "refresh tokens are not access tokens")
}

func TestSessionsRefreshRotates(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessions()
	user := &models.User{Base: models.Base{ID: "u1"}, Email: "ana@agency.example", Role: models.RoleConsultant}
	pair, err := sessions.Issue(user)
	require.NoError(t, err)

	got, next, err := sessions.Refresh(ctx, pair.RefreshToken, loaderFor(user))
	require.NoError(t, err)
	assert.Equal(t, user, got)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, _, err = sessions.Refresh(ctx, pair.RefreshToken, loaderFor(user))
	require.Error(t, err, "a refresh token works once")
	assert.Equal(t, utils.CodeUnauthorized, utils.AsAppError(err).Code)

	_, _, err = sessions.Refresh(ctx, next.RefreshToken, loaderFor())
	require.Error(t, err)
	assert.Equal(t, "User no longer exists", utils.AsAppError(err).Message)
}

func TestRevokeRefreshTokenIgnoresGarbage(t *testing.T) {
	sessions := newTestSessions()
	assert.NoError(t, sessions.RevokeRefreshToken(context.Background(), "not-a-jwt"))
	assert.NoError(t, sessions.RevokeRefreshToken(context.Background(), ""))
}

func TestMemoryRevocationStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryRevocationStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Revoke(ctx, "jti-1", now.Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "jti-old", now.Add(-time.Minute)))

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, _ = store.IsRevoked(ctx, "jti-old")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = store.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
}

func TestConcurrentRefreshRotatesOnce(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessions()
	user := &models.User{Base: models.Base{ID: "u1"}, Email: "ana@agency.example", Role: models.RoleConsultant}
	pair, err := sessions.Issue(user)
	require.NoError(t, err)

	const callers = 20
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		start     = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, _, err := sessions.Refresh(ctx, pair.RefreshToken, loaderFor(user)); err == nil {
				succeeded.Add(1)
			} else {
				assert.Equal(t, utils.CodeUnauthorized, utils.AsAppError(err).Code)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
}

func TestMemoryRevokeIfAbsent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryRevocationStore()
	store.now = func() time.Time { return now }

	won, err := store.RevokeIfAbsent(ctx, "jti-1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, won)

	won, _ = store.RevokeIfAbsent(ctx, "jti-1", now.Add(time.Minute))
	assert.False(t, won)

	won, _ = store.RevokeIfAbsent(ctx, "jti-expired", now.Add(-time.Second))
	assert.False(t, won)

	revoked, _ := store.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)
}
