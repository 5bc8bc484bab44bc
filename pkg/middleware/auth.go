package middleware

import (
	"context"
	"net/http"
	"strings"

	"venue-crm-backend/pkg/auth"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/permissions"
	"venue-crm-backend/pkg/utils"
)

// ContextKey keys request-scoped values set by this package.
type ContextKey string

const (
	UserContextKey   ContextKey = "user"
	ClaimsContextKey ContextKey = "claims"

	// AccessTokenCookie is set by the OAuth callback and accepted as a fallback to the header.
	AccessTokenCookie = "access_token"
)

// Authenticate requires a valid, unrevoked access token and loads the user it names.
func Authenticate(sessions *auth.Sessions, load auth.UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := tokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, r, err)
				return
			}

			claims, err := sessions.Authenticate(r.Context(), token)
			if err != nil {
				utils.WriteError(w, r, err)
				return
			}

			user, err := load(r.Context(), claims.UserID)
			if err != nil {
				if utils.AsAppError(err).Code == utils.CodeNotFound {
					utils.WriteUnauthorizedResponse(w, r, "User no longer exists")
					return
				}
				utils.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			ctx = context.WithValue(ctx, ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects callers whose role lacks perm.
func RequirePermission(perm permissions.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				utils.WriteUnauthorizedResponse(w, r, "Authentication required")
				return
			}
			if !permissions.HasPermission(user, perm) {
				utils.WriteForbiddenResponse(w, r, "Missing permission "+string(perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || strings.TrimSpace(token) == "" {
			return "", utils.NewUnauthorizedError("Invalid authorization header format")
		}
		return strings.TrimSpace(token), nil
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", utils.NewUnauthorizedError("Missing authorization header")
}

// GetUserFromContext returns the authenticated user.
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// GetClaimsFromContext returns the claims of the access token used for the request.
func GetClaimsFromContext(ctx context.Context) (*models.TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*models.TokenClaims)
	return claims, ok && claims != nil
}

// RequireUser returns the authenticated user or a 401.
func RequireUser(ctx context.Context) (*models.User, error) {
	user, ok := GetUserFromContext(ctx)
	if !ok {
		return nil, utils.NewUnauthorizedError("Authentication required")
	}
	return user, nil
}
