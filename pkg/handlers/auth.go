package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"venue-crm-backend/pkg/auth"
	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/middleware"
	"venue-crm-backend/pkg/permissions"
	"venue-crm-backend/pkg/services"
	"venue-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const stateCookie = "oauth_state"

// AuthHandler runs the OAuth login flow and the token endpoints.
type AuthHandler struct {
	config    *config.Config
	providers auth.Providers
	sessions  *auth.Sessions
	users     *services.UserService
}

func NewAuthHandler(cfg *config.Config, providers auth.Providers, sessions *auth.Sessions, users *services.UserService) *AuthHandler {
	return &AuthHandler{config: cfg, providers: providers, sessions: sessions, users: users}
}

// GET /auth/{provider}
func (h *AuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	provider, err := h.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	state, err := utils.GenerateURLToken(24)
	if err != nil {
		utils.WriteError(w, r, utils.NewInternalError(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// GET /auth/{provider}/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	provider, err := h.providers.Get(name)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	logger := config.GetLogger().WithField("provider", name)

	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		h.redirectError(w, r, providerErr, q.Get("error_description"))
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		logger.Warn("oauth state mismatch")
		h.redirectError(w, r, "invalid_state", "Login session expired, please try again")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/auth", MaxAge: -1, HttpOnly: true})

	code := q.Get("code")
	if code == "" {
		h.redirectError(w, r, "missing_code", "Authorization code is missing")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	info, err := provider.Exchange(ctx, code)
	if err != nil {
		logger.WithError(err).Error("oauth exchange failed")
		h.redirectError(w, r, "exchange_failed", "Could not verify your account with the provider")
		return
	}

	user, err := h.users.UpsertOAuthUser(ctx, services.OAuthProfile{
		Provider:   provider.Name,
		ProviderID: info.ProviderID,
		Email:      info.Email,
		Name:       info.Name,
		AvatarURL:  info.AvatarURL,
	})
	if err != nil {
		logger.WithError(err).Error("user upsert failed")
		h.redirectError(w, r, "login_failed", "Could not sign you in")
		return
	}

	pair, err := h.sessions.Issue(user)
	if err != nil {
		logger.WithError(err).Error("token issue failed")
		h.redirectError(w, r, "login_failed", "Could not sign you in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(pair.ExpiresIn),
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})

	logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user signed in")

	fragment := url.Values{}
	fragment.Set("access_token", pair.AccessToken)
	fragment.Set("refresh_token", pair.RefreshToken)
	fragment.Set("expires_in", fmt.Sprint(pair.ExpiresIn))
	fragment.Set("token_type", pair.TokenType)
	http.Redirect(w, r, h.frontendCallbackURL()+"#"+fragment.Encode(), http.StatusFound)
}

// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"user":        user,
		"permissions": permissions.ForRole(user.Role),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, pair, err := h.sessions.Refresh(r.Context(), req.RefreshToken, h.users.GetByID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"user":   user,
		"tokens": pair,
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// POST /auth/logout revokes the access token in use and the refresh token when given.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if r.ContentLength != 0 {
		if err := utils.ParseJSONBody(r, &req); err != nil {
			var appErr *utils.AppError
			if !errors.As(err, &appErr) || appErr.Message != "Request body is empty" {
				utils.WriteError(w, r, err)
				return
			}
		}
	}

	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok {
		if err := h.sessions.Revoke(r.Context(), claims); err != nil {
			utils.WriteError(w, r, err)
			return
		}
	}
	if err := h.sessions.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: middleware.AccessTokenCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	utils.WriteSuccessResponse(w, map[string]string{"message": "Logged out"})
}

// GET /auth/providers
func (h *AuthHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, map[string]interface{}{"providers": h.providers.Configured()})
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, code, description string) {
	q := url.Values{}
	q.Set("error", code)
	q.Set("error_description", description)
	http.Redirect(w, r, h.frontendCallbackURL()+"?"+q.Encode(), http.StatusFound)
}

func (h *AuthHandler) frontendCallbackURL() string {
	if u := strings.TrimSpace(h.config.FrontendCallbackURL); u != "" {
		return u
	}
	return "http://localhost:3000/auth/callback"
}

func (h *AuthHandler) secureCookies() bool {
	return strings.HasPrefix(strings.ToLower(h.config.BaseURL), "https://")
}
