// Package auth holds the OAuth providers, the token revocation list and the
// session logic that issues, rotates and revokes token pairs.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/utils"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"

	googleUserInfoURL    = "https://www.googleapis.com/oauth2/v2/userinfo"
	microsoftUserInfoURL = "https://graph.microsoft.com/v1.0/me"
)

// UserInfo is the identity returned by a provider's userinfo endpoint.
type UserInfo struct {
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}

// Provider is one OAuth identity provider.
type Provider struct {
	Name        string
	OAuth       *oauth2.Config
	UserInfoURL string
	decode      func([]byte) (*UserInfo, error)
}

// AuthCodeURL is the consent page URL carrying state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for the user's identity.
func (p *Provider) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.OAuth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	info, err := p.decode(body)
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, fmt.Errorf("%s account has no email address", p.Name)
	}
	return info, nil
}

func decodeGoogle(body []byte) (*UserInfo, error) {
	var v struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("invalid google userinfo: %w", err)
	}
	return &UserInfo{ProviderID: v.ID, Email: v.Email, Name: v.Name, AvatarURL: v.Picture}, nil
}

func decodeMicrosoft(body []byte) (*UserInfo, error) {
	var v struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("invalid microsoft userinfo: %w", err)
	}
	email := v.Mail
	if email == "" {
		email = v.UserPrincipalName
	}
	return &UserInfo{ProviderID: v.ID, Email: email, Name: v.DisplayName}, nil
}

// NewGoogleProvider builds the Google provider.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		Name: ProviderGoogle,
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: googleUserInfoURL,
		decode:      decodeGoogle,
	}
}

// NewMicrosoftProvider builds the Microsoft provider for tenant.
func NewMicrosoftProvider(clientID, clientSecret, tenant, redirectURL string) *Provider {
	if tenant == "" {
		tenant = "common"
	}
	return &Provider{
		Name: ProviderMicrosoft,
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
			Scopes:       []string{"openid", "email", "profile", "User.Read"},
		},
		UserInfoURL: microsoftUserInfoURL,
		decode:      decodeMicrosoft,
	}
}

// Providers is the set of known providers. A known provider without
// credentials is present with a nil entry.
type Providers map[string]*Provider

// NewProviders registers every provider that has credentials in cfg.
func NewProviders(cfg *config.Config) Providers {
	base := strings.TrimRight(cfg.BaseURL, "/")
	providers := Providers{ProviderGoogle: nil, ProviderMicrosoft: nil}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers[ProviderGoogle] = NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret,
			base+"/auth/google/callback")
	}
	if cfg.MicrosoftClientID != "" && cfg.MicrosoftClientSecret != "" {
		providers[ProviderMicrosoft] = NewMicrosoftProvider(cfg.MicrosoftClientID, cfg.MicrosoftClientSecret,
			cfg.MicrosoftTenant, base+"/auth/microsoft/callback")
	}
	return providers
}

// Get returns the named provider: 404 when unknown, 501 when not configured.
func (p Providers) Get(name string) (*Provider, error) {
	provider, known := p[name]
	if !known {
		return nil, utils.NewNotFoundError("OAuth provider")
	}
	if provider == nil {
		return nil, utils.NewNotConfiguredError(fmt.Sprintf("OAuth provider %s is not configured", name))
	}
	return provider, nil
}

// Configured lists the providers that can be used, sorted.
func (p Providers) Configured() []string {
	names := make([]string, 0, len(p))
	for name, provider := range p {
		if provider != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
