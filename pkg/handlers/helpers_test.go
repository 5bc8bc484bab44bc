package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"venue-crm-backend/pkg/auth"
	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/router"
	"venue-crm-backend/pkg/storage"
	"venue-crm-backend/pkg/utils"

	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Field   string          `json:"field"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta      *utils.Meta `json:"meta"`
	Timestamp string      `json:"timestamp"`
	Path      string      `json:"path"`
}

type testServer struct {
	t        *testing.T
	handler  http.Handler
	db       *database.GormDatabase
	sessions *auth.Sessions
	cfg      *config.Config
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment:         "test",
		JWTSecret:           "handler-test-secret",
		AccessTokenTTL:      15 * time.Minute,
		RefreshTokenTTL:     time.Hour,
		BaseURL:             "http://crm.test",
		FrontendCallbackURL: "http://app.test/auth/callback",
		AllowedOrigins:      []string{"*"},
		MaxBodyBytes:        1 << 20,
		DocumentStorage:     "local",
		DocumentLocalDir:    t.TempDir(),
		AgencyName:          "Test Agency",
	}
}

func newTestServer(t *testing.T, providers auth.Providers) *testServer {
	t.Helper()
	cfg := testConfig(t)

	db, err := database.NewInMemoryDatabase(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	documents, err := storage.NewLocalStore(cfg.DocumentLocalDir)
	require.NoError(t, err)

	sessions := auth.NewSessions(
		utils.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		auth.NewMemoryRevocationStore())
	if providers == nil {
		providers = auth.NewProviders(cfg)
	}
	handler := router.NewRouter(&router.Deps{
		Config:    cfg,
		DB:        db,
		Providers: providers,
		Sessions:  sessions,
		Documents: documents,
	})
	return &testServer{t: t, handler: handler, db: db, sessions: sessions, cfg: cfg}
}

func (s *testServer) user(email string, role models.Role) (*models.User, string) {
	s.t.Helper()
	u := &models.User{Email: email, Name: email, Role: role}
	require.NoError(s.t, s.db.DB(context.Background()).Create(u).Error)
	pair, err := s.sessions.Issue(u)
	require.NoError(s.t, err)
	return u, pair.AccessToken
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) envelope {
	t.Helper()
	env := decode(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
	return env
}

func (s *testServer) ctx() context.Context {
	return context.Background()
}
