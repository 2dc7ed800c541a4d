package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/profile-api/internal/config"
	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/mocks"
	"github.com/phrazzld/profile-api/internal/platform/logger"
	"github.com/phrazzld/profile-api/internal/service/auth"
	"github.com/phrazzld/profile-api/internal/store"
	"github.com/phrazzld/profile-api/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-jwt-secret-that-is-32-chars-long"

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Port:        8080,
			LogLevel:    "debug",
			Environment: config.EnvironmentTest,
		},
		Auth: config.AuthConfig{
			JWTSecret:                   testJWTSecret,
			AccessTokenLifetimeMinutes:  10,
			RefreshTokenLifetimeMinutes: 60 * 24 * 7,
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
		},
	}
}

type testServer struct {
	handler http.Handler
	tokens  auth.TokenService
	logs    *logger.TestLogBuffer
}

func newTestServer(t *testing.T, users store.UsersRepository, modify ...func(*Deps)) *testServer {
	t.Helper()

	cfg := testConfig()
	tokens, err := auth.NewTokenService(cfg.Auth)
	require.NoError(t, err)
	buf, log := logger.NewTestLogger(t)

	deps := Deps{
		Config: cfg,
		Logger: log,
		Users:  users,
		Tokens: tokens,
		Hasher: auth.NewBcryptHasher(bcrypt.MinCost),
	}
	for _, m := range modify {
		m(&deps)
	}

	srv, err := NewServer(deps)
	require.NoError(t, err)
	return &testServer{handler: srv.Handler(), tokens: deps.Tokens, logs: buf}
}

func (ts *testServer) do(t *testing.T, method, path, body string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) accessToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := ts.tokens.IssueAccessToken(context.Background(), subject)
	require.NoError(t, err)
	return token.Value
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(value string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: value})
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.RefreshCookieName {
			return c
		}
	}
	return nil
}

const registerBody = `{"name":"Ada Lovelace","email":"ada@example.com","password":"password123"}`

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, memory.NewUsersRepository())

	rec := ts.do(t, http.MethodPost, "/users", registerBody)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/users", registerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, map[string]any{"message": "E-mail already exists"}, decodeJSON(t, rec))

	rec = ts.do(t, http.MethodPost, "/users", `{"name":"","email":"nope","password":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "Validation error", body["message"])
	issues, ok := body["issues"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, issues, "body.name")
	assert.Contains(t, issues, "body.email")
	assert.Contains(t, issues, "body.password")

	rec = ts.do(t, http.MethodPost, "/users", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeJSON(t, rec)["issues"], "body")
}

func TestSessionAndRefreshFlow(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, memory.NewUsersRepository())
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/users", registerBody).Code)

	rec := ts.do(t, http.MethodPost, "/sessions", `{"email":"ada@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	token, ok := decodeJSON(t, rec)["token"].(string)
	require.True(t, ok)
	subject, err := ts.tokens.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)

	cookie := refreshCookie(rec)
	require.NotNil(t, cookie, "session sets the refresh cookie")
	assert.Equal(t, auth.RefreshCookiePath, cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.NotContains(t, rec.Body.String(), cookie.Value, "the refresh token never appears in the body")

	rec = ts.do(t, http.MethodPatch, "/token/refresh", "", withCookie(cookie.Value))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refreshed, ok := decodeJSON(t, rec)["token"].(string)
	require.True(t, ok)
	refreshedSubject, err := ts.tokens.VerifyAccessToken(context.Background(), refreshed)
	require.NoError(t, err)
	assert.Equal(t, subject, refreshedSubject)
	assert.Nil(t, refreshCookie(rec), "refresh does not reissue the cookie")

	rec = ts.do(t, http.MethodPatch, "/token/refresh", "", withCookie(cookie.Value))
	assert.Equal(t, http.StatusOK, rec.Code, "the refresh token stays valid until it expires")

	rec = ts.do(t, http.MethodGet, "/me", "", bearer(refreshed))
	require.Equal(t, http.StatusOK, rec.Code)
	user, ok := decodeJSON(t, rec)["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, subject, user["id"])
	assert.Equal(t, "Ada Lovelace", user["name"])
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
}

func TestSessionFailures(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, memory.NewUsersRepository())
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/users", registerBody).Code)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"wrong password", `{"email":"ada@example.com","password":"wrong-password"}`, 400, "Invalid credentials"},
		{"unknown email", `{"email":"bob@example.com","password":"password123"}`, 400, "Invalid credentials"},
		{"invalid email", `{"email":"bob","password":"password123"}`, 400, "Validation error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := ts.do(t, http.MethodPost, "/sessions", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeJSON(t, rec)["message"])
			assert.Nil(t, refreshCookie(rec))
		})
	}
}

func TestRefreshFailures(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, memory.NewUsersRepository())
	access := ts.accessToken(t, "0b8f5a6e-3c1d-4e0a-9a7b-2d6c4e8f1a3b")

	tests := []struct {
		name string
		opts []func(*http.Request)
	}{
		{"no cookie", nil},
		{"garbage cookie", []func(*http.Request){withCookie("garbage")}},
		{"access token in cookie", []func(*http.Request){withCookie(access)}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := ts.do(t, http.MethodPatch, "/token/refresh", "", tt.opts...)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, map[string]any{"message": "Invalid token"}, decodeJSON(t, rec))
		})
	}
}

func TestRejectedRefreshCookieIsCleared(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, memory.NewUsersRepository())

	rec := ts.do(t, http.MethodPatch, "/token/refresh", "", withCookie("garbage"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	cookie := refreshCookie(rec)
	require.NotNil(t, cookie, "a rejected refresh cookie is cleared")
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)

	rec = ts.do(t, http.MethodPatch, "/token/refresh", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, refreshCookie(rec), "nothing to clear without a cookie")
}

func TestSessionCookieOnlySentWithSuccessfulResponse(t *testing.T) {
	t.Parallel()

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("password123")
	require.NoError(t, err)
	users := memory.NewUsersRepository(&domain.User{
		ID:           "0b8f5a6e-3c1d-4e0a-9a7b-2d6c4e8f1a3b",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})

	// An empty access token violates the response schema.
	tokens := &mocks.MockTokenService{
		RefreshToken: auth.RefreshToken{Value: "refresh-token", ExpiresAt: time.Now().Add(time.Hour)},
	}
	ts := newTestServer(t, users, func(d *Deps) { d.Tokens = tokens })

	rec := ts.do(t, http.MethodPost, "/sessions", `{"email":"ada@example.com","password":"password123"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Nil(t, refreshCookie(rec), "no refresh cookie on a failed response")
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
}

func TestRefreshWithExpiredToken(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	old, err := auth.NewTokenService(cfg.Auth, auth.WithTimeFunc(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	refresh, err := old.IssueRefreshToken(context.Background(), "0b8f5a6e-3c1d-4e0a-9a7b-2d6c4e8f1a3b")
	require.NoError(t, err)

	ts := newTestServer(t, memory.NewUsersRepository())
	rec := ts.do(t, http.MethodPatch, "/token/refresh", "", withCookie(refresh.Value))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()

	user := &domain.User{
		ID:           "0b8f5a6e-3c1d-4e0a-9a7b-2d6c4e8f1a3b",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$04$hash",
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	ts := newTestServer(t, memory.NewUsersRepository(user))
	token := ts.accessToken(t, user.ID)

	tests := []struct {
		name       string
		path       string
		opts       []func(*http.Request)
		wantStatus int
		wantMsg    string
	}{
		{name: "me", path: "/me", opts: []func(*http.Request){bearer(token)}, wantStatus: 200},
		{name: "me without token", path: "/me", wantStatus: 401, wantMsg: "Invalid token"},
		{name: "me with malformed header", path: "/me", opts: []func(*http.Request){func(r *http.Request) {
			r.Header.Set("Authorization", "Token abc")
		}}, wantStatus: 401, wantMsg: "Invalid token"},
		{name: "me for unknown subject", path: "/me", opts: []func(*http.Request){
			bearer(ts.accessToken(t, "9f1e2d3c-4b5a-4697-8877-665544332211")),
		}, wantStatus: 404, wantMsg: "Resource not found"},
		{name: "user by id", path: "/users/" + user.ID, opts: []func(*http.Request){bearer(token)}, wantStatus: 200},
		{name: "absent user", path: "/users/9f1e2d3c-4b5a-4697-8877-665544332211", opts: []func(*http.Request){bearer(token)}, wantStatus: 404, wantMsg: "Resource not found"},
		{name: "malformed id is rejected before authentication", path: "/users/not-a-uuid", wantStatus: 400, wantMsg: "Validation error"},
		{name: "valid id without token", path: "/users/" + user.ID, wantStatus: 401, wantMsg: "Invalid token"},
		{name: "unknown route", path: "/nowhere", wantStatus: 404, wantMsg: "Resource not found"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := ts.do(t, http.MethodGet, tt.path, "", tt.opts...)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decodeJSON(t, rec)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["message"])
				return
			}
			assert.Equal(t, map[string]any{
				"user": map[string]any{
					"id":         user.ID,
					"name":       "Ada",
					"email":      "ada@example.com",
					"created_at": "2025-01-01T00:00:00Z",
				},
			}, body)
		})
	}
}

func TestUnroutedMethodUsesErrorShape(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, memory.NewUsersRepository())

	rec := ts.do(t, http.MethodDelete, "/me", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"message": "Resource not found"}, decodeJSON(t, rec))
}

func TestAuthenticatedRequestReachesUseCaseOnce(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: "0b8f5a6e-3c1d-4e0a-9a7b-2d6c4e8f1a3b", Name: "Ada", Email: "ada@example.com"}
	users := &mocks.MockUsersRepository{User: user}
	ts := newTestServer(t, users)

	rec := ts.do(t, http.MethodGet, "/users/"+user.ID, "", bearer(ts.accessToken(t, user.ID)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{user.ID}, users.FindByIDCalls())
	assert.Equal(t, 1, strings.Count(rec.Body.String(), `"user"`), "exactly one response body")
}

func TestInvalidInputNeverReachesRepository(t *testing.T) {
	t.Parallel()

	users := &mocks.MockUsersRepository{}
	ts := newTestServer(t, users)

	ts.do(t, http.MethodGet, "/users/not-a-uuid", "")
	ts.do(t, http.MethodGet, "/users/0b8f5a6e-3c1d-4e0a-9a7b-2d6c4e8f1a3b", "", bearer("forged"))
	ts.do(t, http.MethodPost, "/sessions", `{"email":"x"}`)

	assert.Empty(t, users.FindByIDCalls())
	assert.Empty(t, users.FindByEmailCalls())
}

func TestPanicBecomesSingleInternalError(t *testing.T) {
	t.Parallel()

	users := &mocks.MockUsersRepository{
		FindByIDFn: func(context.Context, string) (*domain.User, error) {
			panic("repository exploded")
		},
	}
	ts := newTestServer(t, users)

	rec := ts.do(t, http.MethodGet, "/me", "", bearer(ts.accessToken(t, "0b8f5a6e-3c1d-4e0a-9a7b-2d6c4e8f1a3b")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"message": "Internal server error"}, decodeJSON(t, rec))
	assert.NotContains(t, rec.Body.String(), "exploded")
	logger.AssertLogContains(t, ts.logs, "repository exploded")
}

func TestResponseContractViolationIsInternalError(t *testing.T) {
	t.Parallel()

	// The stored e-mail does not satisfy the response schema.
	users := &mocks.MockUsersRepository{User: &domain.User{ID: "u1", Name: "Ada", Email: "not-an-email"}}
	ts := newTestServer(t, users)

	rec := ts.do(t, http.MethodGet, "/me", "", bearer(ts.accessToken(t, "u1")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"message": "Internal server error"}, decodeJSON(t, rec))
}

func TestCredentialEndpointsAreRateLimited(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, memory.NewUsersRepository(), func(d *Deps) {
		d.Config.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}
	})

	body := `{"email":"ada@example.com","password":"password123"}`
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/sessions", body).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPatch, "/token/refresh", "").Code)

	rec := ts.do(t, http.MethodPost, "/sessions", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, map[string]any{"message": "Too many requests"}, decodeJSON(t, rec))

	assert.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/users", registerBody).Code,
		"registration is not behind the limiter")
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, memory.NewUsersRepository())

	rec := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	ts.do(t, http.MethodGet, "/me", "")

	rec = ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `http_errors_total{kind="invalid_token"} 1`)
}

func TestResponsesCarryTraceID(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, memory.NewUsersRepository())
	rec := ts.do(t, http.MethodGet, "/me", "")
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestNewServerRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, log := logger.NewTestLogger(t)
	tokens := &mocks.MockTokenService{}
	users := memory.NewUsersRepository()

	tests := []struct {
		name string
		deps Deps
	}{
		{"no logger", Deps{Users: users, Tokens: tokens}},
		{"no users", Deps{Logger: log, Tokens: tokens}},
		{"no tokens", Deps{Logger: log, Users: users}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewServer(tt.deps)
			assert.Error(t, err)
		})
	}

	_, err := NewServer(Deps{Logger: log, Users: users, Tokens: tokens})
	assert.NoError(t, err, "two servers in one process do not collide")
	_, err = NewServer(Deps{Logger: log, Users: users, Tokens: tokens})
	assert.NoError(t, err)
}
