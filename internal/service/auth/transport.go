package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/profile-api/internal/config"
)

// Refresh cookie attributes. The cookie is scoped to the refresh endpoint so
// browsers never attach it to other requests.
const (
	RefreshCookieName = "refreshToken"
	RefreshCookiePath = "/token/refresh"
)

// Caller is the only view of authentication other packages receive: the
// request was authenticated, and this is the subject it was authenticated as.
type Caller struct {
	Subject string
}

type contextKey string

const callerKey contextKey = "caller"

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	if !ok || c.Subject == "" {
		return Caller{}, false
	}
	return c, true
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// Authenticate verifies the request's bearer token and returns the caller.
// It fails closed: any problem with the header or the token yields an error
// wrapping ErrInvalidToken.
func Authenticate(ctx context.Context, tokens TokenService, r *http.Request) (Caller, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return Caller{}, err
	}

	subject, err := tokens.VerifyAccessToken(ctx, raw)
	if err != nil {
		return Caller{}, err
	}
	return Caller{Subject: subject}, nil
}

// RefreshCookies writes and reads the refresh token cookie. The cookie is not
// signed at the cookie layer; the token's own signature protects it.
type RefreshCookies struct {
	secure bool
}

// NewRefreshCookies creates cookie settings from the auth configuration.
func NewRefreshCookies(cfg config.AuthConfig) *RefreshCookies {
	return &RefreshCookies{secure: cfg.CookieSecure}
}

// Set attaches token to the response as an HTTP-only cookie expiring with the token.
func (c *RefreshCookies) Set(w http.ResponseWriter, token RefreshToken, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token.Value,
		Path:     RefreshCookiePath,
		Expires:  token.ExpiresAt,
		MaxAge:   int(token.ExpiresAt.Sub(now).Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear instructs the client to drop the refresh cookie.
func (c *RefreshCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the refresh token carried by the request's cookie.
func (c *RefreshCookies) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrMissingToken
		}
		return "", ErrInvalidToken
	}
	if cookie.Value == "" {
		return "", ErrMissingToken
	}
	return cookie.Value, nil
}
