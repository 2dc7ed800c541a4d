package auth

import (
	"context"
	"time"
)

// AccessToken is a short-lived signed credential sent in the Authorization header.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// RefreshToken is a longer-lived signed credential. It only travels in the
// HTTP-only refresh cookie and is only used to mint access tokens.
type RefreshToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenService issues and verifies the tokens this module owns.
// It is stateless: nothing is stored server-side.
type TokenService interface {
	// IssueAccessToken signs an access token for subject.
	IssueAccessToken(ctx context.Context, subject string) (AccessToken, error)

	// IssueRefreshToken signs a refresh token for subject.
	IssueRefreshToken(ctx context.Context, subject string) (RefreshToken, error)

	// VerifyAccessToken checks signature, expiry, and token type and returns
	// the subject. Any failure wraps ErrInvalidToken.
	VerifyAccessToken(ctx context.Context, token string) (string, error)

	// Refresh verifies a refresh token and issues a new access token for the
	// same subject. The refresh token itself is not rotated. Any failure wraps
	// ErrInvalidToken and no access token is issued.
	Refresh(ctx context.Context, refreshToken string) (AccessToken, error)
}
