package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/profile-api/internal/config"
	"github.com/phrazzld/profile-api/internal/platform/logger"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// minSecretLength is the shortest HMAC key NewTokenService accepts.
	minSecretLength = 32
)

// hmacTokenService implements TokenService with HMAC-SHA256 signed JWTs.
type hmacTokenService struct {
	signingKey           []byte
	accessTokenLifetime  time.Duration
	refreshTokenLifetime time.Duration
	timeFunc             func() time.Time // Injectable for testing
	clockSkew            time.Duration    // Leeway for time-based claims; zero by default
}

// tokenClaims is the JWT payload. Subject carries the user ID.
type tokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

var _ TokenService = (*hmacTokenService)(nil)

// Option customizes a token service built by NewTokenService.
type Option func(*hmacTokenService)

// WithTimeFunc replaces the clock used for issuing and validating tokens.
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *hmacTokenService) {
		s.timeFunc = fn
	}
}

// NewTokenService creates a TokenService signing with cfg.JWTSecret.
// Tokens are rejected from the second they expire unless cfg.ClockSkewSeconds
// widens the window to exp+skew.
func NewTokenService(cfg config.AuthConfig, opts ...Option) (TokenService, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	if cfg.AccessTokenLifetimeMinutes <= 0 || cfg.RefreshTokenLifetimeMinutes <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}
	if cfg.ClockSkewSeconds < 0 {
		return nil, fmt.Errorf("clock skew must not be negative")
	}

	s := &hmacTokenService{
		signingKey:           []byte(cfg.JWTSecret),
		accessTokenLifetime:  time.Duration(cfg.AccessTokenLifetimeMinutes) * time.Minute,
		refreshTokenLifetime: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		timeFunc:             time.Now,
		clockSkew:            time.Duration(cfg.ClockSkewSeconds) * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueAccessToken implements TokenService.
func (s *hmacTokenService) IssueAccessToken(ctx context.Context, subject string) (AccessToken, error) {
	value, expiresAt, err := s.sign(ctx, subject, tokenTypeAccess, s.accessTokenLifetime)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Value: value, ExpiresAt: expiresAt}, nil
}

// IssueRefreshToken implements TokenService.
func (s *hmacTokenService) IssueRefreshToken(ctx context.Context, subject string) (RefreshToken, error) {
	value, expiresAt, err := s.sign(ctx, subject, tokenTypeRefresh, s.refreshTokenLifetime)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Value: value, ExpiresAt: expiresAt}, nil
}

// VerifyAccessToken implements TokenService.
func (s *hmacTokenService) VerifyAccessToken(ctx context.Context, token string) (string, error) {
	claims, err := s.parse(ctx, token, tokenTypeAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Refresh implements TokenService.
func (s *hmacTokenService) Refresh(ctx context.Context, refreshToken string) (AccessToken, error) {
	claims, err := s.parse(ctx, refreshToken, tokenTypeRefresh)
	if err != nil {
		return AccessToken{}, err
	}

	logger.FromContext(ctx).Debug("refresh token accepted",
		"user_id", claims.Subject,
		"token_id", claims.ID)

	return s.IssueAccessToken(ctx, claims.Subject)
}

func (s *hmacTokenService) sign(
	ctx context.Context,
	subject string,
	tokenType string,
	lifetime time.Duration,
) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject cannot be empty")
	}

	now := s.timeFunc()
	expiresAt := now.Add(lifetime)

	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign token",
			"error", err,
			"user_id", subject,
			"token_type", tokenType)
		return "", time.Time{}, fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", tokenType, err)
	}

	// Callers see the expiry the JWT actually carries (second precision).
	return signed, claims.ExpiresAt.Time, nil
}

// parse validates token and returns its claims. Every failure path returns an
// error wrapping ErrInvalidToken; nothing degrades to "unauthenticated".
func (s *hmacTokenService) parse(ctx context.Context, token string, wantType string) (*tokenClaims, error) {
	log := logger.FromContext(ctx)

	if token == "" {
		return nil, ErrMissingToken
	}

	now := s.timeFunc()
	parsed, err := jwt.ParseWithClaims(
		token,
		&tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: expired", "token_type", wantType)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			log.Debug("token validation failed: malformed", "token_type", wantType)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Debug("token validation failed: invalid signature", "token_type", wantType)
		default:
			log.Debug("token validation failed",
				"token_type", wantType,
				"error_type", fmt.Sprintf("%T", err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		log.Debug("token validation failed: wrong token type",
			"expected", wantType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	return claims, nil
}
