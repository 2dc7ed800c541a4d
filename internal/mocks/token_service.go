package mocks

import (
	"context"

	"github.com/phrazzld/profile-api/internal/service/auth"
)

// MockTokenService implements auth.TokenService for testing
type MockTokenService struct {
	IssueAccessTokenFn  func(ctx context.Context, subject string) (auth.AccessToken, error)
	IssueRefreshTokenFn func(ctx context.Context, subject string) (auth.RefreshToken, error)
	VerifyAccessTokenFn func(ctx context.Context, token string) (string, error)
	RefreshFn           func(ctx context.Context, refreshToken string) (auth.AccessToken, error)

	// Default values used when functions aren't explicitly defined
	AccessToken  auth.AccessToken
	RefreshToken auth.RefreshToken
	Subject      string
	Err          error
	VerifyErr    error
}

var _ auth.TokenService = (*MockTokenService)(nil)

// IssueAccessToken implements auth.TokenService
func (m *MockTokenService) IssueAccessToken(ctx context.Context, subject string) (auth.AccessToken, error) {
	if m.IssueAccessTokenFn != nil {
		return m.IssueAccessTokenFn(ctx, subject)
	}
	return m.AccessToken, m.Err
}

// IssueRefreshToken implements auth.TokenService
func (m *MockTokenService) IssueRefreshToken(ctx context.Context, subject string) (auth.RefreshToken, error) {
	if m.IssueRefreshTokenFn != nil {
		return m.IssueRefreshTokenFn(ctx, subject)
	}
	return m.RefreshToken, m.Err
}

// VerifyAccessToken implements auth.TokenService
func (m *MockTokenService) VerifyAccessToken(ctx context.Context, token string) (string, error) {
	if m.VerifyAccessTokenFn != nil {
		return m.VerifyAccessTokenFn(ctx, token)
	}
	return m.Subject, m.VerifyErr
}

// Refresh implements auth.TokenService
func (m *MockTokenService) Refresh(ctx context.Context, refreshToken string) (auth.AccessToken, error) {
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, refreshToken)
	}
	return m.AccessToken, m.VerifyErr
}
