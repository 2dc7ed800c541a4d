package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/profile-api/internal/service/auth"
	"github.com/phrazzld/profile-api/internal/usecase"
)

func (s *Server) register(ctx context.Context, call Call[registerRequest]) (any, error) {
	body := call.Input.Body
	_, err := s.registerUser.Execute(ctx, usecase.RegisterRequest{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
	})
	return nil, err
}

// createSession checks credentials, returns an access token in the body and
// sets the refresh token cookie. The cookie is only sent with a successful
// response.
func (s *Server) createSession(ctx context.Context, call Call[sessionRequest]) (any, error) {
	resp, err := s.authenticate.Execute(ctx, usecase.AuthenticateRequest{
		Email:    call.Input.Body.Email,
		Password: call.Input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(ctx, resp.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(ctx, resp.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	s.cookies.Set(call.Response, refresh, s.now())
	return tokenResponse{Token: access.Value}, nil
}

// refreshToken mints an access token from the refresh cookie. The refresh
// token itself is not reissued.
func (s *Server) refreshToken(ctx context.Context, call Call[noInput]) (any, error) {
	raw, err := s.cookies.Read(call.Request)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.Refresh(ctx, raw)
	if err != nil {
		return nil, err
	}
	return tokenResponse{Token: access.Value}, nil
}

// clearRejectedRefreshCookie tells the client to drop a refresh cookie that
// failed verification.
func (s *Server) clearRejectedRefreshCookie(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrMissingToken) {
		s.cookies.Clear(w)
	}
}

func (s *Server) me(ctx context.Context, call Call[noInput]) (any, error) {
	return s.profile(ctx, call.Caller.Subject)
}

func (s *Server) getUser(ctx context.Context, call Call[getUserRequest]) (any, error) {
	return s.profile(ctx, call.Input.Params.ID)
}

func (s *Server) profile(ctx context.Context, userID string) (any, error) {
	resp, err := s.getUserProfile.Execute(ctx, usecase.GetUserProfileRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
