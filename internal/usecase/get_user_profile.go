package usecase

import (
	"context"
	"fmt"

	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/platform/logger"
	"github.com/phrazzld/profile-api/internal/store"
)

// GetUserProfileRequest identifies the user to look up.
type GetUserProfileRequest struct {
	UserID string
}

// GetUserProfileResponse carries the user exactly as the repository returned it.
type GetUserProfileResponse struct {
	User *domain.User `json:"user"`
}

// GetUserProfile looks up a single user.
type GetUserProfile struct {
	users store.UsersRepository
}

// NewGetUserProfile creates a GetUserProfile use case.
func NewGetUserProfile(users store.UsersRepository) *GetUserProfile {
	return &GetUserProfile{users: users}
}

// Execute returns the requested user, or domain.ErrResourceNotFound if the
// repository has no such user.
func (uc *GetUserProfile) Execute(ctx context.Context, req GetUserProfileRequest) (GetUserProfileResponse, error) {
	user, err := uc.users.FindByID(ctx, req.UserID)
	if err != nil {
		return GetUserProfileResponse{}, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		logger.FromContext(ctx).Debug("user not found", "user_id", req.UserID)
		return GetUserProfileResponse{}, domain.ErrResourceNotFound.WithDetail("user %s", req.UserID)
	}

	return GetUserProfileResponse{User: user}, nil
}
