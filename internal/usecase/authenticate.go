package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/platform/logger"
	"github.com/phrazzld/profile-api/internal/service/auth"
	"github.com/phrazzld/profile-api/internal/store"
)

// AuthenticateRequest is an e-mail/password login attempt.
type AuthenticateRequest struct {
	Email    string
	Password string
}

// AuthenticateResponse carries the user whose credentials matched.
type AuthenticateResponse struct {
	User *domain.User `json:"user"`
}

// dummyPassword is hashed once and compared against for unknown e-mails, so
// both failure paths pay for one hash comparison.
const dummyPassword = "profile-api-unknown-user"

// Authenticate checks a user's credentials.
type Authenticate struct {
	users  store.UsersRepository
	hasher auth.PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticate creates an Authenticate use case.
func NewAuthenticate(users store.UsersRepository, hasher auth.PasswordHasher) *Authenticate {
	return &Authenticate{users: users, hasher: hasher}
}

// Execute returns the matching user. An unknown e-mail and a wrong password
// both yield domain.ErrInvalidCredentials.
func (uc *Authenticate) Execute(ctx context.Context, req AuthenticateRequest) (AuthenticateResponse, error) {
	log := logger.FromContext(ctx)

	user, err := uc.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return AuthenticateResponse{}, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		_ = uc.hasher.Compare(uc.unknownUserHash(), req.Password)
		log.Debug("authentication failed: unknown email")
		return AuthenticateResponse{}, domain.ErrInvalidCredentials
	}

	if err := uc.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		log.Debug("authentication failed: password mismatch", "user_id", user.ID)
		return AuthenticateResponse{}, domain.ErrInvalidCredentials
	}

	return AuthenticateResponse{User: user}, nil
}

func (uc *Authenticate) unknownUserHash() string {
	uc.dummyOnce.Do(func() {
		hash, err := uc.hasher.Hash(dummyPassword)
		if err == nil {
			uc.dummyHash = hash
		}
	})
	return uc.dummyHash
}
