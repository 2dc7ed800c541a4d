package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/platform/logger"
	"github.com/phrazzld/profile-api/internal/service/auth"
	"github.com/phrazzld/profile-api/internal/store"
)

// RegisterRequest describes a new account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// RegisterResponse carries the stored user.
type RegisterResponse struct {
	User *domain.User `json:"user"`
}

// Register creates user accounts.
type Register struct {
	users  store.UsersRepository
	hasher auth.PasswordHasher
}

// NewRegister creates a Register use case.
func NewRegister(users store.UsersRepository, hasher auth.PasswordHasher) *Register {
	return &Register{users: users, hasher: hasher}
}

// Execute hashes the password and stores a new user. A taken e-mail yields
// domain.ErrUserAlreadyExists.
func (uc *Register) Execute(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	log := logger.FromContext(ctx)

	existing, err := uc.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to check email availability: %w", err)
	}
	if existing != nil {
		return RegisterResponse{}, domain.ErrUserAlreadyExists
	}

	hash, err := uc.hasher.Hash(req.Password)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := domain.NewUser(req.Name, req.Email, hash)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to build user: %w", err)
	}

	// The repository has the final word: a concurrent registration can take
	// the address between the lookup above and this insert.
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return RegisterResponse{}, domain.ErrUserAlreadyExists
		}
		return RegisterResponse{}, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user registered", "user_id", user.ID)
	return RegisterResponse{User: user}, nil
}
