package store

import (
	"context"

	"github.com/phrazzld/profile-api/internal/domain"
)

// UsersRepository is the contract use cases call to read and write users.
// Implementations must be safe for concurrent use and must not require a live
// external service to satisfy the contract; an in-memory fake is a valid one.
type UsersRepository interface {
	// FindByID returns the user with the given ID, or (nil, nil) when no such
	// user exists. A non-nil error means the lookup itself failed.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// FindByEmail returns the user with the given email, or (nil, nil) when
	// no such user exists.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create stores a new user.
	// Returns ErrEmailExists if the email is already taken and ErrInvalidEntity
	// if the user fails domain validation.
	Create(ctx context.Context, user *domain.User) error
}
