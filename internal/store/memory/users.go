// Package memory provides an in-memory implementation of the store contracts.
// It backs the server when no database is configured and doubles as the fake
// used by use case and API tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/store"
)

// UsersRepository is a map-backed store.UsersRepository.
type UsersRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

var _ store.UsersRepository = (*UsersRepository)(nil)

// NewUsersRepository returns an empty repository seeded with users, if any.
func NewUsersRepository(users ...*domain.User) *UsersRepository {
	r := &UsersRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
	for _, u := range users {
		r.put(u)
	}
	return r
}

// FindByID implements store.UsersRepository.
func (r *UsersRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(u), nil
}

// FindByEmail implements store.UsersRepository. Emails compare case-insensitively.
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return clone(r.byID[id]), nil
}

// Create implements store.UsersRepository.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[strings.ToLower(user.Email)]; taken {
		return store.ErrEmailExists
	}
	r.put(user)
	return nil
}

// put stores a copy of u. Callers hold the write lock or own r exclusively.
func (r *UsersRepository) put(u *domain.User) {
	c := clone(u)
	r.byID[c.ID] = c
	r.byEmail[strings.ToLower(c.Email)] = c.ID
}

// clone keeps callers from mutating stored state; use cases get users read-only.
func clone(u *domain.User) *domain.User {
	c := *u
	return &c
}
