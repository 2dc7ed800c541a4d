package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/store"
)

// MockUsersRepository implements store.UsersRepository for testing
type MockUsersRepository struct {
	// Function fields for customizable behavior
	FindByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	FindByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	CreateFn      func(ctx context.Context, user *domain.User) error

	// Default response values
	User *domain.User
	Err  error

	mu          sync.Mutex
	findByID    []string
	findByEmail []string
	created     []*domain.User
}

var _ store.UsersRepository = (*MockUsersRepository)(nil)

// FindByID implements store.UsersRepository
func (m *MockUsersRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	m.findByID = append(m.findByID, id)
	m.mu.Unlock()

	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return m.User, m.Err
}

// FindByEmail implements store.UsersRepository
func (m *MockUsersRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	m.findByEmail = append(m.findByEmail, email)
	m.mu.Unlock()

	if m.FindByEmailFn != nil {
		return m.FindByEmailFn(ctx, email)
	}
	return m.User, m.Err
}

// Create implements store.UsersRepository
func (m *MockUsersRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	m.created = append(m.created, user)
	m.mu.Unlock()

	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return m.Err
}

// FindByIDCalls returns the ids FindByID was called with, in order.
func (m *MockUsersRepository) FindByIDCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.findByID...)
}

// FindByEmailCalls returns the emails FindByEmail was called with, in order.
func (m *MockUsersRepository) FindByEmailCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.findByEmail...)
}

// CreateCalls returns the users passed to Create, in order.
func (m *MockUsersRepository) CreateCalls() []*domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.User(nil), m.created...)
}
