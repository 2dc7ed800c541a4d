package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/platform/logger"
	"github.com/phrazzld/profile-api/internal/store"
)

// usersEmailConstraint is the unique index on lower(email).
const usersEmailConstraint = "users_email_key"

const (
	selectUserByIDQuery = `SELECT id, name, email, password_hash, created_at
		FROM users WHERE id = $1`
	selectUserByEmailQuery = `SELECT id, name, email, password_hash, created_at
		FROM users WHERE lower(email) = lower($1)`
	insertUserQuery = `INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`
)

// UsersRepository implements store.UsersRepository on PostgreSQL.
type UsersRepository struct {
	db DBTX
}

var _ store.UsersRepository = (*UsersRepository)(nil)

// NewUsersRepository creates a repository over db, which may be a pool or a transaction.
func NewUsersRepository(db DBTX) *UsersRepository {
	return &UsersRepository{db: db}
}

// FindByID implements store.UsersRepository.
// An ID that is not a valid UUID cannot match any row and yields (nil, nil).
func (r *UsersRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.scanOne(ctx, selectUserByIDQuery, id)
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return nil, nil
		}
		return nil, store.NewStoreError("user", "find_by_id", MapError(err))
	}
	return user, nil
}

// FindByEmail implements store.UsersRepository.
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.scanOne(ctx, selectUserByEmailQuery, email)
	if err != nil {
		return nil, store.NewStoreError("user", "find_by_email", MapError(err))
	}
	return user, nil
}

// Create implements store.UsersRepository.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := r.db.ExecContext(ctx, insertUserQuery,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrEmailExists) {
			logger.FromContext(ctx).Debug("user insert hit unique email index",
				slog.String("user_id", user.ID))
			return store.ErrEmailExists
		}
		return store.NewStoreError("user", "create", mapped)
	}
	return nil
}

// scanOne runs a single-row user query; sql.ErrNoRows becomes (nil, nil).
func (r *UsersRepository) scanOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
