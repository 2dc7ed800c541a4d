package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Construction errors. These indicate a programming fault in the caller,
// since inputs are validated before they reach the domain.
var (
	ErrEmptyName         = errors.New("user name cannot be empty")
	ErrEmptyEmail        = errors.New("email cannot be empty")
	ErrEmptyPasswordHash = errors.New("password hash cannot be empty")
)

// User represents a registered account.
//
// PasswordHash is serialized like any other field; response schemas decide
// what leaves the process, and none of them declare it.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser creates a User with a fresh UUID and the current UTC time.
// The password must already be hashed.
func NewUser(name, email, passwordHash string) (*User, error) {
	user := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks the invariants every stored user satisfies.
func (u *User) Validate() error {
	switch {
	case u.Name == "":
		return ErrEmptyName
	case u.Email == "":
		return ErrEmptyEmail
	case u.PasswordHash == "":
		return ErrEmptyPasswordHash
	}
	return nil
}
