package domain

import "fmt"

// Code identifies one member of the closed domain error taxonomy.
// Adding a code is a deliberate change: the API layer must map it explicitly
// or it is treated as an unknown error.
type Code string

// Enumerated domain error codes.
const (
	CodeResourceNotFound   Code = "RESOURCE_NOT_FOUND"
	CodeUserAlreadyExists  Code = "USER_ALREADY_EXISTS"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
)

// Codes returns every enumerated domain error code.
func Codes() []Code {
	return []Code{
		CodeResourceNotFound,
		CodeUserAlreadyExists,
		CodeInvalidCredentials,
	}
}

// Error is a business-rule violation raised by a use case.
// It carries no transport data; Detail is for operators and never leaves the process.
type Error struct {
	Code   Code
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return string(e.Code)
}

// Is matches any *Error with the same code, so errors.Is(err, ErrResourceNotFound)
// holds for errors built with WithDetail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error annotated with operator-facing detail.
func (e *Error) WithDetail(format string, args ...any) *Error {
	return &Error{Code: e.Code, Detail: fmt.Sprintf(format, args...)}
}

// Sentinel values for errors.Is checks.
var (
	// ErrResourceNotFound is raised when a requested entity does not exist.
	ErrResourceNotFound = &Error{Code: CodeResourceNotFound}

	// ErrUserAlreadyExists is raised when registering an e-mail that is taken.
	ErrUserAlreadyExists = &Error{Code: CodeUserAlreadyExists}

	// ErrInvalidCredentials is raised when an e-mail/password pair does not match.
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials}
)
