package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchema indicates a type cannot be compiled into a schema.
var ErrInvalidSchema = errors.New("invalid schema")

// Issue describes a single field-level validation failure.
type Issue struct {
	// Path is the wire path of the offending value, e.g. "body.email".
	Path string `json:"path"`

	// Message is a human-readable reason.
	Message string `json:"message"`

	// Constraint names the rule that failed, e.g. "required" or "min=8".
	Constraint string `json:"constraint"`
}

// ValidationError reports that request input did not satisfy its schema.
// Issues is ordered and never empty.
type ValidationError struct {
	Issues []Issue
}

// newValidationError returns nil when there is nothing to report, so a
// ValidationError never carries an empty issue list.
func newValidationError(issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields groups issue messages by path, preserving issue order within a path.
func (e *ValidationError) Fields() map[string][]string {
	fields := make(map[string][]string, len(e.Issues))
	for _, issue := range e.Issues {
		fields[issue.Path] = append(fields[issue.Path], issue.Message)
	}
	return fields
}

// SerializationError reports that a handler result could not be shaped into
// its declared response type.
type SerializationError struct {
	Type string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize response %s: %v", e.Type, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
