package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// ResponseSchema is a compiled response contract for T.
type ResponseSchema[T any] struct {
	validator *Validator
	name      string
}

// CompileResponse builds a response schema from T, which must be a struct.
func CompileResponse[T any](v *Validator) (*ResponseSchema[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: response %s is not a struct", ErrInvalidSchema, t)
	}
	return &ResponseSchema[T]{validator: v, name: t.String()}, nil
}

// MustCompileResponse is like CompileResponse but panics on error.
func MustCompileResponse[T any](v *Validator) *ResponseSchema[T] {
	s, err := CompileResponse[T](v)
	if err != nil {
		panic(err)
	}
	return s
}

// Serialize projects result onto T through its JSON form: fields T does not
// declare are dropped and fields both share are kept. The projection must
// then satisfy T's constraints.
func (s *ResponseSchema[T]) Serialize(result any) (T, error) {
	var out T

	raw, err := json.Marshal(result)
	if err != nil {
		return out, &SerializationError{Type: s.name, Err: err}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &SerializationError{Type: s.name, Err: err}
	}

	issues, err := s.validator.check(out)
	if err != nil {
		return out, &SerializationError{Type: s.name, Err: err}
	}
	if len(issues) > 0 {
		return out, &SerializationError{Type: s.name, Err: &ValidationError{Issues: issues}}
	}
	return out, nil
}
