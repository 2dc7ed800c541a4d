package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const channelTag = "in"

// Input channels a request schema can bind.
const (
	ChannelBody   = "body"
	ChannelParams = "params"
	ChannelQuery  = "query"
)

// MaxBodyBytes bounds request bodies; larger ones are rejected with an issue.
const MaxBodyBytes = 1 << 20

// Schema is a compiled request contract for T. It is immutable and safe for
// concurrent use.
type Schema[T any] struct {
	validator *Validator
	body      *binding
	params    *binding
	query     *binding
}

// binding locates one channel's field inside T. For params and query the
// channel struct's scalar fields are bound individually by wire name.
type binding struct {
	index  int
	fields []scalarField
}

type scalarField struct {
	index int
	name  string
	kind  reflect.Kind
}

// Compile builds a request schema from T. T must be a struct whose exported
// top-level fields each carry an `in` tag naming a distinct channel.
func Compile[T any](v *Validator) (*Schema[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidSchema, t)
	}

	s := &Schema[T]{validator: v}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			return nil, fmt.Errorf("%w: %s.%s is unexported", ErrInvalidSchema, t, f.Name)
		}

		in := f.Tag.Get(channelTag)
		var slot **binding
		switch in {
		case ChannelBody:
			slot = &s.body
		case ChannelParams:
			slot = &s.params
		case ChannelQuery:
			slot = &s.query
		case "":
			return nil, fmt.Errorf("%w: %s.%s has no %q tag", ErrInvalidSchema, t, f.Name, channelTag)
		default:
			return nil, fmt.Errorf("%w: %s.%s binds unknown channel %q", ErrInvalidSchema, t, f.Name, in)
		}
		if *slot != nil {
			return nil, fmt.Errorf("%w: %s binds channel %q more than once", ErrInvalidSchema, t, in)
		}

		b := &binding{index: i}
		if in != ChannelBody {
			fields, err := scalarFields(f.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidSchema, t, f.Name, err)
			}
			b.fields = fields
		}
		*slot = b
	}

	return s, nil
}

// MustCompile is like Compile but panics on error. It is intended for route
// declarations evaluated during server construction.
func MustCompile[T any](v *Validator) *Schema[T] {
	s, err := Compile[T](v)
	if err != nil {
		panic(err)
	}
	return s
}

func scalarFields(t reflect.Type) ([]scalarField, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	fields := make([]scalarField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		switch f.Type.Kind() {
		case reflect.String, reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
		default:
			return nil, fmt.Errorf("field %s has unsupported type %s", f.Name, f.Type)
		}
		name := wireName(f)
		if name == "" {
			continue
		}
		fields = append(fields, scalarField{index: i, name: name, kind: f.Type.Kind()})
	}
	return fields, nil
}

// Parse binds r's body, URL parameters and query string into a T and checks
// its constraints. A failure is always a *ValidationError.
func (s *Schema[T]) Parse(r *http.Request) (T, error) {
	var out T
	root := reflect.ValueOf(&out).Elem()

	if s.body != nil {
		if issue, ok := decodeBody(r, root.Field(s.body.index).Addr().Interface()); !ok {
			return out, newValidationError([]Issue{issue})
		}
	}

	var issues []Issue
	if s.params != nil {
		issues = append(issues, bindScalars(root.Field(s.params.index), ChannelParams, s.params.fields,
			func(name string) (string, bool) {
				value := chi.URLParam(r, name)
				return value, value != ""
			})...)
	}
	if s.query != nil {
		query := r.URL.Query()
		issues = append(issues, bindScalars(root.Field(s.query.index), ChannelQuery, s.query.fields,
			func(name string) (string, bool) {
				if !query.Has(name) {
					return "", false
				}
				return query.Get(name), true
			})...)
	}

	constraintIssues, err := s.validator.check(out)
	if err != nil {
		return out, fmt.Errorf("validate %T: %w", out, err)
	}

	// A value that failed conversion is already reported; its zero value would
	// only add noise.
	reported := make(map[string]bool, len(issues))
	for _, issue := range issues {
		reported[issue.Path] = true
	}
	for _, issue := range constraintIssues {
		if !reported[issue.Path] {
			issues = append(issues, issue)
		}
	}

	return out, newValidationError(issues)
}

func decodeBody(r *http.Request, dst any) (Issue, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return Issue{Path: ChannelBody, Message: "is required", Constraint: "required"}, false
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return bodyIssue(err), false
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return bodyIssue(err), false
		}
		return Issue{Path: ChannelBody, Message: "must be valid JSON", Constraint: "json"}, false
	}
	return Issue{}, true
}

func bodyIssue(err error) Issue {
	var (
		tooLarge *http.MaxBytesError
		typeErr  *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &tooLarge):
		return Issue{
			Path:       ChannelBody,
			Message:    fmt.Sprintf("must be at most %d bytes", tooLarge.Limit),
			Constraint: fmt.Sprintf("max_bytes=%d", tooLarge.Limit),
		}
	case errors.Is(err, io.EOF):
		return Issue{Path: ChannelBody, Message: "is required", Constraint: "required"}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return Issue{
			Path:       ChannelBody + "." + typeErr.Field,
			Message:    "must be of type " + jsonTypeName(typeErr.Type),
			Constraint: "type",
		}
	}
	return Issue{Path: ChannelBody, Message: "must be valid JSON", Constraint: "json"}
}

func bindScalars(
	dst reflect.Value,
	channel string,
	fields []scalarField,
	lookup func(name string) (string, bool),
) []Issue {
	var issues []Issue
	for _, f := range fields {
		raw, ok := lookup(f.name)
		if !ok {
			continue
		}
		if err := setScalar(dst.Field(f.index), raw); err != nil {
			issues = append(issues, Issue{
				Path:       channel + "." + f.name,
				Message:    "must be of type " + kindName(f.kind),
				Constraint: "type",
			})
		}
	}
	return issues
}

func setScalar(v reflect.Value, raw string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(n)
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}

func kindName(k reflect.Kind) string {
	switch k {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	}
	return "string"
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return kindName(t.Kind())
}
