package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks struct constraints and names failures by wire path. One
// Validator is shared by every schema compiled at server startup; it caches
// struct metadata and is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator whose field names follow the `in` and
// `json` tags.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)
	return &Validator{validate: v}
}

// wireName is the name a field has on the wire: its channel for top-level
// request fields, otherwise its json name.
func wireName(f reflect.StructField) string {
	if in := f.Tag.Get(channelTag); in != "" {
		return in
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// check validates v and converts constraint failures into issues. Errors that
// are not constraint failures are returned as-is.
func (v *Validator) check(value any) ([]Issue, error) {
	err := v.validate.Struct(value)
	if err == nil {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	root := reflect.TypeOf(value).Name() + "."
	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{
			Path:       strings.TrimPrefix(fe.Namespace(), root),
			Message:    message(fe),
			Constraint: constraint(fe),
		})
	}
	return issues, nil
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

func message(fe validator.FieldError) string {
	amount := fe.Param()
	switch fe.Kind() {
	case reflect.String:
		amount += " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		amount += " items"
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		return "must be at least " + amount
	case "max", "lte":
		return "must be at most " + amount
	case "len":
		return "must be exactly " + amount
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	}
	return fmt.Sprintf("failed %s validation", constraint(fe))
}
