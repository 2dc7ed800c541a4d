// Package schema compiles request and response contracts from Go struct
// types.
//
// A request type binds each input channel to one top-level field, selected by
// an `in` tag:
//
//	type getUserRequest struct {
//	    Params struct {
//	        ID string `json:"id" validate:"required,uuid"`
//	    } `in:"params"`
//	}
//
// Constraints are expressed with go-playground/validator `validate` tags.
// Parse decodes the body as JSON and binds chi URL parameters and query
// values by their json names. Failures are reported as a *ValidationError
// whose issues are keyed by wire path ("body.email", "params.id").
//
// A response type is the guaranteed shape of a handler's output. Serialize
// projects a result onto it, dropping fields the response type does not
// declare. A result that cannot be projected or does not satisfy the response
// constraints is a *SerializationError: a programming fault, not a caller
// error.
package schema
