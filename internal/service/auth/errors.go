package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is the single failure the module reports to the rest of the
// pipeline. Every more specific token error wraps it, so errors.Is(err,
// ErrInvalidToken) holds for all of them.
var ErrInvalidToken = errors.New("invalid authentication token")

// Specific token failures, all wrapping ErrInvalidToken.
var (
	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = fmt.Errorf("%w: missing", ErrInvalidToken)

	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = fmt.Errorf("%w: expired", ErrInvalidToken)

	// ErrWrongTokenType indicates a refresh token was used as an access token or vice versa.
	ErrWrongTokenType = fmt.Errorf("%w: wrong token type", ErrInvalidToken)
)
