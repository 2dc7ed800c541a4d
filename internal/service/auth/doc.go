// Package auth issues, verifies, and refreshes the signed tokens that
// authenticate API callers, and owns their transport: the bearer header for
// access tokens and the HTTP-only cookie for refresh tokens. No other package
// reads raw token contents; they receive a Caller.
package auth
