// Package shared holds response helpers and request-scoped values used by both
// the api package and its middleware.
package shared
