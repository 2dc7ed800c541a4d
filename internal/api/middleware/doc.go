// Package middleware provides HTTP middleware for tracing, panic recovery,
// per-client rate limiting, and Prometheus instrumentation.
package middleware
