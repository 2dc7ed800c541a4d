// Package domain contains the core business entities and the closed set of
// business-rule errors raised by use cases. It has no knowledge of HTTP,
// tokens, or storage engines.
package domain
