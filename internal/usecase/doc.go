// Package usecase holds the application's business operations. Each use case
// receives its repositories at construction, takes already-validated plain
// data, and reports business-rule violations as *domain.Error values. Use
// cases know nothing about HTTP or tokens.
package usecase
