// Package postgres provides the PostgreSQL implementation of the repository
// contracts defined in internal/store. It owns connection setup (through the
// pgx database/sql driver), the embedded goose migrations, and the mapping
// between rows and domain entities.
package postgres
