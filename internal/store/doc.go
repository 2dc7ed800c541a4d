// Package store defines the storage-agnostic repository contracts that use
// cases depend on. Concrete implementations live elsewhere: an in-memory one
// in store/memory and a PostgreSQL one in platform/postgres.
package store
