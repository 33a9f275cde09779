// Package postgres provides PostgreSQL implementations of the storage
// interfaces defined in internal/store, on top of the pgx database/sql driver.
//
// The generic entity store builds its SQL from entity descriptors only,
// quoting identifiers with pgx.Identifier and binding every value as a
// positional parameter. Driver errors are mapped to the store taxonomy by
// MapError. The schema lives in embedded goose migrations (see Migrate).
package postgres
