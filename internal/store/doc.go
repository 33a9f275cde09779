// Package store defines the persistence interfaces of the totem API:
// the generic entity store driven by entity descriptors, the typed
// configuration store, users and the activity log. Implementations live in
// internal/platform/postgres; services depend only on these interfaces.
//
// All implementations translate driver errors into the sentinels of this
// package (ErrNotFound, ErrDuplicate, ErrConstraint) or a *StoreError, so
// callers never inspect database-specific error types.
package store
