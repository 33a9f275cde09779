// Package service contains the use cases of the administration API. It sits
// between the HTTP layer and the store interfaces defined in internal/store.
//
// Key components:
//
// 1. EntityService:
//   - Generic CRUD over every table of the domain.Registry
//   - Runs the descriptor's payload normalization before any write
//   - Enforces the descriptor's read and write roles
//
// 2. ConfigService:
//   - Typed system configuration with coerced values
//   - Batch updates validated up front and written in one transaction
//
// 3. AccountService:
//   - Login with JWT issuance, self-registration, profile and password change
//
// Every successful mutation emits an events.ChangeEvent. Emission failures are
// logged and never fail the operation.
//
// Services return sentinel errors (ErrUnauthenticated, ErrForbidden,
// ErrOperationNotAllowed and the store/domain errors they pass through); the
// API layer maps them to HTTP status codes.
package service
