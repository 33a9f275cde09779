// Package api is the HTTP adapter of the administration backend. It decodes
// requests, takes the caller's principal from the context set by the
// middleware package, calls the entity, config and account services, and
// maps their errors to status codes and safe messages.
package api
