// Package domain contains the core types of the totem administration backend:
// entity descriptors and their registry, typed configuration values, users,
// roles and the domain error taxonomy. It has no infrastructure dependencies.
package domain
