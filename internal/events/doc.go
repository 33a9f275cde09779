// Package events decouples mutations from their side effects.
//
// Services emit a ChangeEvent after every successful create, update, delete
// or reset; handlers registered on the emitter (such as ActivityLogHandler,
// which writes the audit trail) react to them.
package events
