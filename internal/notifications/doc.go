// Package notifications delivers batch run events to ntfy.
//
// NewService returns a no-op notifier when no topic is configured, so the
// workflow runner can publish unconditionally.
package notifications
