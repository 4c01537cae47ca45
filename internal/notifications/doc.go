// Package notifications publishes rename alerts to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers can notify unconditionally. Scan and watch commands depend only on
// the Service interface.
package notifications
