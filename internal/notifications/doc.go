// Package notifications posts end-of-run messages to an ntfy topic.
//
// When no topic is configured NewService returns a notifier that does
// nothing, so callers never branch on configuration.
package notifications
