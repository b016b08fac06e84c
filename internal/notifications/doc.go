// Package notifications pushes job lifecycle events to an ntfy topic.
// Without a configured topic a noop service is returned, so callers never
// need to guard their notify calls.
package notifications
