// Package device provides the binding between the transport and a playback backend.
package device

import (
	"context"

	"github.com/osa030/19player/internal/domain/track"
)

// EventType represents a device event type.
type EventType int

const (
	EventProgress EventType = iota // Elapsed time updated
	EventMetadata                  // Total duration now known
	EventEnded                     // Track finished naturally
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventProgress:
		return "progress"
	case EventMetadata:
		return "metadata"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is published by a backend handle for the track it is bound to.
type Event struct {
	Type     EventType
	Elapsed  float64 // Seconds, set for EventProgress
	Duration float64 // Seconds, set for EventMetadata
}

// Sink receives the events of one binding.
// Handles call it from their own goroutines, never from inside a Handle method.
type Sink func(Event)

// Handle is one backend bound to one track.
// Close stops the handle's goroutines without waiting for them, since they may be
// blocked delivering an event. Events still in flight are discarded by the Binding.
type Handle interface {
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(level float64) error // 0.0 - 1.0
	Close() error
}

// Backend opens handles for tracks.
type Backend interface {
	// Name returns the backend name (used in config and logs).
	Name() string
	// Open binds the track and returns a paused handle.
	Open(ctx context.Context, t track.Track, sink Sink) (Handle, error)
}
