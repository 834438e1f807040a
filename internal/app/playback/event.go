package playback

import "github.com/osa030/19player/internal/domain/track"

// EventType represents a transport event type.
type EventType int

const (
	EventTrackSelected    EventType = iota // Current track changed
	EventStateChanged                      // Play/pause changed
	EventProgress                          // Elapsed time moved
	EventDurationKnown                     // Device reported the track duration
	EventTrackEnded                        // Device reported natural completion
	EventSelectionCleared                  // Nothing is selected anymore
	EventOptionsChanged                    // Volume, shuffle or repeat changed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackSelected:
		return "track_selected"
	case EventStateChanged:
		return "state_changed"
	case EventProgress:
		return "progress"
	case EventDurationKnown:
		return "duration_known"
	case EventTrackEnded:
		return "track_ended"
	case EventSelectionCleared:
		return "selection_cleared"
	case EventOptionsChanged:
		return "options_changed"
	default:
		return "unknown"
	}
}

// Event represents a transport event.
type Event struct {
	Type      EventType
	Track     *track.Track // Current track (nil when nothing is selected)
	Transport Transport    // Transport after the change
}
