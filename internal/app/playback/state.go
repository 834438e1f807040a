// Package playback provides the transport controller: selection, play state and navigation.
package playback

// State represents the playback state derived from the transport.
type State int

const (
	StateIdle    State = iota // No track selected
	StatePlaying              // Track selected and playing
	StatePaused               // Track selected, not playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
