// Package state provides session lifecycle state management.
package state

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseActive  Phase = iota // Session accepts operations
	PhaseClosing              // Close in progress, operations are rejected
	PhaseClosed               // Resources released
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseClosing:
		return "closing"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}
