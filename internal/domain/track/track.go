// Package track provides the Track domain entity.
package track

import (
	"path/filepath"
	"strings"
)

// Origin tells built-in catalog tracks apart from user uploads.
type Origin string

const (
	OriginBuiltIn  Origin = "builtin"  // Catalog track, cannot be removed
	OriginUploaded Origin = "uploaded" // User supplied track, removable
)

// Track represents a single playable audio item.
type Track struct {
	ID       string  // Unique within a library
	Name     string  // Display name
	Artist   string  // Artist label (optional)
	Source   string  // Source reference (store ref or file path), empty when sourceless
	Duration float64 // Duration in seconds, 0 until known
	Origin   Origin  // Built-in or uploaded
}

// IsProtected reports whether the track must never be removed.
func (t *Track) IsProtected() bool {
	return t.Origin == OriginBuiltIn
}

// HasSource reports whether the track refers to real audio bytes.
func (t *Track) HasSource() bool {
	return strings.TrimSpace(t.Source) != ""
}

// NameFromFilename derives a display name from an uploaded file name
// by dropping its final extension ("song.mp3" -> "song").
func NameFromFilename(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return filename
	}
	ext := filepath.Ext(base)
	if ext == base {
		// Dot files like ".mp3" keep their name
		return base
	}
	return strings.TrimSuffix(base, ext)
}
