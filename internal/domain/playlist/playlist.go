// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/osa030/19player/internal/domain/track"
)

// Playlist is a named, ordered collection of tracks.
// Track order defines next/previous traversal.
type Playlist struct {
	ID        string        // Playlist ID
	Name      string        // Display name
	Tracks    []track.Track // Tracks in navigation order
	CreatedAt time.Time     // Creation time
}

// Len returns the number of tracks.
func (p Playlist) Len() int {
	return len(p.Tracks)
}

// TrackIDs returns all track IDs in the playlist.
func (p Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// IndexOf returns the position of a track, or -1 if absent.
func (p Playlist) IndexOf(trackID string) int {
	for i, t := range p.Tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

// Append adds a track to the end of the playlist.
func (p *Playlist) Append(t track.Track) {
	p.Tracks = append(p.Tracks, t)
}

// Remove deletes a track and keeps the relative order of the rest.
// Returns false if the track is not in the playlist.
func (p *Playlist) Remove(trackID string) (track.Track, bool) {
	idx := p.IndexOf(trackID)
	if idx < 0 {
		return track.Track{}, false
	}
	removed := p.Tracks[idx]
	remaining := make([]track.Track, 0, len(p.Tracks)-1)
	remaining = append(remaining, p.Tracks[:idx]...)
	remaining = append(remaining, p.Tracks[idx+1:]...)
	p.Tracks = remaining
	return removed, true
}

// TotalDuration returns the total known duration of all tracks in seconds.
func (p Playlist) TotalDuration() float64 {
	var total float64
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}

// Clone returns a copy that shares no track slice with p.
func (p Playlist) Clone() Playlist {
	c := p
	c.Tracks = make([]track.Track, len(p.Tracks))
	copy(c.Tracks, p.Tracks)
	return c
}
