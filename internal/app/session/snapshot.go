package session

import (
	playerv1 "github.com/osa030/19player/internal/api/playerv1"
	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/domain/playlist"
	"github.com/osa030/19player/internal/domain/track"
)

// TrackView is a track as shown in the active list.
type TrackView struct {
	track.Track
	Protected bool
}

// PlaylistSummary describes a playlist without its tracks.
type PlaylistSummary struct {
	ID            string
	Name          string
	TrackCount    int
	TotalDuration float64
	Active        bool
}

// Snapshot is everything a client needs to render the session.
type Snapshot struct {
	SessionID      string
	MultiPlaylist  bool
	ActivePlaylist PlaylistSummary
	Playlists      []PlaylistSummary
	Tracks         []TrackView // Active playlist in order
	Transport      playback.Transport
}

func summarize(p playlist.Playlist, active bool) PlaylistSummary {
	return PlaylistSummary{
		ID:            p.ID,
		Name:          p.Name,
		TrackCount:    p.Len(),
		TotalDuration: p.TotalDuration(),
		Active:        active,
	}
}

// ToState converts the snapshot to its API message.
func (s Snapshot) ToState() *playerv1.State {
	active := s.ActivePlaylist.toMessage()
	st := &playerv1.State{
		SessionID:      s.SessionID,
		Status:         s.Transport.State().String(),
		MultiPlaylist:  s.MultiPlaylist,
		ActivePlaylist: &active,
		Playlists:      make([]playerv1.PlaylistSummary, 0, len(s.Playlists)),
		Tracks:         make([]playerv1.Track, 0, len(s.Tracks)),
		Playing:        s.Transport.Playing,
		Elapsed:        s.Transport.Elapsed,
		Duration:       s.Transport.Duration,
		Volume:         int32(s.Transport.Volume),
		Shuffle:        s.Transport.Shuffle,
		Repeat:         s.Transport.Repeat,
	}
	for _, p := range s.Playlists {
		st.Playlists = append(st.Playlists, p.toMessage())
	}
	for _, t := range s.Tracks {
		st.Tracks = append(st.Tracks, TrackMessage(t.Track))
	}
	if s.Transport.Track != nil {
		current := TrackMessage(*s.Transport.Track)
		st.CurrentTrack = &current
	}
	return st
}

func (p PlaylistSummary) toMessage() playerv1.PlaylistSummary {
	return playerv1.PlaylistSummary{
		ID:            p.ID,
		Name:          p.Name,
		TrackCount:    int32(p.TrackCount),
		TotalDuration: p.TotalDuration,
		Active:        p.Active,
	}
}

// TrackMessage converts a track to its API message.
func TrackMessage(t track.Track) playerv1.Track {
	origin := playerv1.OriginUploaded
	if t.Origin == track.OriginBuiltIn {
		origin = playerv1.OriginBuiltIn
	}
	return playerv1.Track{
		ID:        t.ID,
		Name:      t.Name,
		Artist:    t.Artist,
		Duration:  t.Duration,
		Origin:    origin,
		Protected: t.IsProtected(),
		HasSource: t.HasSource(),
	}
}

// PlaylistMessage converts a playlist summary to its API message.
func PlaylistMessage(p PlaylistSummary) *playerv1.PlaylistSummary {
	m := p.toMessage()
	return &m
}
