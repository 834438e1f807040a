// Package library manages the playlists of a player session.
package library

import (
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/domain/playlist"
	"github.com/osa030/19player/internal/domain/track"
)

// Well-known playlist IDs.
const (
	MainPlaylistID   = "main"
	UploadPlaylistID = "uploaded"
)

// Errors
var (
	ErrProtectedTrack      = errors.New("track is protected")
	ErrTrackNotFound       = errors.New("track not found")
	ErrInvalidPlaylistName = errors.New("invalid playlist name")
	ErrPlaylistNotFound    = errors.New("playlist not found")
	ErrPlaylistsDisabled   = errors.New("playlists are disabled")
)

// Config holds library configuration.
type Config struct {
	MultiPlaylist bool   // Separate upload playlist and user playlists
	MainName      string // Name of the built-in playlist
	UploadName    string // Name of the upload playlist (multi-playlist only)
}

// Upload describes an accepted file to add as a track.
type Upload struct {
	Name   string
	Artist string
	Source string
}

// Library owns every track and playlist of a session.
type Library struct {
	mu sync.RWMutex

	config    Config
	playlists []*playlist.Playlist
	activeID  string
	owners    map[string]*playlist.Playlist // track ID -> containing playlist

	now   func() time.Time
	newID func() string
}

// New creates a library seeded with built-in tracks.
// Built-ins are forced to the builtin origin; duplicate IDs are skipped.
func New(config Config, builtins []track.Track) *Library {
	l := &Library{
		config: config,
		owners: make(map[string]*playlist.Playlist),
		now:    time.Now,
		newID:  uuid.NewString,
	}

	mainList := &playlist.Playlist{ID: MainPlaylistID, Name: config.MainName, CreatedAt: l.now()}
	l.playlists = append(l.playlists, mainList)
	if config.MultiPlaylist {
		l.playlists = append(l.playlists, &playlist.Playlist{
			ID:        UploadPlaylistID,
			Name:      config.UploadName,
			CreatedAt: l.now(),
		})
	}
	l.activeID = MainPlaylistID

	for _, t := range builtins {
		if _, exists := l.owners[t.ID]; exists || t.ID == "" {
			zlog.Warn().Msgf("library: skipped built-in track: id=%q name=%s", t.ID, t.Name)
			continue
		}
		t.Origin = track.OriginBuiltIn
		mainList.Append(t)
		l.owners[t.ID] = mainList
	}

	zlog.Debug().Msgf("library: created: builtins=%d multi_playlist=%t", mainList.Len(), config.MultiPlaylist)
	return l
}

// AddTrack appends an uploaded track to the upload playlist.
func (l *Library) AddTrack(in Upload) track.Track {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := track.Track{
		ID:     l.newID(),
		Name:   in.Name,
		Artist: in.Artist,
		Source: in.Source,
		Origin: track.OriginUploaded,
	}

	target := l.uploadPlaylistLocked()
	target.Append(t)
	l.owners[t.ID] = target

	zlog.Info().Msgf("library: added track: id=%s name=%s playlist=%s", t.ID, t.Name, target.ID)
	return t
}

// RemoveTrack removes an uploaded track from its playlist.
// It returns the removed track and the tracks left in that playlist.
func (l *Library) RemoveTrack(id string) (track.Track, []track.Track, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[id]
	if !ok {
		return track.Track{}, nil, errors.Wrapf(ErrTrackNotFound, "id=%s", id)
	}
	idx := owner.IndexOf(id)
	if idx < 0 {
		return track.Track{}, nil, errors.Wrapf(ErrTrackNotFound, "id=%s", id)
	}
	if owner.Tracks[idx].IsProtected() {
		return track.Track{}, nil, errors.Wrapf(ErrProtectedTrack, "id=%s", id)
	}

	removed, _ := owner.Remove(id)
	delete(l.owners, id)

	zlog.Info().Msgf("library: removed track: id=%s name=%s playlist=%s", removed.ID, removed.Name, owner.ID)
	return removed, owner.Clone().Tracks, nil
}

// CreatePlaylist appends an empty playlist. The name is trimmed.
// The new playlist does not become active.
func (l *Library) CreatePlaylist(name string) (playlist.Playlist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.config.MultiPlaylist {
		return playlist.Playlist{}, ErrPlaylistsDisabled
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return playlist.Playlist{}, ErrInvalidPlaylistName
	}

	p := &playlist.Playlist{ID: l.newID(), Name: name, CreatedAt: l.now()}
	l.playlists = append(l.playlists, p)

	zlog.Info().Msgf("library: created playlist: id=%s name=%s", p.ID, p.Name)
	return p.Clone(), nil
}

// SelectPlaylist makes the playlist active.
func (l *Library) SelectPlaylist(id string) (playlist.Playlist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.findLocked(id)
	if p == nil {
		return playlist.Playlist{}, errors.Wrapf(ErrPlaylistNotFound, "id=%s", id)
	}
	l.activeID = p.ID

	zlog.Debug().Msgf("library: active playlist: id=%s name=%s", p.ID, p.Name)
	return p.Clone(), nil
}

// SetDuration records a duration reported by the device.
func (l *Library) SetDuration(id string, seconds float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[id]
	if !ok {
		return false
	}
	idx := owner.IndexOf(id)
	if idx < 0 {
		return false
	}
	owner.Tracks[idx].Duration = seconds
	return true
}

// Track returns a track by ID.
func (l *Library) Track(id string) (track.Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	owner, ok := l.owners[id]
	if !ok {
		return track.Track{}, false
	}
	idx := owner.IndexOf(id)
	if idx < 0 {
		return track.Track{}, false
	}
	return owner.Tracks[idx], true
}

// ActiveTracks returns the tracks of the active playlist in order.
func (l *Library) ActiveTracks() []track.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if p := l.findLocked(l.activeID); p != nil {
		return p.Clone().Tracks
	}
	return nil
}

// Active returns a copy of the active playlist.
func (l *Library) Active() playlist.Playlist {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if p := l.findLocked(l.activeID); p != nil {
		return p.Clone()
	}
	return playlist.Playlist{}
}

// Playlists returns copies of all playlists in creation order.
func (l *Library) Playlists() []playlist.Playlist {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]playlist.Playlist, 0, len(l.playlists))
	for _, p := range l.playlists {
		result = append(result, p.Clone())
	}
	return result
}

// Uploaded returns every uploaded track across playlists.
func (l *Library) Uploaded() []track.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []track.Track
	for _, p := range l.playlists {
		for _, t := range p.Tracks {
			if t.Origin == track.OriginUploaded {
				result = append(result, t)
			}
		}
	}
	return result
}

// MultiPlaylist reports whether playlists can be created.
func (l *Library) MultiPlaylist() bool {
	return l.config.MultiPlaylist
}

func (l *Library) uploadPlaylistLocked() *playlist.Playlist {
	if l.config.MultiPlaylist {
		if p := l.findLocked(UploadPlaylistID); p != nil {
			return p
		}
	}
	return l.findLocked(MainPlaylistID)
}

func (l *Library) findLocked(id string) *playlist.Playlist {
	for _, p := range l.playlists {
		if p.ID == id {
			return p
		}
	}
	return nil
}
