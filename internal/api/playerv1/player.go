// Package playerv1 defines the messages of the player.v1 API.
//
// Messages are plain structs carried by the JSON codec in playerv1connect.
package playerv1

// Track origins.
const (
	OriginBuiltIn  = "builtin"
	OriginUploaded = "uploaded"
)

// Track is one entry of a playlist.
type Track struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Artist    string  `json:"artist,omitempty"`
	Duration  float64 `json:"duration"` // Seconds, 0 until known
	Origin    string  `json:"origin"`
	Protected bool    `json:"protected"`
	HasSource bool    `json:"has_source"`
}

// PlaylistSummary describes a playlist without its tracks.
type PlaylistSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TrackCount    int32   `json:"track_count"`
	TotalDuration float64 `json:"total_duration"`
	Active        bool    `json:"active"`
}

// State is the snapshot a client renders.
type State struct {
	SessionID      string            `json:"session_id"`
	Status         string            `json:"status"` // idle, playing or paused
	MultiPlaylist  bool              `json:"multi_playlist"`
	ActivePlaylist *PlaylistSummary  `json:"active_playlist,omitempty"`
	Playlists      []PlaylistSummary `json:"playlists"`
	Tracks         []Track           `json:"tracks"` // Active playlist
	CurrentTrack   *Track            `json:"current_track,omitempty"`
	Playing        bool              `json:"playing"`
	Elapsed        float64           `json:"elapsed"`
	Duration       float64           `json:"duration"`
	Volume         int32             `json:"volume"`
	Shuffle        bool              `json:"shuffle"`
	Repeat         bool              `json:"repeat"`
}

// Notification types.
const (
	NotificationInitialState     = "initial_state"
	NotificationTrackSelected    = "track_selected"
	NotificationStateChanged     = "state_changed"
	NotificationProgress         = "progress"
	NotificationDurationKnown    = "duration_known"
	NotificationTrackEnded       = "track_ended"
	NotificationSelectionCleared = "selection_cleared"
	NotificationOptionsChanged   = "options_changed"
	NotificationLibraryChanged   = "library_changed"
	NotificationSessionClosed    = "session_closed"
)

// Notification is one message of the Watch stream.
type Notification struct {
	Type       string `json:"type"`
	SequenceNo uint64 `json:"sequence_no"`
	State      *State `json:"state,omitempty"`
}

// CreateSessionRequest starts a new session.
type CreateSessionRequest struct{}

// CreateSessionResponse returns the new session and its initial state.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	State     *State `json:"state"`
}

// SessionRequest addresses a session without arguments.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// StateResponse returns the state after an operation.
type StateResponse struct {
	State *State `json:"state"`
}

// CloseSessionResponse acknowledges a closed session.
type CloseSessionResponse struct{}

// TogglePlayPauseResponse returns the new playing flag.
type TogglePlayPauseResponse struct {
	Playing bool   `json:"playing"`
	State   *State `json:"state"`
}

// SelectTrackRequest selects a track by ID.
type SelectTrackRequest struct {
	SessionID string `json:"session_id"`
	TrackID   string `json:"track_id"`
}

// SeekRequest jumps to a position.
type SeekRequest struct {
	SessionID string  `json:"session_id"`
	Seconds   float64 `json:"seconds"`
}

// SetVolumeRequest sets the volume (0-100, clamped).
type SetVolumeRequest struct {
	SessionID string `json:"session_id"`
	Volume    int32  `json:"volume"`
}

// SetFlagRequest toggles shuffle or repeat.
type SetFlagRequest struct {
	SessionID string `json:"session_id"`
	Enabled   bool   `json:"enabled"`
}

// UploadFile is one uploaded file. Data is base64 in JSON.
type UploadFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data"`
}

// UploadTracksRequest uploads zero or more files.
type UploadTracksRequest struct {
	SessionID string       `json:"session_id"`
	Files     []UploadFile `json:"files"`
}

// Rejection reports a skipped file.
type Rejection struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// UploadTracksResponse lists accepted tracks and skipped files.
type UploadTracksResponse struct {
	Added    []Track     `json:"added"`
	Rejected []Rejection `json:"rejected,omitempty"`
	State    *State      `json:"state"`
}

// RemoveTrackRequest removes an uploaded track.
type RemoveTrackRequest struct {
	SessionID string `json:"session_id"`
	TrackID   string `json:"track_id"`
}

// CreatePlaylistRequest creates an empty playlist.
type CreatePlaylistRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// CreatePlaylistResponse returns the created playlist, if any.
type CreatePlaylistResponse struct {
	Playlist *PlaylistSummary `json:"playlist,omitempty"`
	State    *State           `json:"state"`
}

// SelectPlaylistRequest makes a playlist active.
type SelectPlaylistRequest struct {
	SessionID  string `json:"session_id"`
	PlaylistID string `json:"playlist_id"`
}

// WatchRequest subscribes to a session's notifications.
type WatchRequest struct {
	SessionID string `json:"session_id"`
}
