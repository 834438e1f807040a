package session

import (
	"math/rand"

	"github.com/osa030/19player/internal/app/device"
	"github.com/osa030/19player/internal/app/intake"
	"github.com/osa030/19player/internal/app/source"
	"github.com/osa030/19player/internal/domain/track"
	"github.com/osa030/19player/internal/infra/config"
)

// Options configures the behavior of a session.
type Options struct {
	MultiPlaylist      bool   // Upload playlist and user playlists; false keeps one flat list
	MainPlaylistName   string // Name of the built-in playlist
	UploadPlaylistName string // Name of the upload playlist
	DefaultVolume      int    // Initial volume (0-100)
	UploadArtist       string // Artist label of uploaded tracks
	Builtins           []track.Track
}

// Deps holds the collaborators shared by every session.
type Deps struct {
	Device  device.Config
	Sources source.Store      // Upload storage (nil: in-memory)
	Intake  *intake.Chain     // Upload filters (nil: audio type only)
	NewRand func() *rand.Rand // Shuffle source per session (nil: randomly seeded)
}

// OptionsFromConfig builds session options from the player configuration.
func OptionsFromConfig(cfg *config.Config, builtins []track.Track) Options {
	return Options{
		MultiPlaylist:      !cfg.Player.Flat,
		MainPlaylistName:   cfg.Player.MainPlaylistName,
		UploadPlaylistName: cfg.Player.UploadPlaylistName,
		DefaultVolume:      cfg.Player.DefaultVolume,
		UploadArtist:       cfg.Player.UploadArtist,
		Builtins:           builtins,
	}
}
