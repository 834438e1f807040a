// Package catalog provides the built-in track catalog strategies.
package catalog

import (
	"context"

	"github.com/osa030/19player/internal/domain/track"
)

// Provider is the interface for built-in track providers.
// Different implementations load the catalog from different places
// (e.g., configuration, a Spotify playlist).
type Provider interface {
	// Tracks returns the provider's tracks in order.
	Tracks(ctx context.Context) ([]track.Track, error)

	// Name returns the provider name (used in config).
	Name() string
}

// SpotifyClient defines the interface for Spotify operations needed by catalog providers.
type SpotifyClient interface {
	GetPlaylistTracks(ctx context.Context, playlistURL string, max int) ([]track.Track, error)
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)
}

// LastFMClient defines the chart lookups needed by the lastfm provider.
type LastFMClient interface {
	TagTopTracks(ctx context.Context, tag string, limit int) ([]track.Track, error)
	ChartTopTracks(ctx context.Context, limit int) ([]track.Track, error)
}

// Clients holds the API clients providers may need. Unused clients may be nil.
type Clients struct {
	Spotify SpotifyClient
	LastFM  LastFMClient
}
