package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/domain/track"
)

type SpotifyProviderConfig struct {
	PlaylistURL string `yaml:"playlist_url" mapstructure:"playlist_url" validate:"required_without=Query"`
	Query       string `yaml:"query" mapstructure:"query" validate:"required_without=PlaylistURL"`
	Limit       int    `yaml:"limit" mapstructure:"limit" default:"50" validate:"gte=1,lte=500"`
}

// SpotifyProvider provides sourceless tracks from a Spotify playlist or search.
// Results are fetched once and cached.
type SpotifyProvider struct {
	spotify SpotifyClient
	config  *SpotifyProviderConfig
	cache   []track.Track
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(spotify SpotifyClient, settings map[string]any) (*SpotifyProvider, error) {
	if spotify == nil {
		return nil, errors.New("spotify client is not configured")
	}

	var config SpotifyProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("spotify provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("spotify provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}
	return &SpotifyProvider{spotify: spotify, config: &config}, nil
}

// Tracks returns the playlist tracks, or the search results when no playlist is set.
func (p *SpotifyProvider) Tracks(ctx context.Context) ([]track.Track, error) {
	if p.cache != nil {
		return p.cache, nil
	}

	var (
		tracks []track.Track
		err    error
	)
	if p.config.PlaylistURL != "" {
		tracks, err = p.spotify.GetPlaylistTracks(ctx, p.config.PlaylistURL, p.config.Limit)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist tracks")
		}
	} else {
		tracks, err = p.spotify.Search(ctx, p.config.Query, p.config.Limit)
		if err != nil {
			return nil, errors.Wrap(err, "failed to search tracks")
		}
	}

	if len(tracks) > p.config.Limit {
		tracks = tracks[:p.config.Limit]
	}
	p.cache = tracks
	return tracks, nil
}

// Name returns the provider name.
func (p *SpotifyProvider) Name() string {
	return "spotify"
}
