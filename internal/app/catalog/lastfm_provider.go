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

type LastFMProviderConfig struct {
	Tag   string `yaml:"tag" mapstructure:"tag"` // Empty uses the global chart
	Limit int    `yaml:"limit" mapstructure:"limit" default:"20" validate:"gte=1,lte=100"`
}

// LastFMProvider provides sourceless tracks from a Last.fm tag chart or the global chart.
type LastFMProvider struct {
	lastfm LastFMClient
	config *LastFMProviderConfig
}

// NewLastFMProvider creates a new LastFMProvider.
func NewLastFMProvider(lastfm LastFMClient, settings map[string]any) (*LastFMProvider, error) {
	if lastfm == nil {
		return nil, errors.New("last.fm client is not configured")
	}

	var config LastFMProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("lastfm provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &LastFMProvider{lastfm: lastfm, config: &config}, nil
}

// Tracks returns the chart tracks.
func (p *LastFMProvider) Tracks(ctx context.Context) ([]track.Track, error) {
	if p.config.Tag == "" {
		tracks, err := p.lastfm.ChartTopTracks(ctx, p.config.Limit)
		return tracks, errors.Wrap(err, "failed to get chart top tracks")
	}
	tracks, err := p.lastfm.TagTopTracks(ctx, p.config.Tag, p.config.Limit)
	return tracks, errors.Wrapf(err, "failed to get top tracks for tag %q", p.config.Tag)
}

// Name returns the provider name.
func (p *LastFMProvider) Name() string {
	return "lastfm"
}
