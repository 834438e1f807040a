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

// StaticTrackConfig is one configured track.
type StaticTrackConfig struct {
	ID       string  `yaml:"id" mapstructure:"id" validate:"required"`
	Name     string  `yaml:"name" mapstructure:"name" validate:"required"`
	Artist   string  `yaml:"artist" mapstructure:"artist"`
	Duration float64 `yaml:"duration" mapstructure:"duration" validate:"gte=0"`
	Source   string  `yaml:"source" mapstructure:"source"` // Optional file path
}

type StaticProviderConfig struct {
	IDPrefix string              `yaml:"id_prefix" mapstructure:"id_prefix" default:"builtin"`
	Tracks   []StaticTrackConfig `yaml:"tracks" mapstructure:"tracks" validate:"required,min=1,dive"`
}

// StaticProvider provides the tracks listed in configuration.
type StaticProvider struct {
	config *StaticProviderConfig
}

// NewStaticProvider creates a new StaticProvider.
func NewStaticProvider(settings map[string]any) (*StaticProvider, error) {
	var config StaticProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("static provider config: tracks=%d id_prefix=%s", len(config.Tracks), config.IDPrefix)
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("static provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}
	return &StaticProvider{config: &config}, nil
}

// Tracks returns the configured tracks.
func (p *StaticProvider) Tracks(ctx context.Context) ([]track.Track, error) {
	tracks := make([]track.Track, 0, len(p.config.Tracks))
	for _, tc := range p.config.Tracks {
		tracks = append(tracks, track.Track{
			ID:       p.config.IDPrefix + tc.ID,
			Name:     tc.Name,
			Artist:   tc.Artist,
			Duration: tc.Duration,
			Source:   tc.Source,
			Origin:   track.OriginBuiltIn,
		})
	}
	return tracks, nil
}

// Name returns the provider name.
func (p *StaticProvider) Name() string {
	return "static"
}
