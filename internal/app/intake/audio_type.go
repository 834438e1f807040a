package intake

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// AudioTypeConfig represents the configuration for AudioTypeFilter.
type AudioTypeConfig struct {
	Sniff bool `yaml:"sniff" mapstructure:"sniff" default:"true"`
}

// AudioTypeFilter accepts files whose media type is audio/*.
type AudioTypeFilter struct {
	config AudioTypeConfig
}

// NewAudioTypeFilter creates a new audio type filter with sniffing enabled.
func NewAudioTypeFilter() *AudioTypeFilter {
	return &AudioTypeFilter{config: AudioTypeConfig{Sniff: true}}
}

func (f *AudioTypeFilter) Name() string {
	return "audio_type_filter"
}

func (f *AudioTypeFilter) Description() string {
	return "Accepts only files with an audio/* media type"
}

func (f *AudioTypeFilter) ReturnCodes() []string {
	return []string{"not_audio"}
}

func (f *AudioTypeFilter) ValidateConfig(settings map[string]any) error {
	var config AudioTypeConfig

	// Set defaults first so an explicit false survives decoding
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &config,
		TagName: "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.config = config
	zlog.Info().Msgf("audio type filter config: %+v", config)
	return nil
}

func (f *AudioTypeFilter) Check(ctx context.Context, file File) Result {
	declared := normalizeMediaType(file.ContentType)
	if isAudio(declared) {
		return Accept()
	}

	// Browsers and CLIs often send no type or a generic one
	if f.config.Sniff && (declared == "" || declared == genericMediaType) {
		if SniffAudioType(file.Data) != "" {
			return Accept()
		}
	}
	return Reject("not_audio")
}

func init() {
	Register("audio_type_filter", func() Filter {
		return NewAudioTypeFilter()
	})
}
