package intake

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// AllowedTypesConfig represents the configuration for AllowedTypesFilter.
type AllowedTypesConfig struct {
	Types []string `yaml:"types" mapstructure:"types" validate:"required,min=1,dive,required"`
}

// AllowedTypesFilter restricts uploads to a configured set of media types.
type AllowedTypesFilter struct {
	allowed map[string]struct{}
}

// NewAllowedTypesFilter creates a filter that accepts the given media types.
func NewAllowedTypesFilter(types ...string) *AllowedTypesFilter {
	f := &AllowedTypesFilter{}
	f.setTypes(types)
	return f
}

func (f *AllowedTypesFilter) Name() string {
	return "allowed_types_filter"
}

func (f *AllowedTypesFilter) Description() string {
	return "Accepts only the configured media types"
}

func (f *AllowedTypesFilter) ReturnCodes() []string {
	return []string{"type_not_allowed"}
}

func (f *AllowedTypesFilter) ValidateConfig(settings map[string]any) error {
	var config AllowedTypesConfig

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

	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.setTypes(config.Types)
	zlog.Info().Msgf("allowed types filter config: %+v", config)
	return nil
}

func (f *AllowedTypesFilter) Check(ctx context.Context, file File) Result {
	// Not configured: accept all
	if len(f.allowed) == 0 {
		return Accept()
	}
	if _, ok := f.allowed[MediaType(file)]; ok {
		return Accept()
	}
	return Reject("type_not_allowed")
}

func (f *AllowedTypesFilter) setTypes(types []string) {
	f.allowed = make(map[string]struct{}, len(types))
	for _, t := range types {
		f.allowed[normalizeMediaType(t)] = struct{}{}
	}
}

func init() {
	Register("allowed_types_filter", func() Filter {
		return &AllowedTypesFilter{}
	})
}
