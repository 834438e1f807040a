package catalog

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/infra/config"
)

// NewProviderChainFromConfig creates a provider chain from configuration.
// Clients not required by a configured provider may be nil.
func NewProviderChainFromConfig(cfg *config.Config, clients Clients) (*ProviderChain, error) {
	var providers []ProviderWithMetadata

	for i, pcfg := range cfg.Catalog.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating catalog provider: index=%d type=%s", i+1, pcfg.Type)
		switch pcfg.Type {
		case "static":
			provider, err = NewStaticProvider(pcfg.Settings)

		case "spotify":
			if clients.Spotify == nil {
				err = errors.New("spotify client is not configured")
				break
			}
			provider, err = NewSpotifyProvider(clients.Spotify, pcfg.Settings)

		case "lastfm":
			if clients.LastFM == nil {
				err = errors.New("last.fm client is not configured")
				break
			}
			provider, err = NewLastFMProvider(clients.LastFM, pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: pcfg.DisplayName,
		})

		zlog.Info().Msgf("registered catalog provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	return NewProviderChain(providers), nil
}
