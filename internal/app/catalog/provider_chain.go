package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/domain/track"
)

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// ProviderChain loads tracks from every provider in order.
type ProviderChain struct {
	providers []ProviderWithMetadata
}

// NewProviderChain creates a new provider chain.
func NewProviderChain(providers []ProviderWithMetadata) *ProviderChain {
	return &ProviderChain{
		providers: providers,
	}
}

// Tracks concatenates the tracks of all providers.
// A failing provider is skipped; tracks whose ID was already seen are dropped.
func (c *ProviderChain) Tracks(ctx context.Context) ([]track.Track, error) {
	if len(c.providers) == 0 {
		return []track.Track{}, nil
	}

	all := make([]track.Track, 0)
	seen := make(map[string]bool)
	failed := 0

	for i, pm := range c.providers {
		zlog.Debug().Msgf("loading catalog provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		tracks, err := pm.Provider.Tracks(ctx)
		if err != nil {
			failed++
			zlog.Warn().Msgf("catalog provider failed, skipping: provider=%s error=%v", pm.DisplayName, err)
			continue
		}

		added := 0
		for _, t := range tracks {
			if t.ID == "" || seen[t.ID] {
				zlog.Debug().Msgf("catalog: dropped duplicate track: provider=%s id=%s", pm.DisplayName, t.ID)
				continue
			}
			seen[t.ID] = true
			t.Origin = track.OriginBuiltIn
			all = append(all, t)
			added++
		}

		zlog.Info().Msgf("catalog provider returned tracks: provider=%s count=%d total_so_far=%d",
			pm.DisplayName, added, len(all))
	}

	if failed == len(c.providers) {
		return nil, errors.New("all catalog providers failed")
	}
	return all, nil
}

// Name returns the chain name.
func (c *ProviderChain) Name() string {
	return "provider_chain"
}

// Len returns the number of providers.
func (c *ProviderChain) Len() int {
	return len(c.providers)
}
