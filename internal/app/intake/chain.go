package intake

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// FilterConfig represents the configuration of one filter.
type FilterConfig struct {
	Enabled  bool
	Settings map[string]any
}

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig builds a chain from configuration.
// The audio type filter always runs first; other enabled filters follow in name order.
func NewChainFromConfig(configs map[string]FilterConfig) (*Chain, error) {
	c := NewChain()

	audio := NewAudioTypeFilter()
	if cfg, ok := configs[audio.Name()]; ok {
		if err := audio.ValidateConfig(cfg.Settings); err != nil {
			return nil, errors.Wrapf(err, "filter %s", audio.Name())
		}
	}
	c.Add(audio)

	names := make([]string, 0, len(configs))
	for name := range configs {
		if name != audio.Name() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := configs[name]
		if !cfg.Enabled {
			continue
		}
		factory, exists := registry[name]
		if !exists {
			return nil, errors.Newf("unknown filter: %s", name)
		}
		f := factory()
		if err := f.ValidateConfig(cfg.Settings); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		c.Add(f)
	}

	zlog.Debug().Msgf("intake: chain built: filters=%d", len(c.filters))
	return c, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the file.
func (c *Chain) Execute(ctx context.Context, f File) Result {
	for _, filter := range c.filters {
		result := filter.Check(ctx, f)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
