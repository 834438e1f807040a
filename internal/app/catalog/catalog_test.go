package catalog

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19player/internal/domain/track"
	"github.com/osa030/19player/internal/infra/config"
)

type fakeSpotify struct {
	playlist    []track.Track
	search      []track.Track
	err         error
	playlistURL string
	query       string
	calls       int
}

func (f *fakeSpotify) GetPlaylistTracks(ctx context.Context, playlistURL string, max int) ([]track.Track, error) {
	f.calls++
	f.playlistURL = playlistURL
	return f.playlist, f.err
}

func (f *fakeSpotify) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	f.calls++
	f.query = query
	return f.search, f.err
}

type fakeLastFM struct {
	tagged []track.Track
	chart  []track.Track
	err    error
	tag    string
	limit  int
}

func (f *fakeLastFM) TagTopTracks(ctx context.Context, tag string, limit int) ([]track.Track, error) {
	f.tag, f.limit = tag, limit
	return f.tagged, f.err
}

func (f *fakeLastFM) ChartTopTracks(ctx context.Context, limit int) ([]track.Track, error) {
	f.limit = limit
	return f.chart, f.err
}

type fakeProvider struct {
	tracks []track.Track
	err    error
}

func (p *fakeProvider) Tracks(ctx context.Context) ([]track.Track, error) { return p.tracks, p.err }
func (p *fakeProvider) Name() string                                      { return "fake" }

func staticSettings() map[string]any {
	return map[string]any{
		"tracks": []any{
			map[string]any{"id": "1", "name": "Мёртвый анархист", "artist": "Король и Шут", "duration": 213},
			map[string]any{"id": "2", "name": "Кукла колдуна", "artist": "Король и Шут", "duration": 204.5},
		},
	}
}

func TestStaticProvider(t *testing.T) {
	p, err := NewStaticProvider(staticSettings())
	require.NoError(t, err)
	assert.Equal(t, "static", p.Name())

	tracks, err := p.Tracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "builtin1", tracks[0].ID)
	assert.Equal(t, 213.0, tracks[0].Duration)
	assert.Equal(t, 204.5, tracks[1].Duration)
	assert.Equal(t, track.OriginBuiltIn, tracks[1].Origin)
}

func TestStaticProvider_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
	}{
		{name: "no tracks", settings: map[string]any{}},
		{name: "missing name", settings: map[string]any{"tracks": []any{map[string]any{"id": "1"}}}},
		{name: "negative duration", settings: map[string]any{"tracks": []any{
			map[string]any{"id": "1", "name": "x", "duration": -1},
		}}},
		{name: "bad type", settings: map[string]any{"tracks": "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStaticProvider(tt.settings)
			assert.Error(t, err)
		})
	}
}

func TestSpotifyProvider(t *testing.T) {
	t.Run("playlist", func(t *testing.T) {
		client := &fakeSpotify{playlist: []track.Track{{ID: "spotify:a"}, {ID: "spotify:b"}}}
		p, err := NewSpotifyProvider(client, map[string]any{"playlist_url": "spotify:playlist:xyz"})
		require.NoError(t, err)

		tracks, err := p.Tracks(context.Background())
		require.NoError(t, err)
		assert.Len(t, tracks, 2)
		assert.Equal(t, "spotify:playlist:xyz", client.playlistURL)

		// Cached
		_, err = p.Tracks(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("search with limit", func(t *testing.T) {
		client := &fakeSpotify{search: []track.Track{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
		p, err := NewSpotifyProvider(client, map[string]any{"query": "phonk", "limit": 2})
		require.NoError(t, err)

		tracks, err := p.Tracks(context.Background())
		require.NoError(t, err)
		assert.Len(t, tracks, 2)
		assert.Equal(t, "phonk", client.query)
	})

	t.Run("error", func(t *testing.T) {
		client := &fakeSpotify{err: errors.New("boom")}
		p, err := NewSpotifyProvider(client, map[string]any{"query": "phonk"})
		require.NoError(t, err)
		_, err = p.Tracks(context.Background())
		assert.Error(t, err)
	})

	t.Run("requires playlist or query", func(t *testing.T) {
		_, err := NewSpotifyProvider(&fakeSpotify{}, map[string]any{})
		assert.Error(t, err)
	})

	t.Run("requires client", func(t *testing.T) {
		_, err := NewSpotifyProvider(nil, map[string]any{"query": "x"})
		assert.Error(t, err)
	})
}

func TestProviderChain_Tracks(t *testing.T) {
	t.Run("dedupes and skips failures", func(t *testing.T) {
		chain := NewProviderChain([]ProviderWithMetadata{
			{Provider: &fakeProvider{tracks: []track.Track{{ID: "a"}, {ID: "b"}}}, DisplayName: "first"},
			{Provider: &fakeProvider{err: errors.New("down")}, DisplayName: "broken"},
			{Provider: &fakeProvider{tracks: []track.Track{{ID: "b"}, {ID: "c", Origin: track.OriginUploaded}, {ID: ""}}}, DisplayName: "second"},
		})

		tracks, err := chain.Tracks(context.Background())
		require.NoError(t, err)
		require.Len(t, tracks, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{tracks[0].ID, tracks[1].ID, tracks[2].ID})
		assert.Equal(t, track.OriginBuiltIn, tracks[2].Origin)
	})

	t.Run("all failed", func(t *testing.T) {
		chain := NewProviderChain([]ProviderWithMetadata{
			{Provider: &fakeProvider{err: errors.New("down")}},
		})
		_, err := chain.Tracks(context.Background())
		assert.Error(t, err)
	})

	t.Run("empty chain", func(t *testing.T) {
		tracks, err := NewProviderChain(nil).Tracks(context.Background())
		require.NoError(t, err)
		assert.Empty(t, tracks)
	})
}

func TestNewProviderChainFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Catalog.Providers = []config.CatalogProviderConfig{
		{Type: "static", DisplayName: "demo", Settings: staticSettings()},
		{Type: "spotify", DisplayName: "phonk", Settings: map[string]any{"query": "phonk"}},
	}

	cfg.Catalog.Providers = append(cfg.Catalog.Providers,
		config.CatalogProviderConfig{Type: "lastfm", DisplayName: "chart", Settings: map[string]any{"limit": 5}},
	)

	chain, err := NewProviderChainFromConfig(cfg, Clients{
		Spotify: &fakeSpotify{search: []track.Track{{ID: "spotify:x"}}},
		LastFM:  &fakeLastFM{chart: []track.Track{{ID: "lastfm:y"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, chain.Len())

	tracks, err := chain.Tracks(context.Background())
	require.NoError(t, err)
	assert.Len(t, tracks, 4)

	_, err = NewProviderChainFromConfig(cfg, Clients{})
	assert.Error(t, err)

	cfg.Catalog.Providers = []config.CatalogProviderConfig{{Type: "youtube"}}
	_, err = NewProviderChainFromConfig(cfg, Clients{})
	assert.Error(t, err)
}

func TestLastFMProvider(t *testing.T) {
	t.Run("tag chart", func(t *testing.T) {
		client := &fakeLastFM{tagged: []track.Track{{ID: "lastfm:a"}}}
		p, err := NewLastFMProvider(client, map[string]any{"tag": "russian rock"})
		require.NoError(t, err)
		assert.Equal(t, "lastfm", p.Name())

		tracks, err := p.Tracks(context.Background())
		require.NoError(t, err)
		assert.Len(t, tracks, 1)
		assert.Equal(t, "russian rock", client.tag)
		assert.Equal(t, 20, client.limit)
	})

	t.Run("global chart", func(t *testing.T) {
		client := &fakeLastFM{chart: []track.Track{{ID: "lastfm:a"}, {ID: "lastfm:b"}}}
		p, err := NewLastFMProvider(client, map[string]any{"limit": 2})
		require.NoError(t, err)

		tracks, err := p.Tracks(context.Background())
		require.NoError(t, err)
		assert.Len(t, tracks, 2)
		assert.Equal(t, 2, client.limit)
	})

	t.Run("client error", func(t *testing.T) {
		p, err := NewLastFMProvider(&fakeLastFM{err: errors.New("boom")}, map[string]any{"tag": "x"})
		require.NoError(t, err)
		_, err = p.Tracks(context.Background())
		assert.Error(t, err)
	})

	t.Run("invalid limit", func(t *testing.T) {
		_, err := NewLastFMProvider(&fakeLastFM{}, map[string]any{"limit": 1000})
		assert.Error(t, err)
	})

	t.Run("nil client", func(t *testing.T) {
		_, err := NewLastFMProvider(nil, map[string]any{})
		assert.Error(t, err)
	})
}
