package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 16, cfg.Server.MaxSessions)
	assert.Zero(t, cfg.IdleTimeout())
	assert.False(t, cfg.Player.Flat)
	assert.Equal(t, 85, cfg.Player.DefaultVolume)
	assert.Equal(t, "Uploaded track", cfg.Player.UploadArtist)
	assert.Equal(t, SourcelessSimulate, cfg.Player.Sourceless)
	assert.Equal(t, time.Second, cfg.Tick())
	assert.Equal(t, OutputNone, cfg.Audio.Output)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 100*time.Millisecond, cfg.BufferDuration())
	assert.Equal(t, 500*time.Millisecond, cfg.ProgressInterval())
	assert.Equal(t, StorageMemory, cfg.Storage.Type)
	assert.Equal(t, "19player", cfg.Storage.Minio.Bucket)
	assert.Equal(t, "JP", cfg.Spotify.Market)
	assert.False(t, cfg.UsesSpotify())
	assert.False(t, cfg.UsesLastFM())
	assert.Equal(t, 10*time.Second, cfg.LastFMTimeout())
}

func TestParse_Full(t *testing.T) {
	data := []byte(`
server:
  addr: ":9090"
  token: secret
  idle_min: 30
player:
  flat: true
  default_volume: 40
  sourceless: tone
  tick_ms: 250
audio:
  output: speaker
  sample_rate: 48000
catalog:
  providers:
    - type: static
      display_name: demo
      settings:
        tracks:
          - id: "1"
            name: Районы-кварталы
            artist: Звери
            duration: 218
intake:
  filters:
    allowed_types_filter:
      enabled: true
      settings:
        types: [audio/mpeg]
storage:
  type: minio
  minio:
    endpoint: localhost:9000
    access_key: key
    secret_key: secret
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.Server.Token)
	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout())
	assert.True(t, cfg.Player.Flat)
	assert.Equal(t, 40, cfg.Player.DefaultVolume)
	assert.Equal(t, 250*time.Millisecond, cfg.Tick())
	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	require.Len(t, cfg.Catalog.Providers, 1)
	assert.Equal(t, "static", cfg.Catalog.Providers[0].Type)
	assert.True(t, cfg.IsFilterEnabled("allowed_types_filter"))
	assert.False(t, cfg.IsFilterEnabled("audio_type_filter"))
	assert.Equal(t, "uploads/", cfg.Storage.Minio.Prefix)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg, err := Parse([]byte("{}"))
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "volume out of range",
			mutate:  func(c *Config) { c.Player.DefaultVolume = 101 },
			wantErr: true,
			errMsg:  "DefaultVolume",
		},
		{
			name:    "unknown sourceless policy",
			mutate:  func(c *Config) { c.Player.Sourceless = "loud" },
			wantErr: true,
			errMsg:  "Sourceless",
		},
		{
			name:    "tone without speaker",
			mutate:  func(c *Config) { c.Player.Sourceless = SourcelessTone },
			wantErr: true,
			errMsg:  "requires audio output",
		},
		{
			name: "tone with speaker",
			mutate: func(c *Config) {
				c.Player.Sourceless = SourcelessTone
				c.Audio.Output = OutputSpeaker
			},
		},
		{
			name: "spotify provider without credentials",
			mutate: func(c *Config) {
				c.Catalog.Providers = []CatalogProviderConfig{
					{Type: "spotify", DisplayName: "phonk", Settings: map[string]any{"query": "phonk"}},
				}
			},
			wantErr: true,
			errMsg:  "spotify credentials",
		},
		{
			name: "spotify provider with credentials",
			mutate: func(c *Config) {
				c.Catalog.Providers = []CatalogProviderConfig{
					{Type: "spotify", DisplayName: "phonk", Settings: map[string]any{"query": "phonk"}},
				}
				c.Spotify.ClientID = "id"
				c.Spotify.ClientSecret = "secret"
				c.Spotify.RefreshToken = "refresh"
			},
		},
		{
			name: "unknown provider type",
			mutate: func(c *Config) {
				c.Catalog.Providers = []CatalogProviderConfig{
					{Type: "youtube", DisplayName: "x", Settings: map[string]any{}},
				}
			},
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name: "lastfm provider without api key",
			mutate: func(c *Config) {
				c.Catalog.Providers = []CatalogProviderConfig{
					{Type: "lastfm", DisplayName: "chart", Settings: map[string]any{"tag": "rock"}},
				}
			},
			wantErr: true,
			errMsg:  "api_key",
		},
		{
			name: "lastfm provider with api key",
			mutate: func(c *Config) {
				c.Catalog.Providers = []CatalogProviderConfig{
					{Type: "lastfm", DisplayName: "chart", Settings: map[string]any{"tag": "rock"}},
				}
				c.LastFM.APIKey = "key"
			},
		},
		{
			name:    "minio without endpoint",
			mutate:  func(c *Config) { c.Storage.Type = StorageMinio },
			wantErr: true,
			errMsg:  "minio",
		},
		{
			name:    "invalid market",
			mutate:  func(c *Config) { c.Spotify.Market = "JPN" },
			wantErr: true,
			errMsg:  "Market",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  token: from-file
storage:
  type: minio
  minio:
    endpoint: localhost:9000
`), 0o600))

	t.Setenv("PLAYER_TOKEN", "from-env")
	t.Setenv("MINIO_ACCESS_KEY", "access")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("LASTFM_API_KEY", "lastfm-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Server.Token)
	assert.Equal(t, "access", cfg.Storage.Minio.AccessKey)
	assert.Equal(t, "secret", cfg.Storage.Minio.SecretKey)
	assert.Equal(t, "lastfm-key", cfg.LastFM.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("server: [unclosed"))
	assert.Error(t, err)
}
