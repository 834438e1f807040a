// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Player  PlayerConfig  `yaml:"player"`
	Audio   AudioConfig   `yaml:"audio"`
	Catalog CatalogConfig `yaml:"catalog"`
	Intake  IntakeConfig  `yaml:"intake"`
	Storage StorageConfig `yaml:"storage"`
	Spotify SpotifyConfig `yaml:"spotify"`
	LastFM  LastFMConfig  `yaml:"lastfm"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr        string      `yaml:"addr" default:":8080"`
	Token       string      `yaml:"token"` // Empty disables auth
	MaxSessions int         `yaml:"max_sessions" default:"16" validate:"gte=1,lte=1024"`
	IdleMin     int         `yaml:"idle_min" validate:"gte=0"` // Close sessions idle this long (0: never)
	Hooks       HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// Sourceless track policies.
const (
	SourcelessSimulate = "simulate"
	SourcelessTone     = "tone"
	SourcelessOff      = "off"
)

// PlayerConfig represents per-session player configuration.
type PlayerConfig struct {
	Flat               bool   `yaml:"flat"` // Single list instead of playlists
	MainPlaylistName   string `yaml:"main_playlist_name" default:"Main playlist"`
	UploadPlaylistName string `yaml:"upload_playlist_name" default:"Uploaded music"`
	DefaultVolume      int    `yaml:"default_volume" default:"85" validate:"gte=0,lte=100"`
	UploadArtist       string `yaml:"upload_artist" default:"Uploaded track"`
	Sourceless         string `yaml:"sourceless" default:"simulate" validate:"oneof=simulate tone off"`
	TickMs             int    `yaml:"tick_ms" default:"1000" validate:"gte=10,lte=60000"`
}

// Audio outputs.
const (
	OutputNone    = "none"
	OutputSpeaker = "speaker"
)

// AudioConfig represents the audio output configuration.
type AudioConfig struct {
	Output     string  `yaml:"output" default:"none" validate:"oneof=none speaker"`
	SampleRate int     `yaml:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs   int     `yaml:"buffer_ms" default:"100" validate:"gte=10,lte=1000"`
	ProgressMs int     `yaml:"progress_ms" default:"500" validate:"gte=50,lte=10000"`
	ToneHz     float64 `yaml:"tone_hz" default:"440" validate:"gt=0,lte=20000"`
}

// CatalogConfig represents the built-in catalog configuration.
type CatalogConfig struct {
	Providers []CatalogProviderConfig `yaml:"providers" validate:"dive"`
}

// CatalogProviderConfig represents a single catalog provider configuration.
type CatalogProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=static spotify lastfm"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings" validate:"required"`
}

// IntakeConfig represents upload filter configuration.
type IntakeConfig struct {
	Filters map[string]FilterConfig `yaml:"filters"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Storage types.
const (
	StorageMemory = "memory"
	StorageMinio  = "minio"
)

// StorageConfig represents the upload storage configuration.
type StorageConfig struct {
	Type  string      `yaml:"type" default:"memory" validate:"oneof=memory minio"`
	Minio MinioConfig `yaml:"minio"`
}

// MinioConfig represents MinIO configuration.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket" default:"19player"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix" default:"uploads/"`
}

// SpotifyConfig represents Spotify API configuration.
// Credentials are only required when a spotify catalog provider is configured.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// LastFMConfig represents Last.fm API configuration.
// The API key is only required when a lastfm catalog provider is configured.
type LastFMConfig struct {
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec" default:"10" validate:"gte=1,lte=60"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PLAYER_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.Storage.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Storage.Minio.SecretKey = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.UsesSpotify() {
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" || c.Spotify.RefreshToken == "" {
			return errors.New("spotify credentials are required by the spotify catalog provider")
		}
	}

	if c.UsesLastFM() && c.LastFM.APIKey == "" {
		return errors.New("last.fm api_key is required by the lastfm catalog provider")
	}

	if c.Storage.Type == StorageMinio {
		m := c.Storage.Minio
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" {
			return errors.New("minio endpoint, access_key and secret_key are required for minio storage")
		}
	}

	if c.Player.Sourceless == SourcelessTone && c.Audio.Output != OutputSpeaker {
		return errors.Newf("sourceless policy %q requires audio output %q", SourcelessTone, OutputSpeaker)
	}

	return nil
}

// UsesSpotify reports whether any catalog provider needs the Spotify API.
func (c *Config) UsesSpotify() bool {
	return c.usesProvider("spotify")
}

// UsesLastFM reports whether any catalog provider needs the Last.fm API.
func (c *Config) UsesLastFM() bool {
	return c.usesProvider("lastfm")
}

func (c *Config) usesProvider(kind string) bool {
	for _, p := range c.Catalog.Providers {
		if p.Type == kind {
			return true
		}
	}
	return false
}

// IsFilterEnabled checks if an intake filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Intake.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// Tick returns the simulated playback tick interval.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.Player.TickMs) * time.Millisecond
}

// BufferDuration returns the speaker buffer length.
func (c *Config) BufferDuration() time.Duration {
	return time.Duration(c.Audio.BufferMs) * time.Millisecond
}

// ProgressInterval returns the speaker progress polling interval.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Audio.ProgressMs) * time.Millisecond
}

// LastFMTimeout returns the Last.fm request timeout.
func (c *Config) LastFMTimeout() time.Duration {
	return time.Duration(c.LastFM.TimeoutSec) * time.Second
}

// IdleTimeout returns how long a session may stay idle before it is closed (0: never).
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Server.IdleMin) * time.Minute
}
