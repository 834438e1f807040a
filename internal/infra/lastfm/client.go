// Package lastfm provides a client for the Last.fm chart API.
package lastfm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/domain/track"
)

// IDPrefix is prepended to the IDs of tracks returned by the client.
const IDPrefix = "lastfm:"

const defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Chart results by method and tag
	cache   map[string][]track.Track
	cacheMu sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// apiError represents an error response from the Last.fm API.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// topTracksResponse is shared by tag.getTopTracks and chart.getTopTracks.
type topTracksResponse struct {
	Tracks struct {
		Track []struct {
			Name     string  `json:"name"`
			MBID     string  `json:"mbid"`
			Duration seconds `json:"duration"`
			Artist   struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"track"`
	} `json:"tracks"`
}

// seconds accepts both quoted and bare numbers. Malformed values decode as zero.
type seconds float64

func (s *seconds) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(strings.Trim(string(data), `"`), 64)
	if err != nil || v < 0 {
		v = 0
	}
	*s = seconds(v)
	return nil
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      make(map[string][]track.Track),
	}, nil
}

// TagTopTracks returns the top tracks for a tag as sourceless built-in tracks.
// Reference: https://www.last.fm/api/show/tag.getTopTracks
func (c *Client) TagTopTracks(ctx context.Context, tag string, limit int) ([]track.Track, error) {
	if tag == "" {
		return nil, errors.New("tag name is required")
	}
	params := url.Values{}
	params.Set("method", "tag.getTopTracks")
	params.Set("tag", tag)
	return c.topTracks(ctx, params, limit)
}

// ChartTopTracks returns the global chart as sourceless built-in tracks.
// Reference: https://www.last.fm/api/show/chart.getTopTracks
func (c *Client) ChartTopTracks(ctx context.Context, limit int) ([]track.Track, error) {
	params := url.Values{}
	params.Set("method", "chart.getTopTracks")
	return c.topTracks(ctx, params, limit)
}

func (c *Client) topTracks(ctx context.Context, params url.Values, limit int) ([]track.Track, error) {
	limit = min(max(limit, 1), 100)
	params.Set("limit", strconv.Itoa(limit))

	cacheKey := params.Encode()
	c.cacheMu.RLock()
	if tracks, ok := c.cache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("lastfm: using cached chart: %s", cacheKey)
		return tracks, nil
	}
	c.cacheMu.RUnlock()

	var response topTracksResponse
	if err := c.call(ctx, params, &response); err != nil {
		return nil, err
	}

	tracks := make([]track.Track, 0, len(response.Tracks.Track))
	for _, t := range response.Tracks.Track {
		if t.Name == "" {
			continue
		}
		tracks = append(tracks, track.Track{
			ID:       trackID(t.MBID, t.Artist.Name, t.Name),
			Name:     t.Name,
			Artist:   t.Artist.Name,
			Duration: float64(t.Duration),
			Origin:   track.OriginBuiltIn,
		})
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = tracks
	c.cacheMu.Unlock()
	zlog.Debug().Msgf("lastfm: cached chart: %s (count: %d)", cacheKey, len(tracks))

	return tracks, nil
}

// call performs a GET request and decodes the JSON body into out.
func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		return errors.Errorf("last.fm API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("last.fm API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}

// trackID prefers the MusicBrainz ID and falls back to a stable hash of artist and name.
func trackID(mbid, artist, name string) string {
	if mbid != "" {
		return IDPrefix + mbid
	}
	key := strings.ToLower(artist) + "\x00" + strings.ToLower(name)
	return IDPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
