package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19player/internal/domain/track"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test_key"})
	require.NoError(t, err)
	client.baseURL = server.URL + "/"
	return client
}

func TestTagTopTracks(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "tag.getTopTracks", r.URL.Query().Get("method"))
		assert.Equal(t, "russian rock", r.URL.Query().Get("tag"))
		assert.Equal(t, "test_key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"tracks": {
				"track": [
					{"name": "Мёртвый анархист", "mbid": "mbid1", "duration": "213", "artist": {"name": "Король и Шут"}},
					{"name": "Районы-кварталы", "mbid": "", "duration": 218, "artist": {"name": "Звери"}},
					{"name": "Unknown length", "duration": "", "artist": {"name": "Somebody"}}
				]
			}
		}`)
	})

	ctx := context.Background()
	tracks, err := client.TagTopTracks(ctx, "russian rock", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, "lastfm:mbid1", tracks[0].ID)
	assert.Equal(t, "Мёртвый анархист", tracks[0].Name)
	assert.Equal(t, "Король и Шут", tracks[0].Artist)
	assert.Equal(t, 213.0, tracks[0].Duration)
	assert.Equal(t, track.OriginBuiltIn, tracks[0].Origin)
	assert.False(t, tracks[0].HasSource())

	assert.Equal(t, trackID("", "Звери", "Районы-кварталы"), tracks[1].ID)
	assert.Equal(t, 218.0, tracks[1].Duration)
	assert.Zero(t, tracks[2].Duration)

	cached, err := client.TagTopTracks(ctx, "russian rock", 5)
	require.NoError(t, err)
	assert.Equal(t, tracks, cached)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChartTopTracks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chart.getTopTracks", r.URL.Query().Get("method"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"tracks": {"track": [{"name": "Track 1", "mbid": "m1", "duration": "0", "artist": {"name": "Artist 1"}}]}}`)
	})

	tracks, err := client.ChartTopTracks(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Track 1", tracks[0].Name)
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": 10, "message": "Invalid API key"}`)
	})

	_, err := client.ChartTopTracks(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestTrackID(t *testing.T) {
	assert.Equal(t, "lastfm:abc", trackID("abc", "A", "B"))
	assert.Equal(t, trackID("", "Artist", "Name"), trackID("", "artist", "NAME"))
	assert.NotEqual(t, trackID("", "Artist", "One"), trackID("", "Artist", "Two"))
}
