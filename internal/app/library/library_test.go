package library

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19player/internal/domain/track"
)

func builtins() []track.Track {
	return []track.Track{
		{ID: "builtin1", Name: "Мёртвый анархист", Artist: "Король и Шут", Duration: 213},
		{ID: "builtin2", Name: "Кукла колдуна", Artist: "Король и Шут", Duration: 204},
	}
}

func newTestLibrary(t *testing.T, multi bool) *Library {
	t.Helper()
	l := New(Config{MultiPlaylist: multi, MainName: "Main", UploadName: "Uploaded"}, builtins())
	n := 0
	l.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return l
}

func TestNew(t *testing.T) {
	t.Run("multi playlist", func(t *testing.T) {
		l := newTestLibrary(t, true)
		lists := l.Playlists()
		require.Len(t, lists, 2)
		assert.Equal(t, MainPlaylistID, lists[0].ID)
		assert.Equal(t, UploadPlaylistID, lists[1].ID)
		assert.Equal(t, MainPlaylistID, l.Active().ID)
		assert.Len(t, l.ActiveTracks(), 2)
	})

	t.Run("flat", func(t *testing.T) {
		l := newTestLibrary(t, false)
		require.Len(t, l.Playlists(), 1)
		assert.False(t, l.MultiPlaylist())
	})

	t.Run("forces builtin origin and skips duplicates", func(t *testing.T) {
		in := append(builtins(), track.Track{ID: "builtin1", Name: "dup"}, track.Track{Name: "no id"})
		in[0].Origin = track.OriginUploaded
		l := New(Config{MultiPlaylist: true}, in)

		tracks := l.ActiveTracks()
		require.Len(t, tracks, 2)
		assert.Equal(t, track.OriginBuiltIn, tracks[0].Origin)
		assert.Equal(t, "Мёртвый анархист", tracks[0].Name)
	})
}

func TestLibrary_AddTrack(t *testing.T) {
	t.Run("multi playlist goes to upload playlist", func(t *testing.T) {
		l := newTestLibrary(t, true)
		added := l.AddTrack(Upload{Name: "song", Artist: "Uploaded track", Source: "mem:1"})

		assert.Equal(t, "id-1", added.ID)
		assert.Equal(t, "song", added.Name)
		assert.Equal(t, track.OriginUploaded, added.Origin)
		assert.Equal(t, 0.0, added.Duration)

		lists := l.Playlists()
		assert.Equal(t, []string{"id-1"}, lists[1].TrackIDs())
		assert.Len(t, l.ActiveTracks(), 2)
	})

	t.Run("flat goes to main playlist", func(t *testing.T) {
		l := newTestLibrary(t, false)
		l.AddTrack(Upload{Name: "song"})
		assert.Equal(t, []string{"builtin1", "builtin2", "id-1"}, l.Active().TrackIDs())
	})

	t.Run("ids are unique", func(t *testing.T) {
		l := New(Config{MultiPlaylist: true}, nil)
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			added := l.AddTrack(Upload{Name: "same"})
			assert.False(t, seen[added.ID])
			seen[added.ID] = true
		}
	})
}

func TestLibrary_RemoveTrack(t *testing.T) {
	t.Run("protected track is kept", func(t *testing.T) {
		l := newTestLibrary(t, true)
		before := l.Playlists()

		_, _, err := l.RemoveTrack("builtin1")
		assert.ErrorIs(t, err, ErrProtectedTrack)
		assert.Equal(t, before, l.Playlists())
	})

	t.Run("unknown track", func(t *testing.T) {
		l := newTestLibrary(t, true)
		_, _, err := l.RemoveTrack("missing")
		assert.ErrorIs(t, err, ErrTrackNotFound)
	})

	t.Run("uploaded track preserves order", func(t *testing.T) {
		l := newTestLibrary(t, true)
		l.AddTrack(Upload{Name: "a"})
		l.AddTrack(Upload{Name: "b"})
		l.AddTrack(Upload{Name: "c"})

		removed, remaining, err := l.RemoveTrack("id-2")
		require.NoError(t, err)
		assert.Equal(t, "b", removed.Name)
		require.Len(t, remaining, 2)
		assert.Equal(t, "id-1", remaining[0].ID)
		assert.Equal(t, "id-3", remaining[1].ID)

		_, ok := l.Track("id-2")
		assert.False(t, ok)

		_, _, err = l.RemoveTrack("id-2")
		assert.ErrorIs(t, err, ErrTrackNotFound)
	})

	t.Run("last track leaves empty playlist", func(t *testing.T) {
		l := newTestLibrary(t, true)
		l.AddTrack(Upload{Name: "only"})
		_, remaining, err := l.RemoveTrack("id-1")
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})
}

func TestLibrary_CreatePlaylist(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		want    string
	}{
		{name: "empty", input: "", wantErr: ErrInvalidPlaylistName},
		{name: "whitespace", input: "  ", wantErr: ErrInvalidPlaylistName},
		{name: "valid", input: "Favorites", want: "Favorites"},
		{name: "trimmed", input: "  Road trip ", want: "Road trip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLibrary(t, true)
			p, err := l.CreatePlaylist(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, l.Playlists(), 2)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name)
			assert.Empty(t, p.Tracks)

			lists := l.Playlists()
			require.Len(t, lists, 3)
			assert.Equal(t, p.ID, lists[2].ID)
			assert.Equal(t, MainPlaylistID, l.Active().ID)
		})
	}
}

func TestLibrary_CreatePlaylistFlat(t *testing.T) {
	l := newTestLibrary(t, false)
	_, err := l.CreatePlaylist("Favorites")
	assert.ErrorIs(t, err, ErrPlaylistsDisabled)
	assert.Len(t, l.Playlists(), 1)
}

func TestLibrary_SelectPlaylist(t *testing.T) {
	l := newTestLibrary(t, true)
	l.AddTrack(Upload{Name: "song"})

	p, err := l.SelectPlaylist(UploadPlaylistID)
	require.NoError(t, err)
	assert.Equal(t, UploadPlaylistID, p.ID)
	assert.Equal(t, []string{"id-1"}, l.Active().TrackIDs())

	_, err = l.SelectPlaylist("missing")
	assert.ErrorIs(t, err, ErrPlaylistNotFound)
	assert.Equal(t, UploadPlaylistID, l.Active().ID)
}

func TestLibrary_SetDuration(t *testing.T) {
	l := newTestLibrary(t, true)
	added := l.AddTrack(Upload{Name: "song"})

	assert.True(t, l.SetDuration(added.ID, 245))
	got, ok := l.Track(added.ID)
	require.True(t, ok)
	assert.Equal(t, 245.0, got.Duration)

	assert.False(t, l.SetDuration("missing", 1))
}

func TestLibrary_Uploaded(t *testing.T) {
	l := newTestLibrary(t, true)
	l.AddTrack(Upload{Name: "a"})
	l.AddTrack(Upload{Name: "b"})

	uploaded := l.Uploaded()
	require.Len(t, uploaded, 2)
	for _, u := range uploaded {
		assert.Equal(t, track.OriginUploaded, u.Origin)
	}
}

func TestLibrary_CopiesAreIsolated(t *testing.T) {
	l := newTestLibrary(t, true)
	tracks := l.ActiveTracks()
	tracks[0].Name = "changed"

	got, ok := l.Track("builtin1")
	require.True(t, ok)
	assert.Equal(t, "Мёртвый анархист", got.Name)
}
