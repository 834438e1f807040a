package session

import (
	"bytes"
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playerv1 "github.com/osa030/19player/internal/api/playerv1"
	"github.com/osa030/19player/internal/app/device"
	"github.com/osa030/19player/internal/app/intake"
	"github.com/osa030/19player/internal/app/library"
	"github.com/osa030/19player/internal/app/source"
	"github.com/osa030/19player/internal/domain/track"
)

type manualHandle struct {
	mu      sync.Mutex
	track   track.Track
	sink    device.Sink
	playing bool
	closed  bool
}

func (h *manualHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = true
	return nil
}

func (h *manualHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = false
	return nil
}

func (h *manualHandle) Seek(float64) error      { return nil }
func (h *manualHandle) SetVolume(float64) error { return nil }

func (h *manualHandle) isPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *manualHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// emit delivers an event the way a backend goroutine would.
func (h *manualHandle) emit(ev device.Event) {
	h.sink(ev)
}

func (h *manualHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

type manualBackend struct {
	mu      sync.Mutex
	handles []*manualHandle
}

func (b *manualBackend) Name() string { return "manual" }

func (b *manualBackend) Open(_ context.Context, t track.Track, sink device.Sink) (device.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := &manualHandle{track: t, sink: sink}
	b.handles = append(b.handles, h)
	return h, nil
}

func (b *manualBackend) last() *manualHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.handles) == 0 {
		return nil
	}
	return b.handles[len(b.handles)-1]
}

type failingStore struct{}

func (failingStore) Scheme() string { return "fail" }
func (failingStore) Put(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("disk full")
}
func (failingStore) Open(context.Context, string) (*source.Object, error) { return nil, source.ErrNotFound }
func (failingStore) Release(context.Context, string) error                { return nil }

type recordingStream struct {
	mu       sync.Mutex
	received []*playerv1.Notification
}

func (s *recordingStream) Send(n *playerv1.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, n)
	return nil
}

func (s *recordingStream) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, 0, len(s.received))
	for _, n := range s.received {
		result = append(result, n.Type)
	}
	return result
}

func (s *recordingStream) first() *playerv1.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.received) == 0 {
		return nil
	}
	return s.received[0]
}

func builtins() []track.Track {
	return []track.Track{
		{ID: "b1", Name: "Мёртвый анархист", Artist: "Король и Шут", Duration: 213},
		{ID: "b2", Name: "Районы-кварталы", Artist: "Звери", Duration: 218},
		{ID: "b3", Name: "Группа крови", Artist: "Кино", Duration: 285},
	}
}

func testOptions(tracks []track.Track) Options {
	return Options{
		MultiPlaylist:      true,
		MainPlaylistName:   "Main playlist",
		UploadPlaylistName: "Uploaded music",
		DefaultVolume:      85,
		UploadArtist:       "Uploaded track",
		Builtins:           tracks,
	}
}

type fixture struct {
	session *Session
	backend *manualBackend
	store   *source.MemoryStore
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	backend := &manualBackend{}
	store := source.NewMemoryStore()
	s := New("s1", opts, Deps{
		Device:  device.Config{Real: backend, Sourceless: backend},
		Sources: store,
		NewRand: func() *rand.Rand { return rand.New(rand.NewSource(1)) },
	})
	t.Cleanup(s.Close)
	return &fixture{session: s, backend: backend, store: store}
}

func mp3(name string) intake.File {
	return intake.File{Name: name, ContentType: "audio/mpeg", Data: []byte("ID3 fake")}
}

func TestNew_SelectsFirstTrackPaused(t *testing.T) {
	f := newFixture(t, testOptions(builtins()))

	snap := f.session.Snapshot()
	assert.Equal(t, "s1", snap.SessionID)
	assert.True(t, snap.MultiPlaylist)
	require.NotNil(t, snap.Transport.Track)
	assert.Equal(t, "b1", snap.Transport.Track.ID)
	assert.False(t, snap.Transport.Playing)
	assert.Equal(t, 213.0, snap.Transport.Duration)
	assert.Equal(t, 85, snap.Transport.Volume)
	assert.Equal(t, "paused", snap.ToState().Status)

	assert.Equal(t, library.MainPlaylistID, snap.ActivePlaylist.ID)
	assert.Equal(t, 3, snap.ActivePlaylist.TrackCount)
	require.Len(t, snap.Playlists, 2)
	require.Len(t, snap.Tracks, 3)
	for _, tv := range snap.Tracks {
		assert.True(t, tv.Protected)
	}
}

func TestNew_Empty(t *testing.T) {
	f := newFixture(t, testOptions(nil))

	snap := f.session.Snapshot()
	assert.Nil(t, snap.Transport.Track)
	assert.Empty(t, snap.Tracks)
	assert.Equal(t, "idle", snap.ToState().Status)

	_, err := f.session.TogglePlayPause()
	assert.NoError(t, err)
	assert.NoError(t, f.session.Next())
	assert.NoError(t, f.session.Previous())
	assert.NoError(t, f.session.Seek(10))
}

func TestSession_UploadSelectsWhenNothingSelected(t *testing.T) {
	f := newFixture(t, testOptions(nil))
	require.NoError(t, f.session.SelectPlaylist(library.UploadPlaylistID))

	result, err := f.session.Upload(context.Background(), []intake.File{mp3("song.mp3")})
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	assert.Empty(t, result.Rejected)

	added := result.Added[0]
	assert.Equal(t, "song", added.Name)
	assert.Equal(t, "Uploaded track", added.Artist)
	assert.Equal(t, track.OriginUploaded, added.Origin)
	assert.Equal(t, 1, f.store.Len())

	snap := f.session.Snapshot()
	require.NotNil(t, snap.Transport.Track)
	assert.Equal(t, added.ID, snap.Transport.Track.ID)
	assert.False(t, snap.Transport.Playing)
	require.Len(t, snap.Tracks, 1)
	assert.False(t, snap.Tracks[0].Protected)
}

func TestSession_UploadKeepsSelection(t *testing.T) {
	f := newFixture(t, testOptions(builtins()))

	result, err := f.session.Upload(context.Background(), []intake.File{mp3("a.mp3"), mp3("b.flac")})
	require.NoError(t, err)
	require.Len(t, result.Added, 2)

	snap := f.session.Snapshot()
	assert.Equal(t, "b1", snap.Transport.Track.ID)
	for _, p := range snap.Playlists {
		if p.ID == library.UploadPlaylistID {
			assert.Equal(t, 2, p.TrackCount)
		}
	}
}

func TestSession_UploadRejections(t *testing.T) {
	f := newFixture(t, testOptions(nil))

	result, err := f.session.Upload(context.Background(), []intake.File{
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
		mp3("ok.mp3"),
	})
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "notes.txt", result.Rejected[0].Name)
	assert.Equal(t, "not_audio", result.Rejected[0].Code)
}

func TestSession_UploadStorageFailure(t *testing.T) {
	s := New("s1", testOptions(nil), Deps{Sources: failingStore{}})
	defer s.Close()

	result, err := s.Upload(context.Background(), []intake.File{mp3("song.mp3")})
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, StorageFailedCode, result.Rejected[0].Code)
}

func TestSession_UploadCancelled(t *testing.T) {
	f := newFixture(t, testOptions(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.session.Upload(ctx, []intake.File{mp3("song.mp3")})
	assert.Error(t, err)
	assert.Empty(t, result.Added)
}

func TestSession_RemoveTrack(t *testing.T) {
	t.Run("builtin is protected", func(t *testing.T) {
		f := newFixture(t, testOptions(builtins()))
		before := f.session.Snapshot()

		require.NoError(t, f.session.RemoveTrack(context.Background(), "b1"))
		assert.Equal(t, before.Tracks, f.session.Snapshot().Tracks)
		assert.Equal(t, before.Transport, f.session.Snapshot().Transport)
	})

	t.Run("unknown is ignored", func(t *testing.T) {
		f := newFixture(t, testOptions(builtins()))
		assert.NoError(t, f.session.RemoveTrack(context.Background(), "missing"))
	})

	t.Run("current moves to first remaining", func(t *testing.T) {
		f := newFixture(t, testOptions(nil))
		require.NoError(t, f.session.SelectPlaylist(library.UploadPlaylistID))
		result, err := f.session.Upload(context.Background(), []intake.File{mp3("a.mp3"), mp3("b.mp3"), mp3("c.mp3")})
		require.NoError(t, err)
		a, b := result.Added[0], result.Added[1]

		require.NoError(t, f.session.SelectTrack(b.ID))
		require.NoError(t, f.session.RemoveTrack(context.Background(), b.ID))

		snap := f.session.Snapshot()
		assert.Equal(t, a.ID, snap.Transport.Track.ID)
		assert.Len(t, snap.Tracks, 2)
		assert.Equal(t, 2, f.store.Len())
	})

	t.Run("last track clears selection", func(t *testing.T) {
		f := newFixture(t, testOptions(nil))
		result, err := f.session.Upload(context.Background(), []intake.File{mp3("only.mp3")})
		require.NoError(t, err)
		_, err = f.session.TogglePlayPause()
		require.NoError(t, err)

		require.NoError(t, f.session.RemoveTrack(context.Background(), result.Added[0].ID))

		snap := f.session.Snapshot()
		assert.Nil(t, snap.Transport.Track)
		assert.False(t, snap.Transport.Playing)
		assert.Zero(t, f.store.Len())
	})
}

func TestSession_CreatePlaylist(t *testing.T) {
	f := newFixture(t, testOptions(builtins()))

	_, ok, err := f.session.CreatePlaylist("")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = f.session.CreatePlaylist("  ")
	require.NoError(t, err)
	assert.False(t, ok)

	p, ok, err := f.session.CreatePlaylist("Favorites")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Favorites", p.Name)
	assert.Zero(t, p.TrackCount)

	snap := f.session.Snapshot()
	require.Len(t, snap.Playlists, 3)
	assert.Equal(t, library.MainPlaylistID, snap.ActivePlaylist.ID)
}

func TestSession_FlatMode(t *testing.T) {
	opts := testOptions(builtins())
	opts.MultiPlaylist = false
	f := newFixture(t, opts)

	_, ok, err := f.session.CreatePlaylist("Favorites")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.session.Upload(context.Background(), []intake.File{mp3("song.mp3")})
	require.NoError(t, err)

	snap := f.session.Snapshot()
	assert.False(t, snap.MultiPlaylist)
	assert.Len(t, snap.Playlists, 1)
	assert.Len(t, snap.Tracks, 4)
}

func TestSession_Transport(t *testing.T) {
	f := newFixture(t, testOptions(builtins()))

	require.NoError(t, f.session.Next())
	snap := f.session.Snapshot()
	assert.Equal(t, "b2", snap.Transport.Track.ID)
	assert.True(t, snap.Transport.Playing)
	assert.True(t, f.backend.last().isPlaying())
	assert.Equal(t, "playing", snap.ToState().Status)

	playing, err := f.session.TogglePlayPause()
	require.NoError(t, err)
	assert.False(t, playing)

	require.NoError(t, f.session.Previous())
	require.NoError(t, f.session.Previous())
	assert.Equal(t, "b3", f.session.Snapshot().Transport.Track.ID)

	require.NoError(t, f.session.Seek(42))
	assert.Equal(t, 42.0, f.session.Snapshot().Transport.Elapsed)

	level, err := f.session.SetVolume(150)
	require.NoError(t, err)
	assert.Equal(t, 100, level)

	require.NoError(t, f.session.SetShuffle(true))
	require.NoError(t, f.session.SetRepeat(true))
	snap = f.session.Snapshot()
	assert.True(t, snap.Transport.Shuffle)
	assert.True(t, snap.Transport.Repeat)

	require.NoError(t, f.session.SelectTrack("missing"))
	assert.Equal(t, "b3", f.session.Snapshot().Transport.Track.ID)
}

func TestSession_DeviceEvents(t *testing.T) {
	f := newFixture(t, testOptions(nil))
	result, err := f.session.Upload(context.Background(), []intake.File{mp3("a.mp3"), mp3("b.mp3")})
	require.NoError(t, err)
	require.NoError(t, f.session.SelectPlaylist(library.UploadPlaylistID))
	_, err = f.session.TogglePlayPause()
	require.NoError(t, err)

	h := f.backend.last()
	require.Equal(t, result.Added[0].ID, h.track.ID)

	h.emit(device.Event{Type: device.EventMetadata, Duration: 180})
	require.Eventually(t, func() bool {
		return f.session.Snapshot().Tracks[0].Duration == 180
	}, time.Second, 5*time.Millisecond)

	h.emit(device.Event{Type: device.EventProgress, Elapsed: 50})
	assert.Equal(t, 50.0, f.session.Snapshot().Transport.Elapsed)

	h.emit(device.Event{Type: device.EventEnded})
	snap := f.session.Snapshot()
	assert.Equal(t, result.Added[1].ID, snap.Transport.Track.ID)
	assert.True(t, snap.Transport.Playing)
	assert.Zero(t, snap.Transport.Elapsed)

	// The old handle no longer reaches the transport
	h.emit(device.Event{Type: device.EventProgress, Elapsed: 99})
	assert.Zero(t, f.session.Snapshot().Transport.Elapsed)
}

func TestSession_Watch(t *testing.T) {
	f := newFixture(t, testOptions(builtins()))
	stream := &recordingStream{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- f.session.Watch(ctx, stream) }()

	require.Eventually(t, func() bool { return f.session.Watchers() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return stream.first() != nil }, time.Second, 5*time.Millisecond)

	initial := stream.first()
	assert.Equal(t, playerv1.NotificationInitialState, initial.Type)
	require.NotNil(t, initial.State.CurrentTrack)
	assert.Equal(t, "b1", initial.State.CurrentTrack.ID)

	require.NoError(t, f.session.Next())
	require.Eventually(t, func() bool {
		return contains(stream.types(), playerv1.NotificationTrackSelected)
	}, time.Second, 5*time.Millisecond)

	_, _, err := f.session.CreatePlaylist("Favorites")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return contains(stream.types(), playerv1.NotificationLibraryChanged)
	}, time.Second, 5*time.Millisecond)

	f.session.Close()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not return after close")
	}
	types := stream.types()
	assert.Equal(t, playerv1.NotificationSessionClosed, types[len(types)-1])
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSession_Close(t *testing.T) {
	logs := &syncBuffer{}
	prev := zlog.Logger
	zlog.Logger = zerolog.New(logs).Level(zerolog.DebugLevel)
	t.Cleanup(func() { zlog.Logger = prev })

	f := newFixture(t, testOptions(builtins()))
	_, err := f.session.Upload(context.Background(), []intake.File{mp3("a.mp3"), mp3("b.mp3")})
	require.NoError(t, err)
	require.Equal(t, 2, f.store.Len())

	f.session.Close()
	f.session.Close()

	select {
	case <-f.session.Done():
	default:
		t.Fatal("done not closed")
	}
	assert.Contains(t, logs.String(), "releasing device: id=s1 track_id=b1 volume=0.85")
	assert.Zero(t, f.store.Len())
	assert.True(t, f.backend.last().isClosed())

	assert.ErrorIs(t, f.session.Next(), ErrSessionClosed)
	_, err = f.session.TogglePlayPause()
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = f.session.Upload(context.Background(), []intake.File{mp3("c.mp3")})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, f.session.Watch(context.Background(), &recordingStream{}), ErrSessionClosed)
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
