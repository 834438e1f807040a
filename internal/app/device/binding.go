package device

import (
	"context"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/domain/track"
)

// Config holds binding configuration.
type Config struct {
	Real       Backend // Used for tracks with a source (nil: such tracks stay silent)
	Sourceless Backend // Used for tracks without a source (nil: such tracks stay silent)
}

// subscription forwards events of one handle until it is cancelled.
type subscription struct {
	mu     sync.Mutex
	closed bool
	sink   Sink
}

func (s *subscription) deliver(ev Event) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.sink(ev)
}

func (s *subscription) cancel() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Binding keeps exactly one backend handle in sync with the transport.
// Device failures are logged and swallowed: callers see requested intent only.
type Binding struct {
	mu sync.Mutex

	config Config

	handle  Handle
	sub     *subscription
	trackID string
	volume  float64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBinding creates a new device binding.
func NewBinding(config Config) *Binding {
	ctx, cancel := context.WithCancel(context.Background())
	return &Binding{
		config: config,
		volume: 1.0,
		ctx:    ctx,
		cancel: cancel,
	}
}

// BackendFor returns the playback strategy used for the track, or nil.
func (b *Binding) BackendFor(t track.Track) Backend {
	if t.HasSource() {
		return b.config.Real
	}
	return b.config.Sourceless
}

// Load binds a new track, tearing down the previous handle and its subscription first.
// The new handle starts paused with the last volume applied.
func (b *Binding) Load(t track.Track, sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.unloadLocked()

	backend := b.BackendFor(t)
	if backend == nil {
		zlog.Debug().Msgf("device: no backend for track: id=%s has_source=%t", t.ID, t.HasSource())
		return
	}

	sub := &subscription{sink: sink}
	h, err := backend.Open(b.ctx, t, sub.deliver)
	if err != nil {
		zlog.Warn().Err(err).Msgf("device: failed to open track: id=%s backend=%s", t.ID, backend.Name())
		return
	}
	if err := h.SetVolume(b.volume); err != nil {
		zlog.Warn().Err(err).Msgf("device: failed to apply volume: id=%s", t.ID)
	}

	b.handle = h
	b.sub = sub
	b.trackID = t.ID
	zlog.Debug().Msgf("device: bound track: id=%s backend=%s", t.ID, backend.Name())
}

// Unload releases the current handle, if any.
func (b *Binding) Unload() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unloadLocked()
}

func (b *Binding) unloadLocked() {
	if b.sub != nil {
		b.sub.cancel()
		b.sub = nil
	}
	if b.handle != nil {
		if err := b.handle.Close(); err != nil {
			zlog.Warn().Err(err).Msgf("device: failed to close handle: id=%s", b.trackID)
		}
		b.handle = nil
	}
	b.trackID = ""
}

// Play asks the bound handle to play.
func (b *Binding) Play() {
	b.do("play", func(h Handle) error { return h.Play() })
}

// Pause asks the bound handle to pause.
func (b *Binding) Pause() {
	b.do("pause", func(h Handle) error { return h.Pause() })
}

// Seek moves the bound handle to the position in seconds.
func (b *Binding) Seek(seconds float64) {
	b.do("seek", func(h Handle) error { return h.Seek(seconds) })
}

// SetVolume applies the level (0.0 - 1.0) now and to every later binding.
func (b *Binding) SetVolume(level float64) {
	b.mu.Lock()
	b.volume = level
	b.mu.Unlock()
	b.do("set_volume", func(h Handle) error { return h.SetVolume(level) })
}

// Volume returns the last applied level.
func (b *Binding) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

// BoundTrackID returns the ID of the bound track, or "" if none.
func (b *Binding) BoundTrackID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trackID
}

// Close releases the handle and stops accepting new bindings.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unloadLocked()
	b.cancel()
}

func (b *Binding) do(op string, fn func(Handle) error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handle == nil {
		return
	}
	if err := fn(b.handle); err != nil {
		zlog.Warn().Err(err).Msgf("device: %s failed: id=%s", op, b.trackID)
	}
}
