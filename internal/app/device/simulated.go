package device

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19player/internal/domain/track"
)

// ErrHandleClosed is returned by operations on a closed handle.
var ErrHandleClosed = errors.New("device handle is closed")

// SimulatedConfig holds simulated backend configuration.
type SimulatedConfig struct {
	Tick time.Duration // Interval between progress updates
	Step float64       // Seconds added per tick (defaults to Tick in seconds)
}

// SimulatedBackend fakes playback for tracks without audio by advancing
// elapsed time on a fixed ticker. Tracks with an unknown duration never end.
type SimulatedBackend struct {
	tick time.Duration
	step float64
}

// NewSimulatedBackend creates a new simulated backend.
func NewSimulatedBackend(cfg SimulatedConfig) *SimulatedBackend {
	tick := cfg.Tick
	if tick <= 0 {
		tick = time.Second
	}
	step := cfg.Step
	if step <= 0 {
		step = tick.Seconds()
	}
	return &SimulatedBackend{tick: tick, step: step}
}

// Name returns the backend name.
func (b *SimulatedBackend) Name() string {
	return "simulate"
}

// Open binds a track and returns a paused handle.
func (b *SimulatedBackend) Open(ctx context.Context, t track.Track, sink Sink) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "simulated backend is closed")
	}
	return &simulatedHandle{
		parent:   ctx,
		tick:     b.tick,
		step:     b.step,
		duration: t.Duration,
		sink:     sink,
	}, nil
}

type simulatedHandle struct {
	mu sync.Mutex

	parent   context.Context
	tick     time.Duration
	step     float64
	duration float64
	sink     Sink

	elapsed float64
	playing bool
	closed  bool
	run     uint64 // Incremented each time the ticker starts or stops
	cancel  context.CancelFunc
}

func (h *simulatedHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}
	if h.playing {
		return nil
	}
	h.playing = true
	h.startLocked()
	return nil
}

func (h *simulatedHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}
	h.playing = false
	h.stopLocked()
	return nil
}

// Seek moves the counter and restarts the ticker so the next tick is a full interval away.
func (h *simulatedHandle) Seek(seconds float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}
	h.elapsed = seconds
	if h.playing {
		h.stopLocked()
		h.startLocked()
	}
	return nil
}

func (h *simulatedHandle) SetVolume(level float64) error {
	return nil
}

func (h *simulatedHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	h.playing = false
	h.stopLocked()
	return nil
}

func (h *simulatedHandle) startLocked() {
	ctx, cancel := context.WithCancel(h.parent)
	h.cancel = cancel
	h.run++
	go h.loop(ctx, h.run)
}

func (h *simulatedHandle) stopLocked() {
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.run++
}

func (h *simulatedHandle) loop(ctx context.Context, run uint64) {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events, done := h.advance(run)
			for _, ev := range events {
				h.sink(ev)
			}
			if done {
				return
			}
		}
	}
}

// advance moves the counter one step and returns the events to emit.
func (h *simulatedHandle) advance(run uint64) ([]Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if run != h.run || !h.playing {
		return nil, true
	}

	h.elapsed += h.step
	if h.duration > 0 && h.elapsed >= h.duration {
		h.elapsed = h.duration
		h.playing = false
		h.stopLocked()
		return []Event{
			{Type: EventProgress, Elapsed: h.elapsed},
			{Type: EventEnded},
		}, true
	}
	return []Event{{Type: EventProgress, Elapsed: h.elapsed}}, false
}
