// Package speaker provides a device backend that plays audio on the local sound card.
package speaker

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	beepspeaker "github.com/faiface/beep/speaker"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/app/device"
	"github.com/osa030/19player/internal/app/source"
	"github.com/osa030/19player/internal/domain/track"
)

var (
	// ErrNoSource is returned when a track without audio is opened on a decoding backend.
	ErrNoSource = errors.New("track has no audio source")
	// ErrNoDuration is returned when a tone is requested for a track of unknown length.
	ErrNoDuration = errors.New("track duration is unknown")
)

// Config holds speaker configuration.
type Config struct {
	SampleRate int           // Output sample rate
	Buffer     time.Duration // Speaker buffer length
	Progress   time.Duration // Progress event interval
	ToneHz     float64       // Tone frequency for sourceless tracks
}

// The speaker is process-wide and can be initialized once.
var (
	initOnce   sync.Once
	initErr    error
	outputRate beep.SampleRate
)

func initSpeaker(cfg Config) (beep.SampleRate, error) {
	initOnce.Do(func() {
		outputRate = beep.SampleRate(cfg.SampleRate)
		initErr = beepspeaker.Init(outputRate, outputRate.N(cfg.Buffer))
		if initErr == nil {
			zlog.Info().Msgf("speaker: initialized: sample_rate=%d buffer=%s", cfg.SampleRate, cfg.Buffer)
		}
	})
	return outputRate, errors.Wrap(initErr, "failed to initialize speaker")
}

// Backend plays tracks through the speaker.
type Backend struct {
	cfg     Config
	sources source.Store // nil for the tone backend
}

// NewBackend creates a backend that decodes track sources from the store.
func NewBackend(cfg Config, sources source.Store) *Backend {
	return &Backend{cfg: withDefaults(cfg), sources: sources}
}

// NewToneBackend creates a backend that plays a sine tone for the track duration.
func NewToneBackend(cfg Config) *Backend {
	return &Backend{cfg: withDefaults(cfg)}
}

func withDefaults(cfg Config) Config {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 100 * time.Millisecond
	}
	if cfg.Progress <= 0 {
		cfg.Progress = 500 * time.Millisecond
	}
	if cfg.ToneHz <= 0 {
		cfg.ToneHz = 440
	}
	return cfg
}

// Name returns the backend name.
func (b *Backend) Name() string {
	if b.sources == nil {
		return "tone"
	}
	return "speaker"
}

// Open decodes the track and queues it paused on the speaker.
func (b *Backend) Open(ctx context.Context, t track.Track, sink device.Sink) (device.Handle, error) {
	sr, err := initSpeaker(b.cfg)
	if err != nil {
		return nil, err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	if b.sources == nil {
		if t.Duration <= 0 {
			return nil, errors.Wrapf(ErrNoDuration, "track_id=%s", t.ID)
		}
		stream = newToneStreamer(sr, b.cfg.ToneHz, t.Duration)
		format = beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	} else {
		if !t.HasSource() {
			return nil, errors.Wrapf(ErrNoSource, "track_id=%s", t.ID)
		}
		obj, err := b.sources.Open(ctx, t.Source)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open source: track_id=%s", t.ID)
		}
		stream, format, err = decode(obj, t.Source)
		if err != nil {
			return nil, err
		}
	}

	h := newHandle(ctx, speakerMixer{}, stream, format, sr, b.cfg.Progress, sink)
	zlog.Debug().Msgf("speaker: opened: backend=%s track_id=%s rate=%d length=%.1fs", b.Name(), t.ID, format.SampleRate, h.length())
	return h, nil
}

// mixer is the part of the process-wide speaker a handle drives.
type mixer interface {
	Lock()
	Unlock()
	Play(s ...beep.Streamer)
}

type speakerMixer struct{}

func (speakerMixer) Lock()                   { beepspeaker.Lock() }
func (speakerMixer) Unlock()                 { beepspeaker.Unlock() }
func (speakerMixer) Play(s ...beep.Streamer) { beepspeaker.Play(s...) }

// newHandle wraps the stream for volume and pause control and queues it paused on the mixer.
func newHandle(ctx context.Context, mix mixer, stream beep.StreamSeekCloser, format beep.Format, sr beep.SampleRate, progress time.Duration, sink device.Sink) *handle {
	var out beep.Streamer = stream
	if format.SampleRate != sr {
		out = beep.Resample(4, format.SampleRate, sr, stream)
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	h := &handle{
		mix:      mix,
		stream:   stream,
		format:   format,
		progress: progress,
		sink:     sink,
		cancel:   cancel,
	}
	h.volume = &effects.Volume{Streamer: out, Base: 2}
	h.ctrl = &beep.Ctrl{Streamer: h.volume, Paused: true}
	h.queueLocked()

	go h.monitor(monitorCtx)
	return h
}

// volumeFor maps a 0-1 level onto a base-2 gain.
func volumeFor(level float64) (gain float64, silent bool) {
	if level <= 0 {
		return 0, true
	}
	if level > 1 {
		level = 1
	}
	return math.Log2(level), false
}

type handle struct {
	mu sync.Mutex

	mix      mixer
	stream   beep.StreamSeekCloser
	format   beep.Format
	volume   *effects.Volume
	ctrl     *beep.Ctrl
	progress time.Duration
	sink     device.Sink
	cancel   context.CancelFunc

	playing bool
	queued  bool   // Registered with the speaker mixer
	run     uint64 // Incremented each time the stream is queued
	closed  bool
}

func (h *handle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return device.ErrHandleClosed
	}
	// A stream parked at its end still has to run into the end-of-track callback.
	h.playing = true
	if !h.queued {
		h.queueLocked()
	}
	h.mix.Lock()
	h.ctrl.Paused = false
	h.mix.Unlock()
	return nil
}

func (h *handle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return device.ErrHandleClosed
	}
	h.playing = false
	h.mix.Lock()
	h.ctrl.Paused = true
	h.mix.Unlock()
	return nil
}

func (h *handle) Seek(seconds float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return device.ErrHandleClosed
	}
	pos := h.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	h.mix.Lock()
	defer h.mix.Unlock()
	pos = min(max(pos, 0), h.stream.Len())
	if err := h.stream.Seek(pos); err != nil {
		return errors.Wrapf(err, "failed to seek to %.1fs", seconds)
	}
	return nil
}

func (h *handle) SetVolume(level float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return device.ErrHandleClosed
	}
	gain, silent := volumeFor(level)
	h.mix.Lock()
	h.volume.Volume = gain
	h.volume.Silent = silent
	h.mix.Unlock()
	return nil
}

// Close detaches the stream from the mixer and releases the decoder.
func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.playing = false
	h.cancel()

	h.mix.Lock()
	h.ctrl.Streamer = nil
	h.mix.Unlock()

	return errors.Wrap(h.stream.Close(), "failed to close decoder")
}

// queueLocked registers the stream with the mixer, followed by the end-of-track callback.
func (h *handle) queueLocked() {
	h.queued = true
	h.run++
	run := h.run
	h.mix.Play(beep.Seq(h.ctrl, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker lock held.
		go h.finished(run)
	})))
}

func (h *handle) finished(run uint64) {
	h.mu.Lock()
	if h.closed || run != h.run {
		h.mu.Unlock()
		return
	}
	h.queued = false
	h.playing = false
	h.mu.Unlock()

	h.sink(device.Event{Type: device.EventEnded})
}

func (h *handle) monitor(ctx context.Context) {
	if length := h.length(); length > 0 {
		h.sink(device.Event{Type: device.EventMetadata, Duration: length})
	}

	ticker := time.NewTicker(h.progress)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed, ok := h.position()
			if ok {
				h.sink(device.Event{Type: device.EventProgress, Elapsed: elapsed})
			}
		}
	}
}

// position returns the elapsed seconds while playing.
func (h *handle) position() (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || !h.playing {
		return 0, false
	}
	h.mix.Lock()
	pos := h.stream.Position()
	h.mix.Unlock()
	return h.format.SampleRate.D(pos).Seconds(), true
}

func (h *handle) length() float64 {
	return h.format.SampleRate.D(h.stream.Len()).Seconds()
}
