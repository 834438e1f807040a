package playback

import (
	"context"
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/app/device"
	"github.com/osa030/19player/internal/domain/track"
)

// Errors
var (
	ErrNoTrack       = errors.New("no track selected")
	ErrPlaylistEmpty = errors.New("playlist is empty")
	ErrClosed        = errors.New("controller is closed")
)

const (
	MinVolume = 0
	MaxVolume = 100
)

// Device is the outbound side of the device binding.
// Failures are handled by the device itself; the controller only states intent.
type Device interface {
	Load(t track.Track, sink device.Sink)
	Play()
	Pause()
	Seek(seconds float64)
	SetVolume(level float64) // 0.0 - 1.0
	Unload()
}

// Tracklist supplies the ordered tracks that navigation walks.
type Tracklist interface {
	ActiveTracks() []track.Track
}

// Config holds controller configuration.
type Config struct {
	DefaultVolume int        // Initial volume (0-100)
	Rand          *rand.Rand // Shuffle source (nil: seeded from crypto/rand)
	EventBuffer   int        // Event channel capacity (0: 32)
}

// Transport is a read-only snapshot of the playback state.
type Transport struct {
	Track    *track.Track // Current track, nil when nothing is selected
	Playing  bool
	Elapsed  float64 // Seconds
	Duration float64 // Seconds, 0 until known
	Volume   int     // 0-100
	Shuffle  bool
	Repeat   bool
}

// State returns the playback state implied by the transport.
func (t Transport) State() State {
	switch {
	case t.Track == nil:
		return StateIdle
	case t.Playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

// Controller owns the transport and keeps the device in sync with it.
type Controller struct {
	mu sync.Mutex

	tracks Tracklist
	device Device

	// Transport state
	current  *track.Track
	playing  bool
	elapsed  float64
	duration float64
	volume   int
	shuffle  bool
	repeat   bool

	// Identifies the current device binding; events from older bindings are dropped
	generation uint64

	rng *rand.Rand

	// Events
	eventCh chan Event
	closed  bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new transport controller with nothing selected.
func NewController(config Config, tracks Tracklist, dev Device) *Controller {
	ctx, cancel := context.WithCancel(context.Background())

	rng := config.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(newSeed()))
	}
	buffer := config.EventBuffer
	if buffer <= 0 {
		buffer = 32
	}

	c := &Controller{
		tracks:  tracks,
		device:  dev,
		volume:  clampVolume(config.DefaultVolume),
		rng:     rng,
		eventCh: make(chan Event, buffer),
		ctx:     ctx,
		cancel:  cancel,
	}
	c.device.SetVolume(float64(c.volume) / MaxVolume)
	return c
}

// Events returns the event channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Select makes t the current track. The playing flag is preserved.
func (c *Controller) Select(t track.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.selectLocked(t, false)
	return nil
}

// TogglePlayPause flips the playing flag and returns the new value.
func (c *Controller) TogglePlayPause() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return false, ErrNoTrack
	}

	c.playing = !c.playing
	if c.playing {
		c.device.Play()
	} else {
		c.device.Pause()
	}
	c.sendEventLocked(EventStateChanged)
	return c.playing, nil
}

// Next advances to the next track of the active playlist and forces playback.
// With shuffle enabled any index may be chosen, the current one included.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextLocked()
}

// Previous moves to the previous track of the active playlist and forces playback.
// Previous never shuffles.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	tracks := c.tracks.ActiveTracks()
	if len(tracks) == 0 {
		return ErrPlaylistEmpty
	}

	idx := c.currentIndexLocked(tracks)
	prev := idx - 1
	if idx <= 0 {
		prev = len(tracks) - 1
	}
	c.selectLocked(tracks[prev], true)
	return nil
}

// Seek jumps to the position in seconds. The value is passed through unclamped.
func (c *Controller) Seek(seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return ErrNoTrack
	}
	c.elapsed = seconds
	c.device.Seek(seconds)
	c.sendEventLocked(EventProgress)
	return nil
}

// SetVolume sets the volume (clamped into 0-100) and returns the applied level.
func (c *Controller) SetVolume(level int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clampVolume(level)
	c.device.SetVolume(float64(c.volume) / MaxVolume)
	c.sendEventLocked(EventOptionsChanged)
	return c.volume
}

// SetShuffle enables or disables shuffle for Next.
func (c *Controller) SetShuffle(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shuffle = enabled
	c.sendEventLocked(EventOptionsChanged)
}

// SetRepeat enables or disables repeating the current track on completion.
func (c *Controller) SetRepeat(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.repeat = enabled
	c.sendEventLocked(EventOptionsChanged)
}

// TrackAdded selects t if nothing is selected. Playback is not started.
// Returns true if t became the current track.
func (c *Controller) TrackAdded(t track.Track) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.current != nil {
		return false
	}
	c.selectLocked(t, false)
	return true
}

// TrackRemoved updates the selection after a track left its playlist.
// remaining is that playlist after removal. If the removed track was current,
// selection moves to the first remaining track or is cleared.
func (c *Controller) TrackRemoved(trackID string, remaining []track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.current == nil || c.current.ID != trackID {
		return
	}
	if len(remaining) > 0 {
		c.selectLocked(remaining[0], false)
		return
	}
	c.clearLocked()
}

// Clear drops the selection and stops playback.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// Snapshot returns the current transport.
func (c *Controller) Snapshot() Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Current returns the current track.
func (c *Controller) Current() (track.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return track.Track{}, false
	}
	return *c.current, true
}

// Close unbinds the device and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.device.Unload()
	c.cancel()
	close(c.eventCh)
}

func (c *Controller) nextLocked() error {
	if c.closed {
		return ErrClosed
	}
	tracks := c.tracks.ActiveTracks()
	if len(tracks) == 0 {
		return ErrPlaylistEmpty
	}

	var next int
	if c.shuffle {
		next = c.rng.Intn(len(tracks))
	} else {
		// An unknown current track (index -1) starts at the first track
		next = (c.currentIndexLocked(tracks) + 1) % len(tracks)
	}
	c.selectLocked(tracks[next], true)
	return nil
}

// selectLocked rebinds the device to t and resets the position.
// navigate forces playing, as next/previous/auto-advance do.
// Must be called with lock held.
func (c *Controller) selectLocked(t track.Track, navigate bool) {
	selected := t
	c.current = &selected
	c.elapsed = 0
	c.duration = t.Duration
	if navigate {
		c.playing = true
	}

	c.generation++
	c.device.Load(t, c.sinkFor(c.generation, t.ID))
	if c.playing {
		c.device.Play()
	}

	zlog.Debug().Msgf("playback: selected track: id=%s name=%s playing=%t navigate=%t",
		t.ID, t.Name, c.playing, navigate)
	c.sendEventLocked(EventTrackSelected)
}

// clearLocked must be called with lock held.
func (c *Controller) clearLocked() {
	if c.closed {
		return
	}
	c.current = nil
	c.playing = false
	c.elapsed = 0
	c.duration = 0
	c.generation++
	c.device.Unload()
	c.sendEventLocked(EventSelectionCleared)
}

func (c *Controller) currentIndexLocked(tracks []track.Track) int {
	if c.current == nil {
		return -1
	}
	for i, t := range tracks {
		if t.ID == c.current.ID {
			return i
		}
	}
	return -1
}

// sinkFor returns the subscriber for one binding.
func (c *Controller) sinkFor(generation uint64, trackID string) device.Sink {
	return func(ev device.Event) {
		c.handleDeviceEvent(generation, trackID, ev)
	}
}

func (c *Controller) handleDeviceEvent(generation uint64, trackID string, ev device.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Drop events that belong to a binding which is no longer current
	if c.closed || generation != c.generation || c.current == nil || c.current.ID != trackID {
		zlog.Debug().Msgf("playback: dropped stale device event: type=%s track=%s", ev.Type, trackID)
		return
	}

	switch ev.Type {
	case device.EventProgress:
		c.elapsed = ev.Elapsed
		c.sendEventLocked(EventProgress)

	case device.EventMetadata:
		c.duration = ev.Duration
		c.current.Duration = ev.Duration
		c.sendEventLocked(EventDurationKnown)

	case device.EventEnded:
		c.sendEventLocked(EventTrackEnded)
		if c.repeat {
			c.elapsed = 0
			c.playing = true
			c.device.Seek(0)
			c.device.Play()
			c.sendEventLocked(EventProgress)
			return
		}
		if err := c.nextLocked(); err != nil {
			zlog.Debug().Msgf("playback: auto-advance skipped: %v", err)
		}
	}
}

// snapshotLocked must be called with lock held.
func (c *Controller) snapshotLocked() Transport {
	var current *track.Track
	if c.current != nil {
		t := *c.current
		current = &t
	}
	return Transport{
		Track:    current,
		Playing:  c.playing,
		Elapsed:  c.elapsed,
		Duration: c.duration,
		Volume:   c.volume,
		Shuffle:  c.shuffle,
		Repeat:   c.repeat,
	}
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(typ EventType) {
	if c.closed {
		return
	}
	snap := c.snapshotLocked()
	e := Event{Type: typ, Track: snap.Track, Transport: snap}
	select {
	case c.eventCh <- e:
		// Successfully sent
	case <-c.ctx.Done():
		// Context cancelled, don't send
	default:
		// Channel full, drop event
	}
}

func clampVolume(level int) int {
	if level < MinVolume {
		return MinVolume
	}
	if level > MaxVolume {
		return MaxVolume
	}
	return level
}

// newSeed returns a shuffle seed from crypto/rand, falling back to the clock.
func newSeed() int64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err == nil {
		return int64(binary.LittleEndian.Uint64(buf[:]))
	}
	return time.Now().UnixNano()
}
