// Package session provides the player session.
package session

import (
	"context"
	"math/rand"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/19player/internal/api/playerv1"
	"github.com/osa030/19player/internal/app/device"
	"github.com/osa030/19player/internal/app/intake"
	"github.com/osa030/19player/internal/app/library"
	"github.com/osa030/19player/internal/app/notification"
	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/app/session/state"
	"github.com/osa030/19player/internal/app/source"
	"github.com/osa030/19player/internal/domain/track"
	"github.com/osa030/19player/internal/infra/logger"
)

var ErrSessionClosed = errors.New("session is closed")

// StorageFailedCode is the rejection code of a file whose bytes could not be stored.
const StorageFailedCode = "storage_failed"

// Rejection reports a skipped upload.
type Rejection struct {
	Name string
	Code string
}

// UploadResult lists the tracks created by an upload and the files skipped.
type UploadResult struct {
	Added    []track.Track
	Rejected []Rejection
}

// Session is one player: a library, a transport and a device binding.
type Session struct {
	mu sync.RWMutex // Serializes operations spanning library and transport

	opts Options

	// Components
	stateMgr     *state.Manager
	library      *library.Library
	binding      *device.Binding
	playback     *playback.Controller
	sources      source.Store
	intake       *intake.Chain
	notification *notification.Manager

	libraryCh chan string
	watchMu   sync.Mutex // Keeps the initial state ahead of broadcasts

	// Channels
	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	done     chan struct{}
}

// New creates a session with the first track of the main playlist selected and paused.
func New(id string, opts Options, deps Deps) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	sources := deps.Sources
	if sources == nil {
		sources = source.NewMemoryStore()
	}
	chain := deps.Intake
	if chain == nil {
		chain = intake.NewChain()
		chain.Add(intake.NewAudioTypeFilter())
	}
	var rng *rand.Rand
	if deps.NewRand != nil {
		rng = deps.NewRand()
	}

	lib := library.New(library.Config{
		MultiPlaylist: opts.MultiPlaylist,
		MainName:      opts.MainPlaylistName,
		UploadName:    opts.UploadPlaylistName,
	}, opts.Builtins)
	binding := device.NewBinding(deps.Device)

	s := &Session{
		opts:         opts,
		stateMgr:     state.New(id),
		library:      lib,
		binding:      binding,
		playback:     playback.NewController(playback.Config{DefaultVolume: opts.DefaultVolume, Rand: rng}, lib, binding),
		sources:      sources,
		intake:       chain,
		notification: notification.NewManager(),
		libraryCh:    make(chan string, 16),
		ctx:          ctx,
		cancel:       cancel,
		loopDone:     make(chan struct{}),
		done:         make(chan struct{}),
	}

	if tracks := lib.ActiveTracks(); len(tracks) > 0 {
		if err := s.playback.Select(tracks[0]); err != nil {
			zlog.Debug().Msgf("session: initial selection: %v", err)
		}
	}

	go s.playbackLoop()

	zlog.Info().Msgf("session: created: id=%s tracks=%d multi_playlist=%t", id, len(lib.ActiveTracks()), opts.MultiPlaylist)
	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.stateMgr.SessionID()
}

// Done is closed once the session has released its resources.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the lifecycle state.
func (s *Session) State() *state.Manager {
	return s.stateMgr
}

// Watchers returns the number of notification subscribers.
func (s *Session) Watchers() int {
	return s.notification.SubscriberCount()
}

// SelectTrack selects a track of any playlist. The playing flag is preserved.
// Unknown IDs are ignored.
func (s *Session) SelectTrack(trackID string) error {
	if err := s.begin(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.library.Track(trackID)
	if !ok {
		return s.ignore("select_track", errors.Wrapf(library.ErrTrackNotFound, "id=%s", trackID))
	}
	return s.ignore("select_track", s.playback.Select(t))
}

// TogglePlayPause flips the playing flag and returns the new value.
func (s *Session) TogglePlayPause() (bool, error) {
	if err := s.begin(); err != nil {
		return false, err
	}
	playing, err := s.playback.TogglePlayPause()
	return playing, s.ignore("toggle", err)
}

// Next advances to the next track of the active playlist.
func (s *Session) Next() error {
	if err := s.begin(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ignore("next", s.playback.Next())
}

// Previous moves to the previous track of the active playlist.
func (s *Session) Previous() error {
	if err := s.begin(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ignore("previous", s.playback.Previous())
}

// Seek jumps to the position in seconds.
func (s *Session) Seek(seconds float64) error {
	if err := s.begin(); err != nil {
		return err
	}
	return s.ignore("seek", s.playback.Seek(seconds))
}

// SetVolume sets the volume and returns the clamped level.
func (s *Session) SetVolume(level int) (int, error) {
	if err := s.begin(); err != nil {
		return 0, err
	}
	return s.playback.SetVolume(level), nil
}

// SetShuffle enables or disables shuffle.
func (s *Session) SetShuffle(enabled bool) error {
	if err := s.begin(); err != nil {
		return err
	}
	s.playback.SetShuffle(enabled)
	return nil
}

// SetRepeat enables or disables repeat.
func (s *Session) SetRepeat(enabled bool) error {
	if err := s.begin(); err != nil {
		return err
	}
	s.playback.SetRepeat(enabled)
	return nil
}

// Upload turns every accepted file into a track of the upload playlist.
// Rejected files and storage failures are skipped and reported.
func (s *Session) Upload(ctx context.Context, files []intake.File) (UploadResult, error) {
	var result UploadResult
	if err := s.begin(); err != nil {
		return result, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrap(err, "upload cancelled")
		}

		if r := s.intake.Execute(ctx, f); !r.Accepted {
			zlog.Debug().Msgf("session: upload rejected: id=%s name=%s code=%s", s.ID(), f.Name, r.Code)
			result.Rejected = append(result.Rejected, Rejection{Name: f.Name, Code: r.Code})
			continue
		}

		ref, err := s.sources.Put(ctx, f.Name, intake.MediaType(f), f.Data)
		if err != nil {
			zlog.Warn().Err(err).Msgf("session: failed to store upload: id=%s name=%s", s.ID(), f.Name)
			result.Rejected = append(result.Rejected, Rejection{Name: f.Name, Code: StorageFailedCode})
			continue
		}

		result.Added = append(result.Added, s.addTrack(track.NameFromFilename(f.Name), ref))
	}

	if len(result.Added) > 0 {
		s.notifyLibraryChanged()
	}
	return result, nil
}

func (s *Session) addTrack(name, ref string) track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.library.AddTrack(library.Upload{Name: name, Artist: s.opts.UploadArtist, Source: ref})
	s.playback.TrackAdded(t)
	return t
}

// RemoveTrack removes an uploaded track and releases its source.
// Built-in and unknown tracks are ignored.
func (s *Session) RemoveTrack(ctx context.Context, trackID string) error {
	if err := s.begin(); err != nil {
		return err
	}

	s.mu.Lock()
	removed, remaining, err := s.library.RemoveTrack(trackID)
	if err != nil {
		s.mu.Unlock()
		return s.ignore("remove_track", err)
	}
	s.playback.TrackRemoved(removed.ID, remaining)
	s.mu.Unlock()

	s.release(ctx, removed)
	s.notifyLibraryChanged()
	return nil
}

// CreatePlaylist appends an empty playlist.
// Returns false if the name was empty or playlists are disabled.
func (s *Session) CreatePlaylist(name string) (PlaylistSummary, bool, error) {
	if err := s.begin(); err != nil {
		return PlaylistSummary{}, false, err
	}

	p, err := s.library.CreatePlaylist(name)
	if err != nil {
		return PlaylistSummary{}, false, s.ignore("create_playlist", err)
	}
	s.notifyLibraryChanged()
	return summarize(p, false), true, nil
}

// SelectPlaylist makes a playlist the navigation scope. The selection is kept.
func (s *Session) SelectPlaylist(playlistID string) error {
	if err := s.begin(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.library.SelectPlaylist(playlistID); err != nil {
		return s.ignore("select_playlist", err)
	}
	s.notifyLibraryChanged()
	return nil
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(s.playback.Snapshot())
}

// Watch streams notifications to the stream until ctx ends or the session closes.
// The first notification carries the initial state.
func (s *Session) Watch(ctx context.Context, stream notification.Stream) error {
	if err := s.begin(); err != nil {
		return err
	}

	s.watchMu.Lock()
	id := s.notification.Subscribe(stream)
	if id == "" {
		s.watchMu.Unlock()
		return ErrSessionClosed
	}
	defer s.notification.Unsubscribe(id)

	initial := &playerv1.Notification{
		Type:       playerv1.NotificationInitialState,
		SequenceNo: s.notification.NextSequenceNo(),
		State:      s.Snapshot().ToState(),
	}
	err := s.notification.Send(id, initial)
	s.watchMu.Unlock()
	if err != nil {
		return errors.Wrap(err, "failed to send initial state")
	}
	zlog.Debug().Msgf("session: watcher subscribed: id=%s subscription=%s", s.ID(), id)

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

// Close stops playback, releases uploaded sources and ends every watch.
// Safe to call more than once.
func (s *Session) Close() {
	if !s.stateMgr.BeginClose() {
		<-s.done
		return
	}
	id := s.ID()

	s.cancel()
	<-s.loopDone

	final := s.Snapshot()
	final.Transport.Playing = false
	s.broadcast(playerv1.NotificationSessionClosed, final)

	zlog.Debug().Msgf("session: releasing device: id=%s track_id=%s volume=%.2f", id, s.binding.BoundTrackID(), s.binding.Volume())
	s.playback.Close()
	s.binding.Close()

	ctx := context.Background()
	for _, t := range s.library.Uploaded() {
		s.release(ctx, t)
	}

	s.notification.Close()
	s.stateMgr.MarkClosed()
	close(s.done)
	zlog.Info().Msgf("session: closed: id=%s", id)
}

// begin rejects operations on a closing session and records activity.
func (s *Session) begin() error {
	if !s.stateMgr.IsActive() {
		return ErrSessionClosed
	}
	s.stateMgr.Touch()
	return nil
}

// ignore swallows the outcomes that leave the session unchanged.
func (s *Session) ignore(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playback.ErrClosed):
		return ErrSessionClosed
	case errors.Is(err, playback.ErrNoTrack),
		errors.Is(err, playback.ErrPlaylistEmpty),
		errors.Is(err, library.ErrProtectedTrack),
		errors.Is(err, library.ErrTrackNotFound),
		errors.Is(err, library.ErrInvalidPlaylistName),
		errors.Is(err, library.ErrPlaylistNotFound),
		errors.Is(err, library.ErrPlaylistsDisabled):
		zlog.Debug().Msgf("session: %s ignored: id=%s reason=%v", op, s.ID(), err)
		return nil
	default:
		return err
	}
}

func (s *Session) release(ctx context.Context, t track.Track) {
	if !t.HasSource() {
		return
	}
	if err := s.sources.Release(ctx, t.Source); err != nil {
		zlog.Warn().Err(err).Msgf("session: failed to release source: id=%s track=%s", s.ID(), t.ID)
	}
}

func (s *Session) notifyLibraryChanged() {
	select {
	case s.libraryCh <- playerv1.NotificationLibraryChanged:
	default:
		// A pending change already carries the latest library
	}
}

// playbackLoop forwards transport and library changes to the watchers.
func (s *Session) playbackLoop() {
	log := logger.ForSession(s.ID())
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("session: playback loop panicked: %v", r)
			// Restart loop to prevent zombie session
			go s.playbackLoop()
			return
		}
		close(s.loopDone)
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-s.playback.Events():
			if !ok {
				return
			}
			if event.Type != playback.EventProgress {
				log.Debug().Msgf("session: playback event: type=%s playing=%t", event.Type, event.Transport.Playing)
			}
			s.handlePlaybackEvent(event)
		case typ := <-s.libraryCh:
			s.broadcast(typ, s.Snapshot())
		}
	}
}

func (s *Session) handlePlaybackEvent(event playback.Event) {
	if event.Type == playback.EventDurationKnown && event.Track != nil {
		s.library.SetDuration(event.Track.ID, event.Transport.Duration)
	}

	s.mu.RLock()
	snap := s.snapshotLocked(event.Transport)
	s.mu.RUnlock()
	s.broadcast(notificationType(event.Type), snap)
}

func (s *Session) broadcast(typ string, snap Snapshot) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.notification.SubscriberCount() == 0 {
		return
	}
	s.notification.Broadcast(&playerv1.Notification{
		Type:  typ,
		State: snap.ToState(),
	})
}

// snapshotLocked must be called with the read lock held.
func (s *Session) snapshotLocked(tr playback.Transport) Snapshot {
	active := s.library.Active()
	snap := Snapshot{
		SessionID:     s.ID(),
		MultiPlaylist: s.library.MultiPlaylist(),
		Transport:     tr,
	}
	for _, p := range s.library.Playlists() {
		sum := summarize(p, p.ID == active.ID)
		if sum.Active {
			snap.ActivePlaylist = sum
		}
		snap.Playlists = append(snap.Playlists, sum)
	}
	snap.Tracks = make([]TrackView, 0, active.Len())
	for _, t := range active.Tracks {
		snap.Tracks = append(snap.Tracks, TrackView{Track: t, Protected: t.IsProtected()})
	}
	return snap
}

func notificationType(t playback.EventType) string {
	switch t {
	case playback.EventTrackSelected:
		return playerv1.NotificationTrackSelected
	case playback.EventStateChanged:
		return playerv1.NotificationStateChanged
	case playback.EventProgress:
		return playerv1.NotificationProgress
	case playback.EventDurationKnown:
		return playerv1.NotificationDurationKnown
	case playback.EventTrackEnded:
		return playerv1.NotificationTrackEnded
	case playback.EventSelectionCleared:
		return playerv1.NotificationSelectionCleared
	default:
		return playerv1.NotificationOptionsChanged
	}
}
