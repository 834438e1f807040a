package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/app/session/registry"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// Registry creates and tracks concurrent sessions.
type Registry struct {
	opts     Options
	deps     Deps
	sessions *registry.Registry[*Session]

	newID func() string
	now   func() time.Time

	closeOnce sync.Once
}

// NewRegistry creates a registry whose sessions share opts and deps.
// maxSessions limits concurrent sessions (0: unlimited).
func NewRegistry(opts Options, deps Deps, maxSessions int) *Registry {
	return &Registry{
		opts:     opts,
		deps:     deps,
		sessions: registry.New[*Session](maxSessions),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Create starts a new session.
func (r *Registry) Create() (*Session, error) {
	s := New(r.newID(), r.opts, r.deps)
	if err := r.sessions.Add(s); err != nil {
		s.Close()
		if errors.Is(err, registry.ErrFull) {
			return nil, errors.Wrap(ErrTooManySessions, err.Error())
		}
		return nil, errors.Wrap(err, "failed to register session")
	}
	return s, nil
}

// Get returns a session by ID.
func (r *Registry) Get(id string) (*Session, error) {
	s, err := r.sessions.Get(id)
	if err != nil {
		return nil, errors.Wrapf(ErrSessionNotFound, "id=%s", id)
	}
	return s, nil
}

// Close closes and forgets a session.
func (r *Registry) Close(id string) error {
	s, ok := r.sessions.Remove(id)
	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "id=%s", id)
	}
	s.Close()
	return nil
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.closeOnce.Do(func() {
		var wg sync.WaitGroup
		for _, s := range r.sessions.All() {
			r.sessions.Remove(s.ID())
			wg.Add(1)
			go func(s *Session) {
				defer wg.Done()
				s.Close()
			}(s)
		}
		wg.Wait()
		zlog.Info().Msg("session: all sessions closed")
	})
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	return r.sessions.Count()
}

// ReapIdle closes sessions without watchers that have been idle for at least maxIdle.
// Returns the number of sessions closed.
func (r *Registry) ReapIdle(maxIdle time.Duration) int {
	now := r.now()
	closed := 0
	for _, s := range r.sessions.All() {
		if s.Watchers() > 0 || s.State().IdleFor(now) < maxIdle {
			continue
		}
		if err := r.Close(s.ID()); err == nil {
			zlog.Info().Msgf("session: closed idle session: id=%s idle=%v", s.ID(), s.State().IdleFor(now))
			closed++
		}
	}
	return closed
}

// RunReaper calls ReapIdle every interval until ctx is done.
// A zero maxIdle disables reaping.
func (r *Registry) RunReaper(ctx context.Context, interval, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ReapIdle(maxIdle)
		}
	}
}
