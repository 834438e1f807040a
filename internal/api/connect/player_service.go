package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/19player/internal/api/playerv1"
	"github.com/osa030/19player/internal/api/playerv1/playerv1connect"
	"github.com/osa030/19player/internal/app/intake"
	"github.com/osa030/19player/internal/app/session"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	sessions *session.Registry
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(sessions *session.Registry) *PlayerService {
	return &PlayerService{
		sessions: sessions,
	}
}

// Ensure PlayerService implements the interface.
var _ playerv1connect.PlayerServiceHandler = (*PlayerService)(nil)

// CreateSession creates a session with the built-in catalog.
func (s *PlayerService) CreateSession(
	ctx context.Context,
	req *connect.Request[playerv1.CreateSessionRequest],
) (*connect.Response[playerv1.CreateSessionResponse], error) {
	sess, err := s.sessions.Create()
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&playerv1.CreateSessionResponse{
		SessionID: sess.ID(),
		State:     sess.Snapshot().ToState(),
	}), nil
}

// CloseSession closes a session.
func (s *PlayerService) CloseSession(
	ctx context.Context,
	req *connect.Request[playerv1.SessionRequest],
) (*connect.Response[playerv1.CloseSessionResponse], error) {
	if err := s.sessions.Close(req.Msg.SessionID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.CloseSessionResponse{}), nil
}

// GetState returns the current state.
func (s *PlayerService) GetState(
	ctx context.Context,
	req *connect.Request[playerv1.SessionRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, func(*session.Session) error { return nil })
}

// SelectTrack selects a track.
func (s *PlayerService) SelectTrack(
	ctx context.Context,
	req *connect.Request[playerv1.SelectTrackRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, func(sess *session.Session) error {
		return sess.SelectTrack(req.Msg.TrackID)
	})
}

// TogglePlayPause flips the playing flag.
func (s *PlayerService) TogglePlayPause(
	ctx context.Context,
	req *connect.Request[playerv1.SessionRequest],
) (*connect.Response[playerv1.TogglePlayPauseResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	playing, err := sess.TogglePlayPause()
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.TogglePlayPauseResponse{
		Playing: playing,
		State:   sess.Snapshot().ToState(),
	}), nil
}

// Next advances to the next track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[playerv1.SessionRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, (*session.Session).Next)
}

// Previous moves to the previous track.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[playerv1.SessionRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, (*session.Session).Previous)
}

// Seek jumps to a position.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[playerv1.SeekRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, func(sess *session.Session) error {
		return sess.Seek(req.Msg.Seconds)
	})
}

// SetVolume sets the volume.
func (s *PlayerService) SetVolume(
	ctx context.Context,
	req *connect.Request[playerv1.SetVolumeRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, func(sess *session.Session) error {
		_, err := sess.SetVolume(int(req.Msg.Volume))
		return err
	})
}

// SetShuffle enables or disables shuffle.
func (s *PlayerService) SetShuffle(
	ctx context.Context,
	req *connect.Request[playerv1.SetFlagRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, func(sess *session.Session) error {
		return sess.SetShuffle(req.Msg.Enabled)
	})
}

// SetRepeat enables or disables repeat.
func (s *PlayerService) SetRepeat(
	ctx context.Context,
	req *connect.Request[playerv1.SetFlagRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, func(sess *session.Session) error {
		return sess.SetRepeat(req.Msg.Enabled)
	})
}

// UploadTracks adds uploaded audio files as tracks.
func (s *PlayerService) UploadTracks(
	ctx context.Context,
	req *connect.Request[playerv1.UploadTracksRequest],
) (*connect.Response[playerv1.UploadTracksResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	files := make([]intake.File, 0, len(req.Msg.Files))
	for _, f := range req.Msg.Files {
		files = append(files, intake.File{Name: f.Name, ContentType: f.ContentType, Data: f.Data})
	}

	result, err := sess.Upload(ctx, files)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &playerv1.UploadTracksResponse{
		Added: make([]playerv1.Track, 0, len(result.Added)),
		State: sess.Snapshot().ToState(),
	}
	for _, t := range result.Added {
		resp.Added = append(resp.Added, session.TrackMessage(t))
	}
	for _, r := range result.Rejected {
		resp.Rejected = append(resp.Rejected, playerv1.Rejection{Name: r.Name, Code: r.Code})
	}
	zlog.Info().Msgf("connect: upload: session_id=%s added=%d rejected=%d", sess.ID(), len(resp.Added), len(resp.Rejected))
	return connect.NewResponse(resp), nil
}

// RemoveTrack removes an uploaded track.
func (s *PlayerService) RemoveTrack(
	ctx context.Context,
	req *connect.Request[playerv1.RemoveTrackRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, func(sess *session.Session) error {
		return sess.RemoveTrack(ctx, req.Msg.TrackID)
	})
}

// CreatePlaylist creates an empty playlist.
func (s *PlayerService) CreatePlaylist(
	ctx context.Context,
	req *connect.Request[playerv1.CreatePlaylistRequest],
) (*connect.Response[playerv1.CreatePlaylistResponse], error) {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	p, ok, err := sess.CreatePlaylist(req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &playerv1.CreatePlaylistResponse{State: sess.Snapshot().ToState()}
	if ok {
		resp.Playlist = session.PlaylistMessage(p)
	}
	return connect.NewResponse(resp), nil
}

// SelectPlaylist makes a playlist active.
func (s *PlayerService) SelectPlaylist(
	ctx context.Context,
	req *connect.Request[playerv1.SelectPlaylistRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return s.apply(req.Msg.SessionID, func(sess *session.Session) error {
		return sess.SelectPlaylist(req.Msg.PlaylistID)
	})
}

// Watch streams the session's notifications, starting with the initial state.
func (s *PlayerService) Watch(
	ctx context.Context,
	req *connect.Request[playerv1.WatchRequest],
	stream *connect.ServerStream[playerv1.Notification],
) error {
	sess, err := s.session(req.Msg.SessionID)
	if err != nil {
		return err
	}

	zlog.Debug().Msgf("connect: watch started: session_id=%s", sess.ID())
	defer zlog.Debug().Msgf("connect: watch ended: session_id=%s", sess.ID())

	if err := sess.Watch(ctx, stream); err != nil {
		return toConnectError(err)
	}
	return nil
}

// session resolves a session ID.
func (s *PlayerService) session(id string) (*session.Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return sess, nil
}

// apply runs op on the session and returns the resulting state.
func (s *PlayerService) apply(id string, op func(*session.Session) error) (*connect.Response[playerv1.StateResponse], error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if err := op(sess); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.StateResponse{State: sess.Snapshot().ToState()}), nil
}

// toConnectError maps session errors to Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionClosed):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, session.ErrTooManySessions):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		zlog.Error().Err(err).Msg("connect: internal error")
		return connect.NewError(connect.CodeInternal, err)
	}
}
