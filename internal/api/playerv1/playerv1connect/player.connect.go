// Package playerv1connect defines the Connect bindings of player.v1.PlayerService.
package playerv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	playerv1 "github.com/osa030/19player/internal/api/playerv1"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "player.v1.PlayerService"

// Procedure paths of PlayerService.
const (
	PlayerServiceCreateSessionProcedure   = "/player.v1.PlayerService/CreateSession"
	PlayerServiceCloseSessionProcedure    = "/player.v1.PlayerService/CloseSession"
	PlayerServiceGetStateProcedure        = "/player.v1.PlayerService/GetState"
	PlayerServiceSelectTrackProcedure     = "/player.v1.PlayerService/SelectTrack"
	PlayerServiceTogglePlayPauseProcedure = "/player.v1.PlayerService/TogglePlayPause"
	PlayerServiceNextProcedure            = "/player.v1.PlayerService/Next"
	PlayerServicePreviousProcedure        = "/player.v1.PlayerService/Previous"
	PlayerServiceSeekProcedure            = "/player.v1.PlayerService/Seek"
	PlayerServiceSetVolumeProcedure       = "/player.v1.PlayerService/SetVolume"
	PlayerServiceSetShuffleProcedure      = "/player.v1.PlayerService/SetShuffle"
	PlayerServiceSetRepeatProcedure       = "/player.v1.PlayerService/SetRepeat"
	PlayerServiceUploadTracksProcedure    = "/player.v1.PlayerService/UploadTracks"
	PlayerServiceRemoveTrackProcedure     = "/player.v1.PlayerService/RemoveTrack"
	PlayerServiceCreatePlaylistProcedure  = "/player.v1.PlayerService/CreatePlaylist"
	PlayerServiceSelectPlaylistProcedure  = "/player.v1.PlayerService/SelectPlaylist"
	PlayerServiceWatchProcedure           = "/player.v1.PlayerService/Watch"
)

// PlayerServiceHandler is implemented by the server.
type PlayerServiceHandler interface {
	// CreateSession creates a session with the built-in catalog.
	CreateSession(context.Context, *connect.Request[playerv1.CreateSessionRequest]) (*connect.Response[playerv1.CreateSessionResponse], error)
	// CloseSession closes a session and releases its resources.
	CloseSession(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.CloseSessionResponse], error)
	// GetState returns the current state.
	GetState(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.StateResponse], error)
	// SelectTrack selects a track of any playlist.
	SelectTrack(context.Context, *connect.Request[playerv1.SelectTrackRequest]) (*connect.Response[playerv1.StateResponse], error)
	// TogglePlayPause flips the playing flag.
	TogglePlayPause(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.TogglePlayPauseResponse], error)
	// Next advances to the next track.
	Next(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.StateResponse], error)
	// Previous moves to the previous track.
	Previous(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.StateResponse], error)
	// Seek jumps to a position.
	Seek(context.Context, *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.StateResponse], error)
	// SetVolume sets the volume.
	SetVolume(context.Context, *connect.Request[playerv1.SetVolumeRequest]) (*connect.Response[playerv1.StateResponse], error)
	// SetShuffle enables or disables shuffle.
	SetShuffle(context.Context, *connect.Request[playerv1.SetFlagRequest]) (*connect.Response[playerv1.StateResponse], error)
	// SetRepeat enables or disables repeat.
	SetRepeat(context.Context, *connect.Request[playerv1.SetFlagRequest]) (*connect.Response[playerv1.StateResponse], error)
	// UploadTracks adds uploaded audio files as tracks.
	UploadTracks(context.Context, *connect.Request[playerv1.UploadTracksRequest]) (*connect.Response[playerv1.UploadTracksResponse], error)
	// RemoveTrack removes an uploaded track.
	RemoveTrack(context.Context, *connect.Request[playerv1.RemoveTrackRequest]) (*connect.Response[playerv1.StateResponse], error)
	// CreatePlaylist creates an empty playlist.
	CreatePlaylist(context.Context, *connect.Request[playerv1.CreatePlaylistRequest]) (*connect.Response[playerv1.CreatePlaylistResponse], error)
	// SelectPlaylist makes a playlist active.
	SelectPlaylist(context.Context, *connect.Request[playerv1.SelectPlaylistRequest]) (*connect.Response[playerv1.StateResponse], error)
	// Watch streams notifications, starting with the initial state.
	Watch(context.Context, *connect.Request[playerv1.WatchRequest], *connect.ServerStream[playerv1.Notification]) error
}

// NewPlayerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	handlers := map[string]http.Handler{
		PlayerServiceCreateSessionProcedure:   connect.NewUnaryHandler(PlayerServiceCreateSessionProcedure, svc.CreateSession, opts...),
		PlayerServiceCloseSessionProcedure:    connect.NewUnaryHandler(PlayerServiceCloseSessionProcedure, svc.CloseSession, opts...),
		PlayerServiceGetStateProcedure:        connect.NewUnaryHandler(PlayerServiceGetStateProcedure, svc.GetState, opts...),
		PlayerServiceSelectTrackProcedure:     connect.NewUnaryHandler(PlayerServiceSelectTrackProcedure, svc.SelectTrack, opts...),
		PlayerServiceTogglePlayPauseProcedure: connect.NewUnaryHandler(PlayerServiceTogglePlayPauseProcedure, svc.TogglePlayPause, opts...),
		PlayerServiceNextProcedure:            connect.NewUnaryHandler(PlayerServiceNextProcedure, svc.Next, opts...),
		PlayerServicePreviousProcedure:        connect.NewUnaryHandler(PlayerServicePreviousProcedure, svc.Previous, opts...),
		PlayerServiceSeekProcedure:            connect.NewUnaryHandler(PlayerServiceSeekProcedure, svc.Seek, opts...),
		PlayerServiceSetVolumeProcedure:       connect.NewUnaryHandler(PlayerServiceSetVolumeProcedure, svc.SetVolume, opts...),
		PlayerServiceSetShuffleProcedure:      connect.NewUnaryHandler(PlayerServiceSetShuffleProcedure, svc.SetShuffle, opts...),
		PlayerServiceSetRepeatProcedure:       connect.NewUnaryHandler(PlayerServiceSetRepeatProcedure, svc.SetRepeat, opts...),
		PlayerServiceUploadTracksProcedure:    connect.NewUnaryHandler(PlayerServiceUploadTracksProcedure, svc.UploadTracks, opts...),
		PlayerServiceRemoveTrackProcedure:     connect.NewUnaryHandler(PlayerServiceRemoveTrackProcedure, svc.RemoveTrack, opts...),
		PlayerServiceCreatePlaylistProcedure:  connect.NewUnaryHandler(PlayerServiceCreatePlaylistProcedure, svc.CreatePlaylist, opts...),
		PlayerServiceSelectPlaylistProcedure:  connect.NewUnaryHandler(PlayerServiceSelectPlaylistProcedure, svc.SelectPlaylist, opts...),
		PlayerServiceWatchProcedure:           connect.NewServerStreamHandler(PlayerServiceWatchProcedure, svc.Watch, opts...),
	}

	return "/" + PlayerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// PlayerServiceClient is a client for player.v1.PlayerService.
type PlayerServiceClient interface {
	CreateSession(context.Context, *connect.Request[playerv1.CreateSessionRequest]) (*connect.Response[playerv1.CreateSessionResponse], error)
	CloseSession(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.CloseSessionResponse], error)
	GetState(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.StateResponse], error)
	SelectTrack(context.Context, *connect.Request[playerv1.SelectTrackRequest]) (*connect.Response[playerv1.StateResponse], error)
	TogglePlayPause(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.TogglePlayPauseResponse], error)
	Next(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.StateResponse], error)
	Previous(context.Context, *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.StateResponse], error)
	Seek(context.Context, *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.StateResponse], error)
	SetVolume(context.Context, *connect.Request[playerv1.SetVolumeRequest]) (*connect.Response[playerv1.StateResponse], error)
	SetShuffle(context.Context, *connect.Request[playerv1.SetFlagRequest]) (*connect.Response[playerv1.StateResponse], error)
	SetRepeat(context.Context, *connect.Request[playerv1.SetFlagRequest]) (*connect.Response[playerv1.StateResponse], error)
	UploadTracks(context.Context, *connect.Request[playerv1.UploadTracksRequest]) (*connect.Response[playerv1.UploadTracksResponse], error)
	RemoveTrack(context.Context, *connect.Request[playerv1.RemoveTrackRequest]) (*connect.Response[playerv1.StateResponse], error)
	CreatePlaylist(context.Context, *connect.Request[playerv1.CreatePlaylistRequest]) (*connect.Response[playerv1.CreatePlaylistResponse], error)
	SelectPlaylist(context.Context, *connect.Request[playerv1.SelectPlaylistRequest]) (*connect.Response[playerv1.StateResponse], error)
	Watch(context.Context, *connect.Request[playerv1.WatchRequest]) (*connect.ServerStreamForClient[playerv1.Notification], error)
}

// NewPlayerServiceClient constructs a client for player.v1.PlayerService.
// baseURL is the server's scheme, host and optional path prefix (e.g. http://localhost:8080).
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &playerServiceClient{
		createSession:   connect.NewClient[playerv1.CreateSessionRequest, playerv1.CreateSessionResponse](httpClient, baseURL+PlayerServiceCreateSessionProcedure, opts...),
		closeSession:    connect.NewClient[playerv1.SessionRequest, playerv1.CloseSessionResponse](httpClient, baseURL+PlayerServiceCloseSessionProcedure, opts...),
		getState:        connect.NewClient[playerv1.SessionRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceGetStateProcedure, opts...),
		selectTrack:     connect.NewClient[playerv1.SelectTrackRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSelectTrackProcedure, opts...),
		togglePlayPause: connect.NewClient[playerv1.SessionRequest, playerv1.TogglePlayPauseResponse](httpClient, baseURL+PlayerServiceTogglePlayPauseProcedure, opts...),
		next:            connect.NewClient[playerv1.SessionRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceNextProcedure, opts...),
		previous:        connect.NewClient[playerv1.SessionRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServicePreviousProcedure, opts...),
		seek:            connect.NewClient[playerv1.SeekRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSeekProcedure, opts...),
		setVolume:       connect.NewClient[playerv1.SetVolumeRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSetVolumeProcedure, opts...),
		setShuffle:      connect.NewClient[playerv1.SetFlagRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSetShuffleProcedure, opts...),
		setRepeat:       connect.NewClient[playerv1.SetFlagRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSetRepeatProcedure, opts...),
		uploadTracks:    connect.NewClient[playerv1.UploadTracksRequest, playerv1.UploadTracksResponse](httpClient, baseURL+PlayerServiceUploadTracksProcedure, opts...),
		removeTrack:     connect.NewClient[playerv1.RemoveTrackRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceRemoveTrackProcedure, opts...),
		createPlaylist:  connect.NewClient[playerv1.CreatePlaylistRequest, playerv1.CreatePlaylistResponse](httpClient, baseURL+PlayerServiceCreatePlaylistProcedure, opts...),
		selectPlaylist:  connect.NewClient[playerv1.SelectPlaylistRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSelectPlaylistProcedure, opts...),
		watch:           connect.NewClient[playerv1.WatchRequest, playerv1.Notification](httpClient, baseURL+PlayerServiceWatchProcedure, opts...),
	}
}

type playerServiceClient struct {
	createSession   *connect.Client[playerv1.CreateSessionRequest, playerv1.CreateSessionResponse]
	closeSession    *connect.Client[playerv1.SessionRequest, playerv1.CloseSessionResponse]
	getState        *connect.Client[playerv1.SessionRequest, playerv1.StateResponse]
	selectTrack     *connect.Client[playerv1.SelectTrackRequest, playerv1.StateResponse]
	togglePlayPause *connect.Client[playerv1.SessionRequest, playerv1.TogglePlayPauseResponse]
	next            *connect.Client[playerv1.SessionRequest, playerv1.StateResponse]
	previous        *connect.Client[playerv1.SessionRequest, playerv1.StateResponse]
	seek            *connect.Client[playerv1.SeekRequest, playerv1.StateResponse]
	setVolume       *connect.Client[playerv1.SetVolumeRequest, playerv1.StateResponse]
	setShuffle      *connect.Client[playerv1.SetFlagRequest, playerv1.StateResponse]
	setRepeat       *connect.Client[playerv1.SetFlagRequest, playerv1.StateResponse]
	uploadTracks    *connect.Client[playerv1.UploadTracksRequest, playerv1.UploadTracksResponse]
	removeTrack     *connect.Client[playerv1.RemoveTrackRequest, playerv1.StateResponse]
	createPlaylist  *connect.Client[playerv1.CreatePlaylistRequest, playerv1.CreatePlaylistResponse]
	selectPlaylist  *connect.Client[playerv1.SelectPlaylistRequest, playerv1.StateResponse]
	watch           *connect.Client[playerv1.WatchRequest, playerv1.Notification]
}

func (c *playerServiceClient) CreateSession(ctx context.Context, req *connect.Request[playerv1.CreateSessionRequest]) (*connect.Response[playerv1.CreateSessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *playerServiceClient) CloseSession(ctx context.Context, req *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.CloseSessionResponse], error) {
	return c.closeSession.CallUnary(ctx, req)
}

func (c *playerServiceClient) GetState(ctx context.Context, req *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.getState.CallUnary(ctx, req)
}

func (c *playerServiceClient) SelectTrack(ctx context.Context, req *connect.Request[playerv1.SelectTrackRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.selectTrack.CallUnary(ctx, req)
}

func (c *playerServiceClient) TogglePlayPause(ctx context.Context, req *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.TogglePlayPauseResponse], error) {
	return c.togglePlayPause.CallUnary(ctx, req)
}

func (c *playerServiceClient) Next(ctx context.Context, req *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.next.CallUnary(ctx, req)
}

func (c *playerServiceClient) Previous(ctx context.Context, req *connect.Request[playerv1.SessionRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.previous.CallUnary(ctx, req)
}

func (c *playerServiceClient) Seek(ctx context.Context, req *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.seek.CallUnary(ctx, req)
}

func (c *playerServiceClient) SetVolume(ctx context.Context, req *connect.Request[playerv1.SetVolumeRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.setVolume.CallUnary(ctx, req)
}

func (c *playerServiceClient) SetShuffle(ctx context.Context, req *connect.Request[playerv1.SetFlagRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.setShuffle.CallUnary(ctx, req)
}

func (c *playerServiceClient) SetRepeat(ctx context.Context, req *connect.Request[playerv1.SetFlagRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.setRepeat.CallUnary(ctx, req)
}

func (c *playerServiceClient) UploadTracks(ctx context.Context, req *connect.Request[playerv1.UploadTracksRequest]) (*connect.Response[playerv1.UploadTracksResponse], error) {
	return c.uploadTracks.CallUnary(ctx, req)
}

func (c *playerServiceClient) RemoveTrack(ctx context.Context, req *connect.Request[playerv1.RemoveTrackRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.removeTrack.CallUnary(ctx, req)
}

func (c *playerServiceClient) CreatePlaylist(ctx context.Context, req *connect.Request[playerv1.CreatePlaylistRequest]) (*connect.Response[playerv1.CreatePlaylistResponse], error) {
	return c.createPlaylist.CallUnary(ctx, req)
}

func (c *playerServiceClient) SelectPlaylist(ctx context.Context, req *connect.Request[playerv1.SelectPlaylistRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.selectPlaylist.CallUnary(ctx, req)
}

func (c *playerServiceClient) Watch(ctx context.Context, req *connect.Request[playerv1.WatchRequest]) (*connect.ServerStreamForClient[playerv1.Notification], error) {
	return c.watch.CallServerStream(ctx, req)
}
