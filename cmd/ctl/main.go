// Package main provides the player control CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/19player/internal/api/connect"
	playerv1 "github.com/osa030/19player/internal/api/playerv1"
	"github.com/osa030/19player/internal/api/playerv1/playerv1connect"
)

var (
	app       = kingpin.New("19player-ctl", "19player control client")
	server    = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token     = app.Flag("token", "Access token").Envar("PLAYER_TOKEN").String()
	sessionID = app.Flag("session", "Session ID").Short('s').Envar("PLAYER_SESSION").String()

	createCmd = app.Command("create", "Create a session")
	closeCmd  = app.Command("close", "Close the session")
	stateCmd  = app.Command("state", "Show the session state")

	playCmd = app.Command("play", "Toggle play/pause")
	nextCmd = app.Command("next", "Skip to the next track")
	prevCmd = app.Command("prev", "Go back to the previous track")

	selectCmd     = app.Command("select", "Select a track")
	selectTrackID = selectCmd.Arg("track-id", "Track ID").Required().String()

	seekCmd     = app.Command("seek", "Seek within the current track")
	seekSeconds = seekCmd.Arg("seconds", "Position in seconds").Required().Float64()

	volumeCmd   = app.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume (0-100)").Required().Int32()

	shuffleCmd = app.Command("shuffle", "Enable or disable shuffle")
	shuffleOn  = shuffleCmd.Arg("enabled", "on or off").Required().Enum("on", "off")

	repeatCmd = app.Command("repeat", "Enable or disable repeat")
	repeatOn  = repeatCmd.Arg("enabled", "on or off").Required().Enum("on", "off")

	uploadCmd   = app.Command("upload", "Upload audio files")
	uploadFiles = uploadCmd.Arg("files", "Audio files").Required().ExistingFiles()

	removeCmd     = app.Command("remove", "Remove an uploaded track")
	removeTrackID = removeCmd.Arg("track-id", "Track ID").Required().String()

	createPlaylistCmd  = app.Command("create-playlist", "Create a playlist")
	createPlaylistName = createPlaylistCmd.Arg("name", "Playlist name").Required().String()

	usePlaylistCmd = app.Command("use-playlist", "Make a playlist active")
	usePlaylistID  = usePlaylistCmd.Arg("playlist-id", "Playlist ID").Required().String()

	watchCmd = app.Command("watch", "Watch session notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := playerv1connect.NewPlayerServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewTokenClientInterceptor(*token)),
	)

	ctx := context.Background()

	if command == createCmd.FullCommand() {
		resp, err := client.CreateSession(ctx, connect.NewRequest(&playerv1.CreateSessionRequest{}))
		exitOnError(err)
		fmt.Printf("Session created: %s\n", resp.Msg.SessionID)
		printState(resp.Msg.State)
		return
	}

	if *sessionID == "" {
		app.Fatalf("--session is required for %s", command)
	}
	session := &playerv1.SessionRequest{SessionID: *sessionID}

	var (
		resp *connect.Response[playerv1.StateResponse]
		err  error
	)
	switch command {
	case closeCmd.FullCommand():
		_, err = client.CloseSession(ctx, connect.NewRequest(session))
		exitOnError(err)
		fmt.Println("Session closed")
		return
	case stateCmd.FullCommand():
		resp, err = client.GetState(ctx, connect.NewRequest(session))
	case playCmd.FullCommand():
		toggled, err := client.TogglePlayPause(ctx, connect.NewRequest(session))
		exitOnError(err)
		printState(toggled.Msg.State)
		return
	case nextCmd.FullCommand():
		resp, err = client.Next(ctx, connect.NewRequest(session))
	case prevCmd.FullCommand():
		resp, err = client.Previous(ctx, connect.NewRequest(session))
	case selectCmd.FullCommand():
		resp, err = client.SelectTrack(ctx, connect.NewRequest(&playerv1.SelectTrackRequest{
			SessionID: *sessionID,
			TrackID:   *selectTrackID,
		}))
	case seekCmd.FullCommand():
		resp, err = client.Seek(ctx, connect.NewRequest(&playerv1.SeekRequest{
			SessionID: *sessionID,
			Seconds:   *seekSeconds,
		}))
	case volumeCmd.FullCommand():
		resp, err = client.SetVolume(ctx, connect.NewRequest(&playerv1.SetVolumeRequest{
			SessionID: *sessionID,
			Volume:    *volumeLevel,
		}))
	case shuffleCmd.FullCommand():
		resp, err = client.SetShuffle(ctx, connect.NewRequest(&playerv1.SetFlagRequest{
			SessionID: *sessionID,
			Enabled:   *shuffleOn == "on",
		}))
	case repeatCmd.FullCommand():
		resp, err = client.SetRepeat(ctx, connect.NewRequest(&playerv1.SetFlagRequest{
			SessionID: *sessionID,
			Enabled:   *repeatOn == "on",
		}))
	case uploadCmd.FullCommand():
		upload(ctx, client, *uploadFiles)
		return
	case removeCmd.FullCommand():
		resp, err = client.RemoveTrack(ctx, connect.NewRequest(&playerv1.RemoveTrackRequest{
			SessionID: *sessionID,
			TrackID:   *removeTrackID,
		}))
	case createPlaylistCmd.FullCommand():
		created, err := client.CreatePlaylist(ctx, connect.NewRequest(&playerv1.CreatePlaylistRequest{
			SessionID: *sessionID,
			Name:      *createPlaylistName,
		}))
		exitOnError(err)
		if created.Msg.Playlist == nil {
			fmt.Println("Playlist not created (empty name)")
		} else {
			fmt.Printf("Playlist created: %s (%s)\n", created.Msg.Playlist.Name, created.Msg.Playlist.ID)
		}
		return
	case usePlaylistCmd.FullCommand():
		resp, err = client.SelectPlaylist(ctx, connect.NewRequest(&playerv1.SelectPlaylistRequest{
			SessionID:  *sessionID,
			PlaylistID: *usePlaylistID,
		}))
	case watchCmd.FullCommand():
		watch(ctx, client)
		return
	}
	exitOnError(err)
	printState(resp.Msg.State)
}

func upload(ctx context.Context, client playerv1connect.PlayerServiceClient, paths []string) {
	files := make([]playerv1.UploadFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		exitOnError(err)
		files = append(files, playerv1.UploadFile{
			Name:        filepath.Base(path),
			ContentType: mimetype.Detect(data).String(),
			Data:        data,
		})
	}

	resp, err := client.UploadTracks(ctx, connect.NewRequest(&playerv1.UploadTracksRequest{
		SessionID: *sessionID,
		Files:     files,
	}))
	exitOnError(err)

	for _, t := range resp.Msg.Added {
		fmt.Printf("Added: %s (%s)\n", t.Name, t.ID)
	}
	for _, r := range resp.Msg.Rejected {
		fmt.Printf("Rejected [%s]: %s\n", r.Code, r.Name)
	}
}

func watch(ctx context.Context, client playerv1connect.PlayerServiceClient) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream, err := client.Watch(ctx, connect.NewRequest(&playerv1.WatchRequest{SessionID: *sessionID}))
	exitOnError(err)
	defer stream.Close()

	fmt.Println("Watching session. Press Ctrl+C to exit.")

	for stream.Receive() {
		n := stream.Msg()
		if n.Type == playerv1.NotificationProgress {
			if n.State != nil {
				fmt.Printf("\r[%d] %s / %s", n.SequenceNo, formatSeconds(n.State.Elapsed), formatSeconds(n.State.Duration))
			}
			continue
		}
		fmt.Printf("\n[Sequence: %d] === %s ===\n", n.SequenceNo, n.Type)
		printState(n.State)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		fmt.Printf("Stream error: %v\n", err)
	}
}

func printState(s *playerv1.State) {
	if s == nil {
		return
	}

	if s.ActivePlaylist != nil {
		fmt.Printf("Playlist: %s (%s) tracks=%d total=%s\n",
			s.ActivePlaylist.Name, s.ActivePlaylist.ID, s.ActivePlaylist.TrackCount, formatSeconds(s.ActivePlaylist.TotalDuration))
	}
	if s.MultiPlaylist && len(s.Playlists) > 1 {
		fmt.Println("Playlists:")
		for _, p := range s.Playlists {
			marker := " "
			if p.Active {
				marker = "*"
			}
			fmt.Printf("  %s %-20s %-12s %d tracks\n", marker, p.Name, p.ID, p.TrackCount)
		}
	}

	fmt.Println("Tracks:")
	for i, t := range s.Tracks {
		marker := " "
		if s.CurrentTrack != nil && s.CurrentTrack.ID == t.ID {
			marker = ">"
		}
		lock := ""
		if t.Protected {
			lock = " [built-in]"
		}
		fmt.Printf("  %s %2d. %s - %s (%s) id=%s%s\n", marker, i+1, t.Artist, t.Name, formatSeconds(t.Duration), t.ID, lock)
	}

	if s.CurrentTrack == nil {
		fmt.Println("Now: (no track)")
	} else {
		fmt.Printf("Now: %s - %s [%s %s / %s]\n",
			s.CurrentTrack.Artist, s.CurrentTrack.Name, s.Status, formatSeconds(s.Elapsed), formatSeconds(s.Duration))
	}
	fmt.Printf("Volume: %d Shuffle: %t Repeat: %t\n", s.Volume, s.Shuffle, s.Repeat)
}

// formatSeconds renders seconds as m:ss.
func formatSeconds(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
