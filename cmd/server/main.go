// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/19player/internal/api/connect"
	"github.com/osa030/19player/internal/api/playerv1/playerv1connect"
	"github.com/osa030/19player/internal/app/catalog"
	"github.com/osa030/19player/internal/app/device"
	"github.com/osa030/19player/internal/app/intake"
	"github.com/osa030/19player/internal/app/session"
	"github.com/osa030/19player/internal/app/source"
	"github.com/osa030/19player/internal/domain/track"
	"github.com/osa030/19player/internal/infra/config"
	"github.com/osa030/19player/internal/infra/lastfm"
	"github.com/osa030/19player/internal/infra/logger"
	"github.com/osa030/19player/internal/infra/minio"
	"github.com/osa030/19player/internal/infra/speaker"
	"github.com/osa030/19player/internal/infra/spotify"
)

var (
	app        = kingpin.New("19player-server", "19player headless music player server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listFiltersCmd = app.Command("list-filters", "List available upload filters and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// run executes the main server logic so deferred cleanup runs on every exit path.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builtins, err := loadCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	zlog.Info().Msgf("Catalog loaded: tracks=%d", len(builtins))

	uploads, err := newUploadStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create upload storage: %w", err)
	}
	sources := source.NewMux(uploads, source.FileStore{})

	chain, err := intake.NewChainFromConfig(filterConfigs(cfg))
	if err != nil {
		return fmt.Errorf("invalid filter config: %w", err)
	}

	registry := session.NewRegistry(
		session.OptionsFromConfig(cfg, builtins),
		session.Deps{
			Device:  deviceConfig(cfg, sources),
			Sources: sources,
			Intake:  chain,
		},
		cfg.Server.MaxSessions,
	)

	mux := http.NewServeMux()
	path, handler := playerv1connect.NewPlayerServiceHandler(
		apiconnect.NewPlayerService(registry),
		connect.WithInterceptors(apiconnect.NewTokenInterceptor(cfg.Server.Token)),
	)
	mux.Handle(path, handler)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	if idle := cfg.IdleTimeout(); idle > 0 {
		go registry.RunReaper(ctx, idle/4, idle)
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s auth=%t", cfg.Server.Addr, cfg.Server.Token != "")
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		registry.CloseAll()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Closing sessions first ends the open watch streams.
	registry.CloseAll()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// loadCatalog fetches the built-in tracks every session starts with.
func loadCatalog(ctx context.Context, cfg *config.Config) ([]track.Track, error) {
	var clients catalog.Clients
	if cfg.UsesSpotify() {
		c, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify client: %w", err)
		}
		clients.Spotify = c
	}
	if cfg.UsesLastFM() {
		c, err := lastfm.New(lastfm.Config{APIKey: cfg.LastFM.APIKey, Timeout: cfg.LastFMTimeout()})
		if err != nil {
			return nil, fmt.Errorf("failed to create Last.fm client: %w", err)
		}
		clients.LastFM = c
	}

	chain, err := catalog.NewProviderChainFromConfig(cfg, clients)
	if err != nil {
		return nil, err
	}
	return chain.Tracks(ctx)
}

// newUploadStore creates the storage for uploaded audio.
func newUploadStore(ctx context.Context, cfg *config.Config) (source.Store, error) {
	if cfg.Storage.Type != config.StorageMinio {
		return source.NewMemoryStore(), nil
	}
	m := cfg.Storage.Minio
	return minio.New(ctx, minio.Config{
		Endpoint:  m.Endpoint,
		AccessKey: m.AccessKey,
		SecretKey: m.SecretKey,
		Bucket:    m.Bucket,
		Region:    m.Region,
		UseSSL:    m.UseSSL,
		Prefix:    m.Prefix,
	})
}

// deviceConfig selects the playback backends.
func deviceConfig(cfg *config.Config, sources source.Store) device.Config {
	speakerConfig := speaker.Config{
		SampleRate: cfg.Audio.SampleRate,
		Buffer:     cfg.BufferDuration(),
		Progress:   cfg.ProgressInterval(),
		ToneHz:     cfg.Audio.ToneHz,
	}

	var dc device.Config
	if cfg.Audio.Output == config.OutputSpeaker {
		dc.Real = speaker.NewBackend(speakerConfig, sources)
	}
	switch cfg.Player.Sourceless {
	case config.SourcelessSimulate:
		dc.Sourceless = device.NewSimulatedBackend(device.SimulatedConfig{Tick: cfg.Tick()})
	case config.SourcelessTone:
		dc.Sourceless = speaker.NewToneBackend(speakerConfig)
	}
	return dc
}

func filterConfigs(cfg *config.Config) map[string]intake.FilterConfig {
	configs := make(map[string]intake.FilterConfig, len(cfg.Intake.Filters))
	for name, f := range cfg.Intake.Filters {
		configs[name] = intake.FilterConfig{Enabled: f.Enabled, Settings: f.Settings}
	}
	return configs
}

// printFilters prints available filters.
func printFilters() {
	registered := intake.GetRegistered()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available Filters:")
	for _, name := range names {
		f := registered[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// sh -c allows redirection and pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
