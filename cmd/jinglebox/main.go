// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/jinglebox/internal/api/connect"
	"github.com/osa030/jinglebox/internal/app/environment"
	"github.com/osa030/jinglebox/internal/app/playback"
	"github.com/osa030/jinglebox/internal/app/player"
	"github.com/osa030/jinglebox/internal/app/session"
	"github.com/osa030/jinglebox/internal/infra/config"
	"github.com/osa030/jinglebox/internal/infra/logger"
	"github.com/osa030/jinglebox/internal/infra/opener"
	"github.com/osa030/jinglebox/internal/infra/ytdlp"
)

var (
	app        = kingpin.New("jinglebox", "jinglebox playlist player server")
	configPath = app.Flag("config", "Path to config file").Default("config/jinglebox.yaml").Envar("JINGLEBOX_CONFIG").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// start command (default)
	startCmd  = app.Command("start", "Start the server (default)").Default()
	startOpen = startCmd.Flag("open", "Open the page in this machine's browser and allow pages to open externally here").Bool()

	// check-playlist command
	checkCmd = app.Command("check-playlist", "Probe every playlist track and exit")

	// list-signatures command
	listSignaturesCmd = app.Command("list-signatures", "List restrictive in-app browser signatures and exit")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	// Override with command-line flags if specified
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

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	switch command {
	case listSignaturesCmd.FullCommand():
		printSignatures(cfg)
		return
	case checkCmd.FullCommand():
		if err := checkPlaylist(cfg); err != nil {
			zlog.Error().Msgf("Playlist check failed: %v", err)
			closer.Close()
			os.Exit(1)
		}
		return
	}

	// Run server (defer ensures shutdown hook is called)
	if err := run(cfg, *startOpen); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config, openLocally bool) error {
	pl, err := cfg.BuildPlaylist()
	if err != nil {
		return err
	}

	// Create player service
	svc, err := player.NewServiceFromConfig(cfg.Player)
	if err != nil {
		return err
	}

	var hostOpener playback.Opener
	var browser *opener.Opener
	if openLocally {
		browser = opener.New()
		hostOpener = browser
	}

	// Create session manager
	sessionMgr := session.NewManager(session.Config{
		PageURL:             cfg.Server.PageURL,
		MaxPages:            cfg.Server.MaxPages,
		EnvironmentOverride: cfg.Environment.Override,
		Playback: playback.Config{
			PollInterval:   cfg.PollInterval(),
			SettleDelay:    cfg.SettleDelay(),
			FailureBackoff: cfg.FailureBackoff(),
		},
	}, pl, svc, environment.NewDetector(cfg.Environment.RestrictedSignatures), hostOpener)

	if cfg.Server.ControlToken == "" {
		zlog.Warn().Msg("No control token configured, admin service is disabled")
	}
	router := apiconnect.NewRouter(sessionMgr, apiconnect.RouterConfig{
		ControlToken: cfg.Server.ControlToken,
	})

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	// Start server
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s playlist=%q tracks=%d", cfg.Server.Addr, pl.Name(), pl.Len())
		// Signal that we're about to start listening
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for server to start listening
	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	// Warm up the player service so the first page does not pay for it
	go func() {
		if err := svc.Load(context.Background()); err != nil {
			zlog.Warn().Msgf("Player service not available yet: %v", err)
		}
	}()

	// Execute startup hook if configured (after server is running)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	if browser != nil {
		if err := browser.Open(context.Background(), cfg.Server.PageURL); err != nil {
			zlog.Warn().Msgf("Failed to open page in browser: %v", err)
		}
	}

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		sessionMgr.Close()
		return errors.Wrap(err, "server error")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close session manager first to terminate active streams and players
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	// Execute shutdown hook if configured
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printSignatures prints the restrictive in-app browser signatures in match order.
func printSignatures(cfg *config.Config) {
	detector := environment.NewDetector(cfg.Environment.RestrictedSignatures)
	source := "built-in"
	if len(cfg.Environment.RestrictedSignatures) > 0 {
		source = "config"
	}
	fmt.Printf("Restrictive in-app browser signatures (%s):\n", source)
	for _, s := range detector.Signatures() {
		fmt.Printf("  %q\n", s)
	}
}

// checkPlaylist probes every playlist track and reports the ones that cannot be played.
func checkPlaylist(cfg *config.Config) error {
	pl, err := cfg.BuildPlaylist()
	if err != nil {
		return err
	}
	urlFor, err := player.URLFor(cfg.Player)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prober := ytdlp.New(ytdlp.Config{
		URLFor:     urlFor,
		Timeout:    cfg.ProbeTimeout(),
		MaxRetries: cfg.Probe.MaxRetries,
		RetryDelay: 2 * time.Second,
	})

	failed := 0
	fmt.Printf("Playlist %q (%d tracks):\n", pl.Name(), pl.Len())
	for _, res := range prober.ProbePlaylist(ctx, pl) {
		if !res.Playable {
			failed++
			fmt.Printf("  %2d  NG  %-40s  %v\n", res.Index, res.Track.Label(), res.Err)
			continue
		}
		fmt.Printf("  %2d  OK  %-40s  %s\n", res.Index, res.Track.Label(), playback.FormatTime(res.Info.Duration))
	}

	if failed > 0 {
		return errors.Newf("%d of %d tracks are not playable", failed, pl.Len())
	}
	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
