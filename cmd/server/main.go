// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/cloudbox/internal/api/rest"
	"github.com/osa030/cloudbox/internal/app/catalog"
	"github.com/osa030/cloudbox/internal/app/session"
	"github.com/osa030/cloudbox/internal/app/source"
	"github.com/osa030/cloudbox/internal/infra/config"
	"github.com/osa030/cloudbox/internal/infra/logger"
	"github.com/osa030/cloudbox/internal/infra/soundcloud"
	"github.com/osa030/cloudbox/internal/infra/spotify"
	"github.com/osa030/cloudbox/internal/infra/store"
)

var (
	app        = kingpin.New("cloudbox-server", "cloudbox playback session server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Session store
	sessionStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer sessionStore.Close()

	// Primary catalog
	scClient, err := soundcloud.New(soundcloud.Config{
		ClientID: cfg.SoundCloud.ClientID,
		BaseURL:  cfg.SoundCloud.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create soundcloud client: %w", err)
	}

	// Optional spotify backend
	var spClient *spotify.Client
	if cfg.Spotify.Enabled {
		spClient, err = spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return fmt.Errorf("failed to create spotify client: %w", err)
		}
	}

	// Avoid a typed-nil backend inside the mux
	var spBackend catalog.Backend
	var spSource source.SpotifyClient
	if spClient != nil {
		spBackend = spClient
		spSource = spClient
	}
	catalogMux := catalog.NewMux(scClient, spBackend)

	engine := session.NewEngine(sessionStore, catalogMux)

	sources, err := source.NewProvidersFromConfig(cfg, scClient, spSource)
	if err != nil {
		return fmt.Errorf("failed to create session sources: %w", err)
	}

	handler := rest.NewHandler(engine, catalogMux, scClient, scClient, sources)
	mux := http.NewServeMux()
	handler.Register(mux)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(rest.WithRequestLogging(mux), &http2.Server{}),
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		zlog.Info().Msgf("Received signal %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}
