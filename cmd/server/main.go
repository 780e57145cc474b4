package main

import (
	"fmt"
	"os"

	"github.com/campaignboard/campaignboard/internal/config"
	"github.com/campaignboard/campaignboard/internal/logger"
	"github.com/campaignboard/campaignboard/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("api_url", cfg.API.URL).
		Bool("secondary_api", cfg.API.SecondaryURL != "").
		Msg("Starting campaign dashboard...")

	// Blocks until shutdown
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
