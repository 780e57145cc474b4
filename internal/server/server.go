// Package server is the dashboard's HTTP surface: server-rendered pages behind
// the session gate plus a small JSON passthrough.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campaignboard/campaignboard/internal/accounts"
	"github.com/campaignboard/campaignboard/internal/activity"
	"github.com/campaignboard/campaignboard/internal/apiclient"
	"github.com/campaignboard/campaignboard/internal/campaigns"
	"github.com/campaignboard/campaignboard/internal/config"
	"github.com/campaignboard/campaignboard/internal/cookies"
	"github.com/campaignboard/campaignboard/internal/exports"
	"github.com/campaignboard/campaignboard/internal/logger"
	"github.com/campaignboard/campaignboard/internal/session"
	"github.com/campaignboard/campaignboard/internal/workers"
)

// Server represents the HTTP server
type Server struct {
	router          *gin.Engine
	config          *config.Config
	logger          zerolog.Logger
	store           *session.Store
	gate            *session.Gate
	jar             *cookies.Jar
	backends        *apiclient.Backends
	accountsService *accounts.Service
	exportsService  *exports.Service
	catalog         *campaigns.Catalog
	recorder        *activity.Recorder
	housekeeping    *workers.Housekeeping
	version         string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := activity.Open(cfg.Database.URL, zlog)
	if err != nil {
		return nil, err
	}
	recorder := activity.NewRecorder(db, logger.Component(zlog, "activity"))

	jar, err := cookies.NewJar(cfg.Cookies.Secret, cfg.Cookies.Secure)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	local, err := campaigns.LoadFile(cfg.Campaigns.File)
	if err != nil {
		// Titles fall back to campaign codes
		zlog.Warn().Err(err).Str("file", cfg.Campaigns.File).Msg("Failed to load campaign catalog")
	}

	backends := apiclient.NewBackends(cfg.API.URL, cfg.API.SecondaryURL, cfg.API.SecondaryCampaign)
	store := session.NewStore()

	housekeeping, err := workers.NewHousekeeping(
		store,
		recorder,
		time.Duration(cfg.Database.RetentionDays)*24*time.Hour,
		logger.Component(zlog, "housekeeping"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule housekeeping: %w", err)
	}

	server := &Server{
		config:          cfg,
		logger:          zlog,
		store:           store,
		gate:            session.NewGate(store, session.DefaultPaths(), logger.Component(zlog, "gate")),
		jar:             jar,
		backends:        backends,
		accountsService: accounts.NewService(backends, store, cfg.API.SecondaryUsers, logger.Component(zlog, "accounts")),
		exportsService:  exports.NewService(backends, logger.Component(zlog, "exports")),
		catalog:         campaigns.NewCatalog(local, backends.Primary),
		recorder:        recorder,
		housekeeping:    housekeeping,
		version:         version,
	}

	if err := server.setupRouter(); err != nil {
		return nil, err
	}

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() error {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	views, err := parseViews()
	if err != nil {
		return fmt.Errorf("failed to parse views: %w", err)
	}
	s.router.SetHTMLTemplate(views)

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	if len(s.config.Server.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.Server.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// No visitor or session needed
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/data/loading-status", s.getLoadingStatus)
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, s.gate.Paths().Dashboard)
	})

	pages := s.router.Group("")
	pages.Use(VisitorMiddleware(s.jar))
	{
		pages.POST("/login", s.login)
		pages.POST("/logout", s.logout)

		gated := pages.Group("")
		gated.Use(SessionGateMiddleware(s.gate, s.jar, s.accountsService, s.logger))
		{
			gated.GET("/login", s.loginPage)
			gated.GET("/dashboard", s.dashboard)
			gated.POST("/campaigns/:code/exports/:kind", s.downloadExport)

			admin := gated.Group("/data")
			admin.Use(AdminOnlyMiddleware(s.logger))
			{
				admin.POST("/reload", s.reloadData)
			}
		}
	}

	return nil
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "campaignboard",
		"version":   s.version,
	})
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and the housekeeping scheduler and blocks
// until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.Server.Address

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Exports can take a while on the API side
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      6 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.housekeeping.Start()

	go func() {
		s.logger.Info().Str("address", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	s.housekeeping.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Flush WAL writes
	if err := s.recorder.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	}

	return nil
}

// Close releases the database without serving, for tests
func (s *Server) Close() error {
	return s.recorder.Close()
}
