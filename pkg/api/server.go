// Package api exposes an explorer session over HTTP with gin.
//
// Every view intent maps to one route under /api/v1. Mutating routes answer
// with the resulting session state so the view can re-render without a
// second round trip.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/internal/ratelimiter"
	"github.com/marmos91/dittoexplorer/pkg/explorer"
	"github.com/marmos91/dittoexplorer/pkg/metrics"
)

// Config configures the API server.
type Config struct {
	// Address is the listen address (e.g., ":8080")
	Address string

	// Mode is the gin mode: debug, release or test
	Mode string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxUploadBytes caps a multipart upload request
	MaxUploadBytes int64

	// RateLimit throttles requests per client address
	RateLimit RateLimit

	// ServeMetrics mounts /metrics on the API router
	ServeMetrics bool
}

// RateLimit configures the per-client limiter.
type RateLimit struct {
	Enabled           bool
	RequestsPerSecond uint
	Burst             uint
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.Mode == "" {
		c.Mode = gin.ReleaseMode
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 512 << 20
	}
}

// Server is the HTTP front end of one explorer session.
type Server struct {
	cfg      Config
	session  *explorer.Session
	metrics  metrics.HTTPMetrics
	router   *gin.Engine
	handlers *Handlers

	server       *http.Server
	shutdownOnce sync.Once
}

// New creates a stopped API server for session. httpMetrics may be nil.
func New(session *explorer.Session, cfg Config, httpMetrics metrics.HTTPMetrics) *Server {
	cfg.applyDefaults()
	if httpMetrics == nil {
		httpMetrics = metrics.NewNoopHTTPMetrics()
	}

	gin.SetMode(cfg.Mode)
	router := gin.New()

	s := &Server{
		cfg:      cfg,
		session:  session,
		metrics:  httpMetrics,
		router:   router,
		handlers: NewHandlers(session, cfg.MaxUploadBytes, httpMetrics),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(RecoveryMiddleware())
	s.router.Use(LoggerMiddleware())
	s.router.Use(MetricsMiddleware(s.metrics))

	if s.cfg.RateLimit.Enabled {
		limiter := ratelimiter.NewKeyed(s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.Burst, 0)
		s.router.Use(RateLimitMiddleware(limiter, s.metrics))
	}
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)
	if s.cfg.ServeMetrics {
		if mh := metrics.Handler(); mh != nil {
			s.router.GET("/metrics", gin.WrapH(mh))
		}
	}
	s.router.GET("/media/*handle", h.GetMedia)

	v1 := s.router.Group("/api/v1")
	{
		// Session state
		v1.GET("/session", h.GetSession)
		v1.GET("/listing", h.GetListing)
		v1.PUT("/search", h.SetSearch)
		v1.PUT("/sort", h.SetSort)
		v1.POST("/sort/toggle", h.ToggleSort)

		// Navigation
		v1.POST("/navigate", h.Navigate)
		v1.POST("/back", h.Back)
		v1.POST("/forward", h.Forward)
		v1.POST("/up", h.Up)
		v1.POST("/open", h.Open)
		v1.POST("/tabs", h.NewTab)
		v1.DELETE("/tabs/:id", h.CloseTab)
		v1.POST("/tabs/:id/activate", h.ActivateTab)

		// Selection
		v1.POST("/select", h.Select)
		v1.POST("/selection/clear", h.ClearSelection)
		v1.POST("/marquee/begin", h.BeginMarquee)
		v1.POST("/marquee/update", h.UpdateMarquee)
		v1.POST("/marquee/end", h.EndMarquee)

		// Clipboard
		v1.POST("/cut", h.Cut)
		v1.POST("/copy", h.Copy)
		v1.POST("/paste", h.Paste)

		// Entities
		v1.POST("/folders", h.NewFolder)
		v1.POST("/rename", h.BeginRename)
		v1.POST("/rename/cancel", h.CancelRename)
		v1.GET("/entities/:id", h.GetEntity)
		v1.PATCH("/entities/:id", h.RenameEntity)
		v1.GET("/entities/:id/breadcrumbs", h.GetBreadcrumbs)
		v1.GET("/entities/:id/content", h.GetContent)
		v1.POST("/entities/:id/cover", h.SetCover)
		v1.POST("/move", h.Move)
		v1.POST("/upload", h.Upload)
		v1.GET("/drives/:id/usage", h.GetDriveUsage)

		// Delete and recycle bin
		v1.POST("/delete", h.RequestDelete)
		v1.POST("/empty-trash", h.RequestEmptyTrash)
		v1.POST("/confirm", h.Confirm)
		v1.POST("/cancel", h.Cancel)
		v1.POST("/restore", h.Restore)

		// Settings
		v1.GET("/settings", h.GetSettings)
		v1.PUT("/settings/theme", h.SetTheme)
		v1.POST("/settings/backgrounds", h.AddBackground)
		v1.DELETE("/settings/backgrounds", h.RemoveBackground)
		v1.PUT("/settings/user", h.SetUser)
		v1.PUT("/settings/user/pin", h.ChangePin)
	}
}

// Serve listens until ctx is cancelled or Stop is called.
func (s *Server) Serve(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening on %s", s.cfg.Address)
		err := s.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	}
}

// Stop shuts the server down gracefully. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("api server shutdown error: %w", err)
			logger.Error("API server shutdown error: %v", err)
			return
		}
		logger.Info("API server stopped")
	})
	return shutdownErr
}

// Name identifies the server in logs.
func (s *Server) Name() string {
	return "api server"
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.cfg.Address
}

// Router returns the gin engine (for testing).
func (s *Server) Router() *gin.Engine {
	return s.router
}
