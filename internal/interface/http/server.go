// Package http implements the REST API of the hub: activity event
// ingest, leaderboard and season reads, and the administrative
// configuration surface.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/guildhub/guild-xp-hub/internal/application/command"
	"github.com/guildhub/guild-xp-hub/internal/application/query"
	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/infrastructure/metrics"
	"github.com/guildhub/guild-xp-hub/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes - maximum size of request bodies.
	MaxBodyBytes int64

	// EnableMetrics - enable the Prometheus metrics endpoint.
	EnableMetrics bool

	// APIKeyHeader - header name for API key authentication.
	APIKeyHeader string

	// AdminAPIKeys - valid API keys for the admin routes. Empty leaves
	// the admin surface open, which is only acceptable on a private
	// network.
	AdminAPIKeys []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
		MaxBodyBytes:   1 << 20,
		EnableMetrics:  true,
		APIKeyHeader:   "X-API-Key",
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// ActivityEnqueuer hands inbound activity events to the award pipeline.
type ActivityEnqueuer interface {
	Enqueue(ev member.ActivityEvent) error
}

// ProgressAdjuster applies manual experience or level corrections.
type ProgressAdjuster interface {
	Handle(ctx context.Context, cmd command.AdjustProgressCommand) (*command.AdjustProgressResult, error)
}

// SeasonCreator archives the current standings under a new season.
type SeasonCreator interface {
	Handle(ctx context.Context, cmd command.CreateSeasonCommand) (*command.CreateSeasonResult, error)
}

// SeasonDeleter removes an archived season.
type SeasonDeleter interface {
	Handle(ctx context.Context, cmd command.DeleteSeasonCommand) error
}

// SeasonRenamer changes a season's label.
type SeasonRenamer interface {
	Handle(ctx context.Context, cmd command.RenameSeasonCommand) error
}

// TempSeasonStarter starts a time-boxed season.
type TempSeasonStarter interface {
	Handle(ctx context.Context, cmd command.StartTemporarySeasonCommand) (*command.StartTemporarySeasonResult, error)
}

// TempSeasonStopper ends the running temporary season.
type TempSeasonStopper interface {
	Handle(ctx context.Context, cmd command.StopTemporarySeasonCommand) error
}

// GuildConfigurator mutates guild and member settings.
type GuildConfigurator interface {
	SetXPEnabled(ctx context.Context, cmd command.SetXPEnabledCommand) error
	SetAnnounceChannel(ctx context.Context, cmd command.SetAnnounceChannelCommand) error
	SetCategoryBlocked(ctx context.Context, cmd command.SetCategoryBlockedCommand) error
	SetMemberBlocked(ctx context.Context, cmd command.SetMemberBlockedCommand) error
	SetPingPreference(ctx context.Context, cmd command.SetPingPreferenceCommand) error
}

// LeaderboardReader serves leaderboard pages.
type LeaderboardReader interface {
	Handle(ctx context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error)
}

// RankReader serves single-member standings.
type RankReader interface {
	Handle(ctx context.Context, q query.GetRankQuery) (*query.GetRankResult, error)
}

// SeasonReader serves the season archive.
type SeasonReader interface {
	List(ctx context.Context, q query.ListSeasonsQuery) (*query.ListSeasonsResult, error)
	Scores(ctx context.Context, q query.GetSeasonScoresQuery) (*query.GetSeasonScoresResult, error)
	History(ctx context.Context, q query.UserHistoryQuery) (*query.UserHistoryResult, error)
}

// Dependencies contains everything the HTTP handlers call into.
type Dependencies struct {
	// Write side
	Enqueuer        ActivityEnqueuer
	AdjustProgress  ProgressAdjuster
	CreateSeason    SeasonCreator
	DeleteSeason    SeasonDeleter
	RenameSeason    SeasonRenamer
	StartTempSeason TempSeasonStarter
	StopTempSeason  TempSeasonStopper
	GuildSettings   GuildConfigurator

	// Read side
	GetLeaderboard LeaderboardReader
	GetRank        RankReader
	GetSeasons     SeasonReader

	// Ambient
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	HealthChecker handlers.HealthChecker
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     chi.Router
	logger     *slog.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and
// dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		config: config,
		deps:   deps,
		logger: deps.Logger.With("component", "http"),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(handlers.SecurityHeadersMiddleware)
	if s.config.MaxBodyBytes > 0 {
		r.Use(handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes))
	}
	if s.deps.Metrics != nil {
		r.Use(s.metricsMiddleware)
	}

	// Health and status
	r.Get("/healthz", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)

	if s.config.EnableMetrics && s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Activity ingest
		r.Post("/events", s.handleIngestEvent)

		r.Route("/guilds/{guildID}", func(r chi.Router) {
			// Public reads
			r.Get("/leaderboard", s.handleGetLeaderboard)
			r.Get("/members/{userID}/rank", s.handleGetRank)
			r.Get("/members/{userID}/history", s.handleGetMemberHistory)
			r.Get("/seasons", s.handleListSeasons)
			r.Get("/seasons/{label}/scores", s.handleGetSeasonScores)

			// Admin writes
			r.Group(func(r chi.Router) {
				r.Use(s.adminAuth())

				r.Post("/seasons", s.handleCreateSeason)
				r.Delete("/seasons/{label}", s.handleDeleteSeason)
				r.Post("/seasons/{label}/rename", s.handleRenameSeason)
				r.Post("/seasons/temporary", s.handleStartTempSeason)
				r.Delete("/seasons/temporary", s.handleStopTempSeason)

				r.Post("/members/{userID}/adjustments", s.handleAdjustProgress)
				r.Put("/members/{userID}/blocked", s.handleSetMemberBlocked)
				r.Put("/categories/{categoryID}/blocked", s.handleSetCategoryBlocked)
				r.Put("/settings/xp", s.handleSetXPEnabled)
				r.Put("/settings/announce-channel", s.handleSetAnnounceChannel)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.adminAuth())
			r.Put("/users/{userID}/ping", s.handleSetPingPreference)
		})
	})

	return r
}

// adminAuth returns the API key middleware, or a pass-through when no
// keys are configured.
func (s *Server) adminAuth() func(http.Handler) http.Handler {
	if len(s.config.AdminAPIKeys) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	auth := handlers.NewAPIKeyAuth(s.config.APIKeyHeader, s.config.AdminAPIKeys)
	return auth.Middleware
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// loggingMiddleware logs every request with its chi route pattern.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// metricsMiddleware records request counters and latency by route
// pattern, so path parameters do not explode label cardinality.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		s.deps.Metrics.HTTPRequests.WithLabelValues(
			r.Method, route, strconv.Itoa(ww.Status()),
		).Inc()
		s.deps.Metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", "address", s.config.Address())

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response envelope.
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}
