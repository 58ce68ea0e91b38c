// Package server provides the HTTP server and routing for Quotient.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/config"
	"github.com/bidfoundry/quotient/internal/di"
	analyticshandlers "github.com/bidfoundry/quotient/internal/modules/analytics/handlers"
	matchinghandlers "github.com/bidfoundry/quotient/internal/modules/matching/handlers"
	pricinghandlers "github.com/bidfoundry/quotient/internal/modules/pricing/handlers"
	rankinghandlers "github.com/bidfoundry/quotient/internal/modules/ranking/handlers"
	refdatahandlers "github.com/bidfoundry/quotient/internal/modules/refdata/handlers"
	settingshandlers "github.com/bidfoundry/quotient/internal/modules/settings/handlers"
	tendershandlers "github.com/bidfoundry/quotient/internal/modules/tenders/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Port      int
	DevMode   bool
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	liveFeed       *LiveFeed
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.Container.Databases(),
		cfg.Container.HealthService,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      cfg.Container,
		systemHandlers: systemHandlers,
		liveFeed:       NewLiveFeed(cfg.Container.EventBus, cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check (liveness + per-database detail)
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Live event feed (websocket) - before the JSON routes
		r.Get("/live", s.liveFeed.ServeHTTP)

		// System monitoring
		r.Route("/system", func(r chi.Router) {
			r.Get("/info", s.systemHandlers.HandleSystemInfo)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			r.Get("/disk", s.systemHandlers.HandleDiskUsage)
		})

		// Dashboard rollup (tender KPIs + analytics summary)
		r.Get("/dashboard", s.handleDashboard)

		// Pricing module: ad-hoc quotes and the bid audit ledger
		pricingHandler := pricinghandlers.NewHandler(s.container.PricingService, s.log)
		pricingHandler.RegisterRoutes(r)

		// Tenders module: lifecycle, line items, pricing runs, bid history
		tenderHandler := tendershandlers.NewHandler(s.container.TenderService, s.log)
		tenderHandler.RegisterRoutes(r)

		// Matching module: requirement -> ranked SKU matches
		matchingHandler := matchinghandlers.NewHandler(s.container.MatchingService, s.log)
		matchingHandler.RegisterRoutes(r)

		// Ranking module: priority queue and re-rank triggers
		rankingHandler := rankinghandlers.NewHandler(s.container.RankingService, s.log)
		rankingHandler.RegisterRoutes(r)

		// Analytics module: competitive landscape and bid statistics
		analyticsHandler := analyticshandlers.NewHandler(s.container.AnalyticsService, s.log)
		analyticsHandler.RegisterRoutes(r)

		// Reference data: reads are open, mutations are admin-gated
		refdataHandler := refdatahandlers.NewHandler(s.container.RefdataService, s.log)
		r.Group(func(r chi.Router) {
			r.Use(s.adminGate("PUT", "POST", "DELETE"))
			refdataHandler.RegisterRoutes(r)
		})

		// Settings: reads are open, mutations are admin-gated
		settingsHandler := settingshandlers.NewHandler(s.container.SettingsService, s.container.EventManager, s.log)
		r.Group(func(r chi.Router) {
			r.Use(s.adminGate("PUT", "POST", "DELETE"))
			settingsHandler.RegisterRoutes(r)
		})

		// Work processor: job status, history, manual triggers
		if s.container.WorkComponents != nil && s.container.WorkComponents.Handlers != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.adminGate("PUT", "POST", "DELETE"))
				s.container.WorkComponents.Handlers.RegisterRoutes(r)
			})
		}

		// Backups: manual run, admin only
		r.With(s.adminGate("POST")).Post("/backup/run", s.handleBackupRun)
	})
}

// adminGate returns middleware that requires the X-Admin-Key header on the
// given methods. Reads pass through untouched. With no key configured the
// gate is open in dev mode and closed otherwise.
func (s *Server) adminGate(methods ...string) func(http.Handler) http.Handler {
	gated := make(map[string]bool, len(methods))
	for _, m := range methods {
		gated[m] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gated[r.Method] {
				next.ServeHTTP(w, r)
				return
			}

			if s.cfg.AdminKey == "" {
				if s.cfg.DevMode {
					next.ServeHTTP(w, r)
					return
				}
				s.log.Warn().Str("path", r.URL.Path).Msg("Mutation rejected: no admin key configured")
				http.Error(w, "Admin key not configured", http.StatusForbidden)
				return
			}

			if r.Header.Get("X-Admin-Key") != s.cfg.AdminKey {
				s.log.Warn().Str("path", r.URL.Path).Msg("Mutation rejected: bad admin key")
				http.Error(w, "Invalid admin key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Start starts the HTTP server and the live feed broadcaster
func (s *Server) Start() error {
	s.liveFeed.Start()
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.liveFeed.Stop()
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
