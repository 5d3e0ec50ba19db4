// Package server wires the JSON API routes onto a chi router and runs the
// HTTP server
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/kitchen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/kitchen/internal/infrastructure/security"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Dependencies are the collaborators the router dispatches to
type Dependencies struct {
	Auth      *handlers.AuthHandlers
	Catalog   *handlers.CatalogHandlers
	Ratings   *handlers.RatingHandlers
	Assistant *handlers.AssistantHandlers
	Sessions  *security.SessionManager
	Limiter   *security.RateLimiter
	Metrics   *monitoring.MetricsCollector
	Health    *healthcheck.HealthCheck
}

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	deps    Dependencies
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, deps Dependencies, logger *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: logger.Named("http"),
		deps:   deps,
	}

	s.handler = otelhttp.NewHandler(s.setupRouter(), "kitchen-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != cfg.Monitoring.HealthPath && r.URL.Path != cfg.Monitoring.MetricsPath
		}),
	)

	s.server = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           s.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s
}

// Handler returns the fully wrapped root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *chi.Mux {
	cfg := s.config
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RealIP(s.trustedProxies()))
	r.Use(middleware.Logger(s.logger, cfg.Monitoring.HealthPath, cfg.Monitoring.MetricsPath))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security(cfg.IsProduction()))
	if cfg.Server.EnableCORS {
		r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	}
	if cfg.Monitoring.EnableMetrics {
		r.Use(s.deps.Metrics.HTTPMiddleware)
	}
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}
	if cfg.Server.EnableCompression {
		r.Use(newCompressor().Handler)
	}
	r.Use(middleware.Session(s.deps.Sessions, s.logger))

	// Operations
	r.Get(cfg.Monitoring.HealthPath, s.deps.Health.Handler())
	if cfg.Monitoring.EnableMetrics {
		r.Handle(cfg.Monitoring.MetricsPath, s.deps.Metrics.Handler())
	}

	authLimit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit.Enable {
		authLimit = middleware.RateLimit(s.deps.Limiter, s.logger)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.JSONOnly())
		r.With(authLimit).Post("/oauth/callback", s.deps.Auth.OAuthCallback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.JSONOnly())
		s.setupAPIRoutes(r, authLimit)
	})

	return r
}

// trustedProxies returns the proxies allowed to set the client address.
// Validate has already rejected malformed entries.
func (s *Server) trustedProxies() []*net.IPNet {
	trusted, err := s.config.Server.TrustedProxyNets()
	if err != nil {
		s.logger.Error("Ignoring server.trusted_proxies", zap.Error(err))
		return nil
	}
	return trusted
}

// newCompressor negotiates br ahead of gzip and deflate for JSON responses
func newCompressor() *chimiddleware.Compressor {
	compressor := chimiddleware.NewCompressor(5, "application/json", "text/plain")
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return compressor
}

// setupAPIRoutes configures the JSON API
func (s *Server) setupAPIRoutes(r chi.Router, authLimit func(http.Handler) http.Handler) {
	auth := s.deps.Auth
	catalog := s.deps.Catalog
	ratings := s.deps.Ratings
	assistant := s.deps.Assistant

	// Accounts
	r.With(authLimit).Post("/signup", auth.Signup)
	r.With(authLimit).Post("/login", auth.Login)
	r.Post("/logout", auth.Logout)

	// Catalog
	r.Get("/recipes", catalog.ListRecipes)
	r.Get("/search", catalog.Search)
	r.Get("/surprise", catalog.Surprise)
	r.Get("/recipe/{id}", catalog.GetRecipe)
	r.Get("/countries", catalog.Countries)
	r.Get("/cuisines", catalog.Cuisines)

	// Public ratings view; the session, when present, adds the caller's own
	r.Get("/ratings/{id}", ratings.GetRatings)

	// Session required
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/user", auth.CurrentUser)
		r.Get("/user/ratings", ratings.GetUserRatings)

		r.Post("/rate-recipe", ratings.RateRecipe)
		r.Post("/ratings/{id}", ratings.SubmitRating)

		r.Post("/assistant/chat", assistant.Chat)
		r.Delete("/assistant/history", assistant.ClearHistory)
	})
}

// Start binds the listen address and serves in the background. Bind errors
// are returned; errors after that are logged.
func (s *Server) Start() error {
	if err := http2.ConfigureServer(s.server, nil); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("Starting HTTP server",
		zap.String("address", listener.Addr().String()),
		zap.String("environment", s.config.App.Environment),
	)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
