// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/kitchen/internal/application/assistant"
	"github.com/alchemorsel/kitchen/internal/application/catalog"
	"github.com/alchemorsel/kitchen/internal/application/rating"
	"github.com/alchemorsel/kitchen/internal/application/user"
	domainuser "github.com/alchemorsel/kitchen/internal/domain/user"
	"github.com/alchemorsel/kitchen/internal/infrastructure/ai"
	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/server"
	"github.com/alchemorsel/kitchen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/database"
	gormRepo "github.com/alchemorsel/kitchen/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/memory"
	redisRepo "github.com/alchemorsel/kitchen/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/kitchen/internal/infrastructure/security"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/alchemorsel/kitchen/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New assembles the application around an already loaded configuration
func New(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		Module,
	)
}

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	LoggerModule,
	DatabaseModule,
	CacheModule,
	MonitoringModule,
	SecurityModule,

	// Repository modules
	RepositoryModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HealthModule,
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides the relational store
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := database.Open(ctx, cfg, log)
		if err != nil {
			return nil, err
		}

		if cfg.Database.Seed {
			if _, err := database.SeedCatalog(ctx, gormRepo.NewRecipeRepository(db), log); err != nil {
				_ = database.Close(db)
				return nil, fmt.Errorf("failed to seed catalog: %w", err)
			}
		}

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return database.Close(db)
			},
		})

		return db, nil
	},
)

// CacheModule provides the conversation store
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, error) {
		switch cfg.Cache.Driver {
		case "redis":
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			client, err := redisRepo.NewClient(ctx, &cfg.Redis, log)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return client.Close()
				},
			})
			return redisRepo.NewCacheRepository(client, cfg.Redis.KeyPrefix, log), nil

		case "memory", "":
			cache := memory.NewCacheRepository(cfg.Cache.CleanupInterval)
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return cache.Close()
				},
			})
			log.Info("Using in-memory cache")
			return cache, nil

		default:
			return nil, fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
		}
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	func(db *gorm.DB, log *zap.Logger) (*monitoring.MetricsCollector, error) {
		metrics := monitoring.NewMetricsCollector(log)

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if err := metrics.RegisterDB(sqlDB, "kitchen"); err != nil {
			return nil, err
		}
		return metrics, nil
	},
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tracer, err := monitoring.NewTracingProvider(monitoring.TracingConfigFrom(cfg), log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: tracer.Shutdown,
		})
		return tracer, nil
	},
)

// SecurityModule provides sessions, request validation and rate limiting
var SecurityModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*security.SessionManager, error) {
		return security.NewSessionManager(&cfg.Auth, log)
	},
	security.NewValidator,
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *security.RateLimiter {
		interval := cfg.RateLimit.CleanupInterval
		limiter := security.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, interval)
		if !cfg.RateLimit.Enable || interval <= 0 {
			return limiter
		}

		stop := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					ticker := time.NewTicker(interval)
					defer ticker.Stop()
					for {
						select {
						case <-ticker.C:
							if removed := limiter.Cleanup(); removed > 0 {
								log.Debug("Pruned idle rate limit buckets", zap.Int("removed", removed))
							}
						case <-stop:
							return
						}
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				close(stop)
				return nil
			},
		})
		return limiter
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormRepo.NewUserRepository,
	gormRepo.NewRecipeRepository,
	gormRepo.NewRatingRepository,

	// Ratings only need catalog lookups
	func(recipes outbound.RecipeRepository) outbound.RecipeCatalog {
		return recipes
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config) *domainuser.PasswordHasher {
		return domainuser.NewPasswordHasher(cfg.Auth.PBKDF2Iterations)
	},
	func(cfg *config.Config, log *zap.Logger) outbound.ChatCompleter {
		return ai.NewChatCompleter(&cfg.AI, log)
	},

	fx.Annotate(
		user.NewUserService,
		fx.As(new(inbound.UserService)),
	),
	fx.Annotate(
		rating.NewRatingService,
		fx.As(new(inbound.RatingService)),
	),
	fx.Annotate(
		catalog.NewCatalogService,
		fx.As(new(inbound.CatalogService)),
	),
	fx.Annotate(
		func(cache outbound.CacheRepository, completer outbound.ChatCompleter, cfg *config.Config, log *zap.Logger) *assistant.AssistantService {
			return assistant.NewAssistantService(cache, completer, assistant.Options{
				HistorySize:  cfg.AI.HistorySize,
				HistoryTTL:   cfg.AI.HistoryTTL,
				SystemPrompt: cfg.AI.SystemPrompt,
			}, log)
		},
		fx.As(new(inbound.AssistantService)),
	),
)

// HealthModule provides the dependency health report
var HealthModule = fx.Provide(
	func(cfg *config.Config, db *gorm.DB, cache outbound.CacheRepository, log *zap.Logger) (*healthcheck.HealthCheck, error) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		health := healthcheck.New(cfg.App.Version, log)
		health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
		health.Register("cache", healthcheck.NewPingChecker("cache", cache))
		health.Register("assistant", healthcheck.NewCustomChecker("assistant",
			func(ctx context.Context) (healthcheck.Status, string, interface{}) {
				provider := cfg.AI.Provider
				if provider == ai.OfflineModel || (provider == "openai" && cfg.AI.APIKey == "") {
					return healthcheck.StatusDegraded, "Assistant replies are offline", map[string]string{"provider": ai.OfflineModel}
				}
				return healthcheck.StatusHealthy, "Assistant provider configured", map[string]string{
					"provider": provider,
					"model":    cfg.AI.Model,
				}
			},
		))
		return health, nil
	},
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	func(users inbound.UserService, sessions *security.SessionManager, validator *security.Validator, metrics *monitoring.MetricsCollector, cfg *config.Config, log *zap.Logger) *handlers.AuthHandlers {
		return handlers.NewAuthHandlers(users, sessions, validator, metrics, cfg.Auth.OAuthCallbackKey, log)
	},
	handlers.NewCatalogHandlers,
	handlers.NewRatingHandlers,
	handlers.NewAssistantHandlers,
	func(
		auth *handlers.AuthHandlers,
		catalogHandlers *handlers.CatalogHandlers,
		ratings *handlers.RatingHandlers,
		assistantHandlers *handlers.AssistantHandlers,
		sessions *security.SessionManager,
		limiter *security.RateLimiter,
		metrics *monitoring.MetricsCollector,
		health *healthcheck.HealthCheck,
	) server.Dependencies {
		return server.Dependencies{
			Auth:      auth,
			Catalog:   catalogHandlers,
			Ratings:   ratings,
			Assistant: assistantHandlers,
			Sessions:  sessions,
			Limiter:   limiter,
			Metrics:   metrics,
			Health:    health,
		}
	},
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks starts the HTTP server after every dependency is up
// and drains it first on shutdown
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	tracer *monitoring.TracingProvider,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Kitchen",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.Bool("tracing", tracer.Enabled()),
			)
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Kitchen")

			shutdownCtx := ctx
			if cfg.Server.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				shutdownCtx, cancel = context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
				defer cancel()
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
