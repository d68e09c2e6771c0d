// cmd/inventory/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/minimarket-pos/internal/adapters/db"
	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/adapters/storage"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/handlers"
	"github.com/ammerola/minimarket-pos/internal/handlers/middleware"
	"github.com/ammerola/minimarket-pos/internal/pkg/config"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
	"github.com/ammerola/minimarket-pos/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	// Initialize structured logger
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting minimarket inventory service",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	// Load configuration
	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create application context
	ctx := context.Background()

	if cfg.AWS.SecretName != "" {
		sm, err := config.NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.AWS.SecretName, slogger)
		if err == nil {
			err = cfg.ApplySecrets(ctx, sm)
		}
		if err != nil {
			slogger.Error("failed to load secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	// Initialize dependencies
	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	// Run database migrations if enabled
	if cfg.App.Environment != "production" {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		}
	}

	// Setup HTTP server
	server := setupHTTPServer(cfg, deps, slogger)

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go pruneRateLimiter(pruneCtx, deps.rateLimiter, cfg.Security.RateLimitDuration)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		// In-flight sale commits are allowed to finish
		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	rateLimiter    *middleware.RateLimiter
	routes         *handlers.Routes
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            cfg.GetRedisAddr(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		ConnMaxLifetime: cfg.Redis.MaxConnAge,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		ConnMaxIdleTime: cfg.Redis.IdleTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)

	logger.Info("initializing Asynq client")

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)
	enqueuer := workers.NewEnqueuer(deps.asynqClient, logger)

	reports, err := storage.NewReportStorage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, cfg.Reports.LocalDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize report storage: %w", err)
	}

	// Initialize repositories
	productRepo := db.NewProductRepository(database, logger)
	saleRepo := db.NewSaleRepository(database, logger)

	// Initialize services
	var salesService ports.SalesService = services.NewSalesService(
		productRepo, saleRepo, cache, enqueuer, cfg.Reports.CatalogCacheTTL, logger)

	prefix := cfg.Reports.S3Prefix
	deps.routes = &handlers.Routes{
		Products: handlers.NewProductHandler(salesService, logger),
		Sales:    handlers.NewSaleHandler(salesService, logger),
		Reports: handlers.NewReportHandler(enqueuer, reports,
			func(day string) string { return workers.DailyReportKey(prefix, day) }, logger),
	}
	if cfg.Server.EnableHealthCheck {
		deps.routes.Health = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector,
			cfg.App.Version, cfg.App.Environment, logger)
	}

	if cfg.Security.RateLimitRequests > 0 {
		deps.rateLimiter = middleware.NewRateLimiter(cfg.Security.RateLimitRequests,
			cfg.Security.RateLimitDuration, cfg.Security.TrustedProxies)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	deps.routes.Register(mux)

	// Outermost first
	var chain []middleware.Middleware
	if cfg.Security.SecureHeaders {
		chain = append(chain, middleware.SecureHeaders)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		chain = append(chain, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.App.Environment != "test" {
		chain = append(chain,
			middleware.RequestID(cfg.Security.RequestIDHeader),
			middleware.Logger(logger, cfg.Security.TrustedProxies),
			middleware.Recovery(logger),
		)
	}
	if deps.rateLimiter != nil {
		chain = append(chain, deps.rateLimiter.Middleware)
	}

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, chain...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

// pruneRateLimiter drops idle clients once per window
func pruneRateLimiter(ctx context.Context, rl *middleware.RateLimiter, window time.Duration) {
	if rl == nil || window <= 0 {
		return
	}
	ticker := time.NewTicker(window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune(window)
		}
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3)
}
