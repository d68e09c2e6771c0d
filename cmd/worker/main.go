// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/minimarket-pos/internal/adapters/db"
	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/adapters/storage"
	"github.com/ammerola/minimarket-pos/internal/pkg/config"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
	"github.com/ammerola/minimarket-pos/internal/workers"
)

func main() {
	// Setup logger
	slogger := logger.SetupLogger("info", "json")

	// Load configuration
	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

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
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr),
		slog.String("report_schedule", cfg.Reports.Schedule))

	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer redisClient.Close()

	reports, err := storage.NewReportStorage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, cfg.Reports.LocalDir, slogger)
	if err != nil {
		slogger.Error("failed to initialize report storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	productRepo := db.NewProductRepository(database, slogger)
	saleRepo := db.NewSaleRepository(database, slogger)
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
		RetryDelayFunc:  exponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck,
		Logger:          newAsynqLogger(slogger),
	})

	// Create task handlers
	mux := asynq.NewServeMux()

	saleProcessor := workers.NewSaleProcessor(cache, productRepo, cfg.Reports.LowStockThreshold, slogger)
	mux.HandleFunc(workers.TypeSaleCommitted, saleProcessor.ProcessSaleCommitted)

	reportProcessor := workers.NewReportProcessor(saleRepo, reports, cfg.Reports.S3Prefix, slogger)
	mux.HandleFunc(workers.TypeDailySalesReport, reportProcessor.ProcessDailySalesReport)

	// Yesterday's report is produced on the configured schedule
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.Local,
		Logger:   newAsynqLogger(slogger),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				slogger.Error("failed to enqueue scheduled report", slog.String("error", err.Error()))
				return
			}
			slogger.Info("scheduled report enqueued", slog.String("task_id", info.ID))
		},
	})

	reportTask, err := workers.NewDailyReportTask("")
	if err != nil {
		slogger.Error("failed to build report task", slog.String("error", err.Error()))
		os.Exit(1)
	}
	entryID, err := scheduler.Register(cfg.Reports.Schedule, reportTask)
	if err != nil {
		slogger.Error("invalid report schedule",
			slog.String("schedule", cfg.Reports.Schedule),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	slogger.Info("report schedule registered", slog.String("entry_id", entryID))

	// Handle shutdown gracefully
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	if err := scheduler.Start(); err != nil {
		slogger.Error("failed to start scheduler", slog.String("error", err.Error()))
		srv.Shutdown()
		os.Exit(1)
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	// Wait for shutdown signal
	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     5, // Fewer connections for worker
		MinConnections:     1,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, logger)
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
