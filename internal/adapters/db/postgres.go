// internal/adapters/db/postgres.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// Config holds database configuration
type Config struct {
	Host               string
	Port               string
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
}

// localConfig is used when no configuration is given: one terminal, one
// store, a handful of connections.
func localConfig() *Config {
	return &Config{
		Host:              "localhost",
		Port:              "5432",
		User:              "minimarket",
		Password:          "minimarket_dev",
		Database:          "minimarket",
		SSLMode:           "disable",
		MaxConnections:    10,
		MinConnections:    2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
		ConnectTimeout:    10 * time.Second,
	}
}

// Database owns the connection pool shared by the repositories
type Database struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ ports.DatabaseHealth = (*Database)(nil)

// NewDatabase opens the pool and fails unless the server answers a ping
func NewDatabase(ctx context.Context, config *Config, logger *slog.Logger) (*Database, error) {
	if config == nil {
		config = localConfig()
	}
	logger = logger.With(slog.String("component", "database"))

	poolConfig, err := poolConfigFor(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build pool config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		slog.String("host", config.Host),
		slog.String("database", config.Database),
		slog.Int("max_connections", int(config.MaxConnections)))

	return &Database{pool: pool, logger: logger}, nil
}

func poolConfigFor(config *Config, logger *slog.Logger) (*pgxpool.Config, error) {
	connString := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		config.Host, config.Port, config.User, config.Password,
		config.Database, config.SSLMode, int(config.ConnectTimeout.Seconds()),
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = config.MaxConnections
	poolConfig.MinConns = config.MinConnections
	poolConfig.MaxConnLifetime = config.MaxConnLifetime
	poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = config.HealthCheckPeriod

	// Catalog and sale queries are few and repeated on every request.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe

	if config.EnableQueryLogging {
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   tracelog.LoggerFunc(slogTrace(logger.With(slog.String("component", "pgx")))),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	return poolConfig, nil
}

// Pool exposes the pool for migrations and test fixtures
func (db *Database) Pool() *pgxpool.Pool {
	return db.pool
}

// Close releases every connection
func (db *Database) Close() {
	db.pool.Close()
	db.logger.Info("database connections closed")
}

// Ping verifies database connectivity
func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Health reports pool usage for the health endpoint
func (db *Database) Health(_ context.Context) map[string]interface{} {
	stats := db.pool.Stat()
	return map[string]interface{}{
		"total_connections":    stats.TotalConns(),
		"idle_connections":     stats.IdleConns(),
		"acquired_connections": stats.AcquiredConns(),
		"max_connections":      stats.MaxConns(),
		"acquire_waits":        stats.EmptyAcquireCount(),
		"canceled_acquires":    stats.CanceledAcquireCount(),
	}
}

// InTx runs fn in a transaction with the given options. fn's error, or a
// panic, rolls the transaction back.
func (db *Database) InTx(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// slogTrace maps pgx trace levels onto slog
func slogTrace(logger *slog.Logger) func(context.Context, tracelog.LogLevel, string, map[string]any) {
	return func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		attrs := make([]slog.Attr, 0, len(data))
		for k, v := range data {
			attrs = append(attrs, slog.Any(k, v))
		}

		lvl := slog.LevelDebug
		switch level {
		case tracelog.LogLevelError:
			lvl = slog.LevelError
		case tracelog.LogLevelWarn:
			lvl = slog.LevelWarn
		case tracelog.LogLevelInfo:
			lvl = slog.LevelInfo
		}
		logger.LogAttrs(ctx, lvl, msg, attrs...)
	}
}

// scanAll collects every row with scan, closing rows when done
func scanAll[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var results []T
	for rows.Next() {
		entity, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
