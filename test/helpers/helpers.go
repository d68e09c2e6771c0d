// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/minimarket-pos/internal/adapters/db"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container with the embedded migrations
// applied
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_minimarket",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_minimarket",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		EnableQueryLogging: testing.Verbose(),
	}

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
		TableName:  "schema_migrations",
		SchemaName: "public",
	}

	err = db.RunMigrationsWithRetry(context.Background(), migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-memory Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "minimarket-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_minimarket",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
			RequestIDHeader:   "X-Request-ID",
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		POS: config.POSConfig{
			InventoryURL:         "http://localhost:8080",
			CartKey:              "minimarket-cart",
			PaymentMethod:        "cash",
			ScanTimeout:          500 * time.Millisecond,
			NotificationDuration: 3 * time.Second,
			CatalogTimeout:       10 * time.Second,
		},
		Reports: config.ReportsConfig{
			S3Prefix:          "reports/sales",
			Schedule:          "@daily",
			LowStockThreshold: 5,
			CatalogCacheTTL:   30 * time.Second,
		},
	}
}

// CreateTestProduct creates a product; overrides adjust the defaults
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	p := &domain.Product{
		ID:             1,
		Code:           "REF001",
		Name:           "Refresco Cola 2L",
		UnitPrice:      1500,
		AvailableStock: 50,
		CategoryName:   "Bebidas",
		Active:         true,
	}
	for _, o := range overrides {
		o(p)
	}
	return p
}

// DemoCatalog returns the five demo products with ids 1..5
func DemoCatalog() []domain.Product {
	return []domain.Product{
		*CreateTestProduct(),
		*CreateTestProduct(func(p *domain.Product) {
			p.ID, p.Code, p.Name, p.UnitPrice, p.AvailableStock = 2, "AGUA002", "Agua Mineral 1.5L", 800, 100
		}),
		*CreateTestProduct(func(p *domain.Product) {
			p.ID, p.Code, p.Name, p.UnitPrice, p.AvailableStock = 3, "SNK003", "Papas Fritas Grandes", 1200, 30
			p.CategoryName = "Snacks"
		}),
		*CreateTestProduct(func(p *domain.Product) {
			p.ID, p.Code, p.Name, p.UnitPrice, p.AvailableStock = 4, "LCH004", "Leche Entera 1L", 1000, 40
			p.CategoryName = "Lácteos"
		}),
		*CreateTestProduct(func(p *domain.Product) {
			p.ID, p.Code, p.Name, p.UnitPrice, p.AvailableStock = 5, "PAN005", "Pan de Molde Blanco", 2500, 20
			p.CategoryName = "Panadería"
		}),
	}
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"TRUNCATE TABLE sale_items, sales, products, categories RESTART IDENTITY CASCADE")
	require.NoError(t, err, "Failed to truncate tables")
}

// RecordingNotifier collects notifications in memory
type RecordingNotifier struct {
	mu    sync.Mutex
	items []domain.Notification
}

var _ ports.Notifier = (*RecordingNotifier)(nil)

// Notify records n
func (r *RecordingNotifier) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns the notifications received so far
func (r *RecordingNotifier) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.items...)
}

// Last returns the most recent notification
func (r *RecordingNotifier) Last() (domain.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return domain.Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Reset forgets recorded notifications
func (r *RecordingNotifier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// MemoryCartStore is an in-memory cart store
type MemoryCartStore struct {
	mu      sync.Mutex
	lines   []domain.CartLine
	saves   int
	LoadErr error
	SaveErr error
}

var _ ports.CartStore = (*MemoryCartStore)(nil)

// Load returns the saved lines
func (m *MemoryCartStore) Load(_ context.Context) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return domain.CloneLines(m.lines), nil
}

// Save replaces the saved lines
func (m *MemoryCartStore) Save(_ context.Context, lines []domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.lines = domain.CloneLines(lines)
	return nil
}

// Lines returns the last saved lines
func (m *MemoryCartStore) Lines() []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneLines(m.lines)
}

// Saves returns how many times Save was called
func (m *MemoryCartStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
