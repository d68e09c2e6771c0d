// internal/pkg/config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequiredConfig is returned when a required setting is empty
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Config holds all application configuration
type Config struct {
	// Application
	App AppConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Asynq
	Asynq AsynqConfig

	// AWS
	AWS AWSConfig

	// Security
	Security SecurityConfig

	// Server
	Server ServerConfig

	// Terminal
	POS POSConfig

	// Reports and background jobs
	Reports ReportsConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string `required:"true"`
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
	MigrationPath      string // empty uses the embedded migrations
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host            string `required:"true"`
	Port            string `required:"true"`
	Password        string
	DB              int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	MaxConnAge      time.Duration
	PoolTimeout     time.Duration
	IdleTimeout     time.Duration
	TTL             time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	Concurrency          int
	Queues               map[string]int // queue name -> priority
	StrictPriority       bool
	RetryMax             int
	ShutdownTimeout      time.Duration
	HealthCheckInterval  time.Duration
	DelayedTaskCheckTime time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
	SecretName      string // Secrets Manager entry holding DB_PASSWORD and REDIS_PASSWORD
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	TrustedProxies    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host              string
	Port              string `required:"true"`
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GracefulTimeout   time.Duration
	EnablePprof       bool
	EnableHealthCheck bool
	TLSEnabled        bool
	TLSCertFile       string
	TLSKeyFile        string
}

// POSConfig holds the checkout terminal settings
type POSConfig struct {
	InventoryURL         string `required:"true"`
	CartKey              string `required:"true"`
	PaymentMethod        string
	ScanTimeout          time.Duration // zero disables the inactivity reset
	NotificationDuration time.Duration
	CatalogTimeout       time.Duration
}

// ReportsConfig holds settings for the background jobs
type ReportsConfig struct {
	S3Prefix          string
	LocalDir          string // when set, reports are written here instead of S3
	Schedule          string
	LowStockThreshold int
	CatalogCacheTTL   time.Duration
}

// Load loads configuration from environment variables
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Load .env file in development
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	// Initialize viper
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetTypeByDefaultValue(true)

	// Optional config file; environment variables still win
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		logger.Info("config file loaded", slog.String("path", path))
	}

	// Set defaults
	setDefaults()

	redisHost := getEnv("REDIS_HOST", "localhost")
	redisPort := getEnv("REDIS_PORT", "6379")

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "minimarket"),
			Environment: env,
			Version:     getEnv("APP_VERSION", "dev"),
			LogLevel:    getEnv("LOG_LEVEL", "debug"),
			LogFormat:   getEnv("LOG_FORMAT", "json"),
			Debug:       getBoolEnv("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", "minimarket"),
			Password:           getEnv("DB_PASSWORD", "minimarket_dev"),
			Name:               getEnv("DB_NAME", "minimarket"),
			SSLMode:            getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(getIntEnv("DB_MAX_CONNECTIONS", 10)),
			MinConnections:     int32(getIntEnv("DB_MIN_CONNECTIONS", 2)),
			MaxConnLifetime:    getDurationEnv("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    getDurationEnv("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  getDurationEnv("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
			EnableQueryLogging: getBoolEnv("DB_QUERY_LOGGING", false),
			MigrationPath:      getEnv("DB_MIGRATION_PATH", ""),
		},
		Redis: RedisConfig{
			Host:            redisHost,
			Port:            redisPort,
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getIntEnv("REDIS_DB", 0),
			MaxRetries:      getIntEnv("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff: getDurationEnv("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: getDurationEnv("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			DialTimeout:     getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:        getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns:    getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			MaxConnAge:      getDurationEnv("REDIS_MAX_CONN_AGE", 0),
			PoolTimeout:     getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:     getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			TTL:             getDurationEnv("REDIS_TTL", time.Hour),
		},
		Asynq: AsynqConfig{
			RedisAddr:            fmt.Sprintf("%s:%s", redisHost, redisPort),
			RedisPassword:        getEnv("REDIS_PASSWORD", ""),
			RedisDB:              getIntEnv("ASYNQ_REDIS_DB", 0),
			Concurrency:          getIntEnv("ASYNQ_CONCURRENCY", 5),
			Queues:               parseQueues(getEnv("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:       getBoolEnv("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:             getIntEnv("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout:      getDurationEnv("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthCheckInterval:  getDurationEnv("ASYNQ_HEALTH_CHECK_INTERVAL", 30*time.Second),
			DelayedTaskCheckTime: getDurationEnv("ASYNQ_DELAYED_TASK_CHECK", 5*time.Second),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", "minioadmin"),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", "minioadmin123"),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "minimarket-reports"),
			S3Endpoint:      getEnv("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    getBoolEnv("AWS_S3_PATH_STYLE", env == "development"),
			SecretName:      getEnv("AWS_SECRET_NAME", ""),
		},
		Security: SecurityConfig{
			RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: getDurationEnv("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies:    getSliceEnv("TRUSTED_PROXIES", []string{}),
			SecureHeaders:     getBoolEnv("SECURE_HEADERS", env == "production"),
			RequestIDHeader:   getEnv("REQUEST_ID_HEADER", "X-Request-ID"),
		},
		Server: ServerConfig{
			Host:              getEnv("SERVER_HOST", "0.0.0.0"),
			Port:              getEnv("SERVER_PORT", "8080"),
			ReadTimeout:       getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:       getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:    getIntEnv("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			GracefulTimeout:   getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			EnablePprof:       getBoolEnv("ENABLE_PPROF", env == "development"),
			EnableHealthCheck: getBoolEnv("ENABLE_HEALTH_CHECK", true),
			TLSEnabled:        getBoolEnv("TLS_ENABLED", false),
			TLSCertFile:       getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:        getEnv("TLS_KEY_FILE", ""),
		},
		POS: POSConfig{
			InventoryURL:         getEnv("INVENTORY_URL", "http://localhost:8080"),
			CartKey:              getEnv("CART_STORAGE_KEY", "minimarket-cart"),
			PaymentMethod:        getEnv("PAYMENT_METHOD", "cash"),
			ScanTimeout:          getDurationEnv("SCAN_TIMEOUT", 500*time.Millisecond),
			NotificationDuration: getDurationEnv("NOTIFICATION_DURATION", 3*time.Second),
			CatalogTimeout:       getDurationEnv("CATALOG_TIMEOUT", 10*time.Second),
		},
		Reports: ReportsConfig{
			S3Prefix:          getEnv("REPORTS_S3_PREFIX", "reports/sales"),
			LocalDir:          getEnv("REPORTS_LOCAL_DIR", ""),
			Schedule:          getEnv("REPORTS_SCHEDULE", "@daily"),
			LowStockThreshold: getIntEnv("LOW_STOCK_THRESHOLD", 5),
			CatalogCacheTTL:   getDurationEnv("CATALOG_CACHE_TTL", 30*time.Second),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplySecrets overrides credentials with values held by a secrets provider.
// Keys missing from the provider leave the current value untouched.
func (c *Config) ApplySecrets(ctx context.Context, provider SecretsProvider) error {
	secrets, err := provider.GetSecrets(ctx, []string{"DB_PASSWORD", "REDIS_PASSWORD"})
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if v, ok := secrets["DB_PASSWORD"]; ok && v != "" {
		c.Database.Password = v
	}
	if v, ok := secrets["REDIS_PASSWORD"]; ok && v != "" {
		c.Redis.Password = v
		c.Asynq.RedisPassword = v
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}, &POSValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns host:port for the Redis server
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// Helper functions

func setDefaults() {
	viper.SetDefault("app.name", "minimarket")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// getEnv reads key through viper so both the environment and an optional
// config file are honored
func getEnv(key, defaultValue string) string {
	if value := viper.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := getEnv(key, ""); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// parseQueues parses "name:priority,name:priority"
func parseQueues(s string) map[string]int {
	queues := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		name, prio, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || name == "" {
			continue
		}
		p, err := strconv.Atoi(prio)
		if err != nil || p <= 0 {
			continue
		}
		queues[name] = p
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
