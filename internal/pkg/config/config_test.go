// internal/pkg/config/config_test.go
package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadWith(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "test")
	for k, v := range env {
		t.Setenv(k, v)
	}
	return Load(discardLogger())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadWith(t, nil)
	require.NoError(t, err)

	assert.Equal(t, "minimarket", cfg.App.Name)
	assert.Equal(t, "minimarket-cart", cfg.POS.CartKey)
	assert.Equal(t, "cash", cfg.POS.PaymentMethod)
	assert.Equal(t, 500*time.Millisecond, cfg.POS.ScanTimeout)
	assert.Equal(t, 3*time.Second, cfg.POS.NotificationDuration)
	assert.Equal(t, 10*time.Second, cfg.POS.CatalogTimeout)
	assert.Equal(t, 5, cfg.Reports.LowStockThreshold)
	assert.Equal(t, 30*time.Second, cfg.Reports.CatalogCacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Asynq.RedisAddr)
	assert.Equal(t, map[string]int{"critical": 6, "default": 3, "low": 1}, cfg.Asynq.Queues)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := loadWith(t, map[string]string{
		"INVENTORY_URL":         "https://inventory.local:9000",
		"CART_STORAGE_KEY":      "till-2",
		"PAYMENT_METHOD":        "tarjeta",
		"SCAN_TIMEOUT":          "0s",
		"NOTIFICATION_DURATION": "5s",
		"REDIS_HOST":            "cache",
		"ALLOWED_ORIGINS":       "http://a, http://b",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://inventory.local:9000", cfg.POS.InventoryURL)
	assert.Equal(t, "till-2", cfg.POS.CartKey)
	assert.Equal(t, "tarjeta", cfg.POS.PaymentMethod)
	assert.Zero(t, cfg.POS.ScanTimeout)
	assert.Equal(t, 5*time.Second, cfg.POS.NotificationDuration)
	assert.Equal(t, "cache:6379", cfg.GetRedisAddr())
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Security.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "relative_inventory_url", env: map[string]string{"INVENTORY_URL": "inventory:8080/api"}},
		{name: "unknown_payment_method", env: map[string]string{"PAYMENT_METHOD": "cheque"}},
		{name: "negative_scan_timeout", env: map[string]string{"SCAN_TIMEOUT": "-1s"}},
		{name: "zero_cache_ttl", env: map[string]string{"CATALOG_CACHE_TTL": "0s"}},
		{name: "pool_bounds", env: map[string]string{"DB_MAX_CONNECTIONS": "1", "DB_MIN_CONNECTIONS": "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadWith(t, tt.env)
			assert.Error(t, err)
		})
	}
}

func TestProductionValidator(t *testing.T) {
	cfg, err := loadWith(t, nil)
	require.NoError(t, err)

	cfg.App.Environment = "production"
	err = cfg.Validate()
	require.Error(t, err)

	cfg.Database.Password = "s3cret"
	cfg.Database.SSLMode = "require"
	cfg.Security.SecureHeaders = true
	cfg.Security.AllowedOrigins = []string{"https://pos.example.com"}
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	cfg, err := loadWith(t, nil)
	require.NoError(t, err)

	cfg.Database.Host = ""
	err = (&BasicValidator{}).Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingRequiredConfig))
	assert.Contains(t, err.Error(), "Database.Host")
}

func TestParseQueues(t *testing.T) {
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, parseQueues("a:2, b:1"))
	assert.Equal(t, map[string]int{"default": 1}, parseQueues("broken,:3,x:0"))
}

type fakeSecretsAPI struct {
	calls  int
	secret string
}

func (f *fakeSecretsAPI) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput,
	optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.secret)}, nil
}

func TestAWSSecretsManager_CachesAndApplies(t *testing.T) {
	api := &fakeSecretsAPI{secret: `{"DB_PASSWORD":"db-pass","REDIS_PASSWORD":"redis-pass"}`}
	sm := newAWSSecretsManager(api, "minimarket/prod", discardLogger())
	ctx := context.Background()

	val, err := sm.GetSecret(ctx, "DB_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "db-pass", val)

	cfg, err := loadWith(t, nil)
	require.NoError(t, err)
	require.NoError(t, cfg.ApplySecrets(ctx, sm))

	assert.Equal(t, "db-pass", cfg.Database.Password)
	assert.Equal(t, "redis-pass", cfg.Redis.Password)
	assert.Equal(t, "redis-pass", cfg.Asynq.RedisPassword)
	assert.Equal(t, 1, api.calls)

	_, err = sm.GetSecret(ctx, "MISSING")
	assert.Error(t, err)
}

func TestApplySecrets_KeepsMissingKeys(t *testing.T) {
	ctx := context.Background()
	api := &fakeSecretsAPI{secret: `{"REDIS_PASSWORD":"redis-pass"}`}
	sm := newAWSSecretsManager(api, "minimarket/prod", discardLogger())

	cfg := &Config{Database: DatabaseConfig{Password: "from-env"}}
	require.NoError(t, cfg.ApplySecrets(ctx, sm))

	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "redis-pass", cfg.Redis.Password)
	assert.Equal(t, "redis-pass", cfg.Asynq.RedisPassword)
}
