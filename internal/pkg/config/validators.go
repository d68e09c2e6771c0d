// internal/pkg/config/validators.go
package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

// Validator checks one aspect of the configuration
type Validator interface {
	Validate(cfg *Config) error
}

// BasicValidator performs basic configuration validation
type BasicValidator struct{}

// Validate performs basic validation
func (v *BasicValidator) Validate(cfg *Config) error {
	// Validate required fields using reflection
	if err := validateRequiredFields(cfg); err != nil {
		return err
	}

	// Validate numeric ranges
	if cfg.Database.MaxConnections < cfg.Database.MinConnections {
		return fmt.Errorf("database max_connections must be >= min_connections")
	}

	if cfg.Redis.PoolSize <= 0 {
		return fmt.Errorf("redis pool_size must be positive")
	}

	if cfg.Security.RateLimitRequests <= 0 {
		return fmt.Errorf("rate_limit_requests must be positive")
	}

	return nil
}

// POSValidator checks the terminal and report settings
type POSValidator struct{}

// Validate checks the inventory URL, the default payment method and durations
func (v *POSValidator) Validate(cfg *Config) error {
	u, err := url.Parse(cfg.POS.InventoryURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("inventory url %q must be an absolute http(s) url", cfg.POS.InventoryURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("inventory url scheme %q is not supported", u.Scheme)
	}

	if _, err := domain.ParsePaymentMethod(cfg.POS.PaymentMethod); err != nil {
		return fmt.Errorf("payment method: %w", err)
	}

	if cfg.POS.ScanTimeout < 0 {
		return fmt.Errorf("scan timeout must not be negative")
	}
	if cfg.POS.NotificationDuration <= 0 {
		return fmt.Errorf("notification duration must be positive")
	}
	if cfg.POS.CatalogTimeout < 0 {
		return fmt.Errorf("catalog timeout must not be negative")
	}

	if cfg.Reports.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold must not be negative")
	}
	if cfg.Reports.CatalogCacheTTL <= 0 {
		return fmt.Errorf("catalog cache ttl must be positive")
	}

	return nil
}

// ProductionValidator performs strict validation for production environments
type ProductionValidator struct{}

// Validate performs production-specific validation
func (v *ProductionValidator) Validate(cfg *Config) error {
	// Check for placeholder values
	if cfg.Database.Password == "" || strings.Contains(cfg.Database.Password, "MISSING_") {
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	}

	if cfg.Database.Password == "minimarket_dev" {
		return fmt.Errorf("default database password cannot be used in production")
	}

	// Ensure secure defaults in production
	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("database SSL must be enabled in production")
	}

	if !cfg.Security.SecureHeaders {
		return fmt.Errorf("secure headers must be enabled in production")
	}

	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}

	// Ensure proper TLS configuration
	if cfg.Server.TLSEnabled {
		if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
			return fmt.Errorf("TLS cert and key files must be provided when TLS is enabled")
		}
	}

	return nil
}

// validateRequiredFields uses reflection to check required struct tags
func validateRequiredFields(cfg interface{}) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	return validateStruct(v, "")
}

func validateStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		fieldName := fieldType.Name

		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		// Check for required tag
		if required := fieldType.Tag.Get("required"); required == "true" {
			if isZeroValue(field) {
				return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, fieldName)
			}
		}

		// Recursively check nested structs
		if field.Kind() == reflect.Struct {
			if err := validateStruct(field, fieldName); err != nil {
				return err
			}
		}
	}

	return nil
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == "" || strings.HasPrefix(v.String(), "MISSING_")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
