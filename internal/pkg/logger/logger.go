// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	// Context keys for logging
	ContextKeyRequestID  ContextKey = "request_id"
	ContextKeyTerminalID ContextKey = "terminal_id"
	ContextKeySaleID     ContextKey = "sale_id"
	ContextKeyTaskID     ContextKey = "task_id"
	ContextKeyClientIP   ContextKey = "client_ip"
	ContextKeyUserAgent  ContextKey = "user_agent"
	ContextKeyMethod     ContextKey = "method"
	ContextKeyPath       ContextKey = "path"
	ContextKeyStatusCode ContextKey = "status_code"
	ContextKeyDuration   ContextKey = "duration_ms"

	loggerKey ContextKey = "logger"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level          string         `json:"level"`
	Format         string         `json:"format"` // json, text
	Output         string         `json:"output"` // stdout, stderr, file:<path>
	AddSource      bool           `json:"add_source"`
	SampleRate     float64        `json:"sample_rate"`
	EnableSampling bool           `json:"enable_sampling"`
	Environment    string         `json:"environment"`
	ServiceName    string         `json:"service_name"`
	ServiceVersion string         `json:"service_version"`
	Fields         map[string]any `json:"fields"`

	// Writer overrides Output when set
	Writer io.Writer `json:"-"`
}

// SetupLogger builds the process logger on stdout and installs it as the
// slog default
func SetupLogger(level string, format string) *slog.Logger {
	return Setup(&LogConfig{
		Level:          level,
		Format:         format,
		Output:         "stdout",
		AddSource:      true,
		ServiceName:    os.Getenv("SERVICE_NAME"),
		ServiceVersion: os.Getenv("SERVICE_VERSION"),
		Environment:    os.Getenv("APP_ENV"),
	})
}

// Setup builds a logger from config and installs it as the slog default
func Setup(config *LogConfig) *slog.Logger {
	logger := New(config)
	slog.SetDefault(logger)
	return logger
}

// New creates a logger: a json or text handler wrapped for context
// extraction, optional sampling and redaction of sensitive values.
func New(config *LogConfig) *slog.Logger {
	if config == nil {
		config = &LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		}
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(config.Level),
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return replaceAttr(config, groups, a)
		},
	}

	writer := config.Writer
	if writer == nil {
		writer = getWriter(config.Output)
	}

	var handler slog.Handler
	switch config.Format {
	case "text":
		handler = NewPrettyTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	handler = NewContextHandler(handler)

	if config.EnableSampling && config.SampleRate > 0 && config.SampleRate < 1.0 {
		handler = NewSamplingHandler(handler, config.SampleRate)
	}

	handler = NewSanitizationHandler(handler)

	var attrs []slog.Attr
	if config.ServiceName != "" {
		attrs = append(attrs, slog.String("service_name", config.ServiceName))
	}
	if config.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", config.ServiceVersion))
	}
	if config.Environment != "" {
		attrs = append(attrs, slog.String("env", config.Environment))
	}
	for k, v := range config.Fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return slog.New(handler)
}

// WithValue stores a loggable value under key
func WithValue(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// WithRequestID stores a request id, generating one when id is empty
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// RequestID returns the request id carried by ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

// WithLogger adds logger to context
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts logger from context or returns the default
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// Helper functions

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getWriter(output string) io.Writer {
	switch output {
	case "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		if strings.HasPrefix(output, "file:") {
			filename := strings.TrimPrefix(output, "file:")
			file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return os.Stdout
			}
			return file
		}
		return os.Stdout
	}
}

func defaultContextKeys() []ContextKey {
	return []ContextKey{
		ContextKeyRequestID,
		ContextKeyTerminalID,
		ContextKeySaleID,
		ContextKeyTaskID,
		ContextKeyClientIP,
		ContextKeyUserAgent,
		ContextKeyMethod,
		ContextKeyPath,
		ContextKeyStatusCode,
		ContextKeyDuration,
	}
}

func extractContextAttrs(ctx context.Context, keys []ContextKey) []slog.Attr {
	var attrs []slog.Attr

	for _, key := range keys {
		val := ctx.Value(key)
		if val == nil {
			continue
		}
		keyStr := string(key)
		switch v := val.(type) {
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(keyStr, v))
			}
		case int:
			attrs = append(attrs, slog.Int(keyStr, v))
		case int64:
			attrs = append(attrs, slog.Int64(keyStr, v))
		case time.Duration:
			attrs = append(attrs, slog.Duration(keyStr, v))
		case uuid.UUID:
			attrs = append(attrs, slog.String(keyStr, v.String()))
		default:
			attrs = append(attrs, slog.Any(keyStr, v))
		}
	}

	return attrs
}

func replaceAttr(config *LogConfig, _ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
		}
	}

	// Rename level key for some log aggregators
	if a.Key == slog.LevelKey && config.Format != "text" {
		a.Key = "severity"
	}

	if strings.HasSuffix(a.Key, "_ms") {
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Milliseconds()))
		}
	}

	return a
}
