// internal/pkg/logger/handlers.go
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ContextHandler extracts values from context and adds them to log records
type ContextHandler struct {
	handler slog.Handler
	keys    []ContextKey
}

// NewContextHandler creates a handler that enriches logs with context values
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{
		handler: handler,
		keys:    defaultContextKeys(),
	}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	// Extract context values and add as attributes
	if attrs := extractContextAttrs(ctx, h.keys); len(attrs) > 0 {
		record = record.Clone()
		record.AddAttrs(attrs...)
	}
	return h.handler.Handle(ctx, record)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		handler: h.handler.WithAttrs(attrs),
		keys:    h.keys,
	}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{
		handler: h.handler.WithGroup(name),
		keys:    h.keys,
	}
}

// SamplingHandler implements log sampling for high-volume production environments
type SamplingHandler struct {
	handler    slog.Handler
	sampleRate float64
	mu         *sync.Mutex
	rng        *rand.Rand
}

// NewSamplingHandler creates a handler that samples logs
func NewSamplingHandler(handler slog.Handler, sampleRate float64) *SamplingHandler {
	return &SamplingHandler{
		handler:    handler,
		sampleRate: sampleRate,
		mu:         &sync.Mutex{},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (h *SamplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// Always log warnings and errors
	if level >= slog.LevelWarn {
		return h.handler.Enabled(ctx, level)
	}

	// Sample info and debug logs
	h.mu.Lock()
	sample := h.rng.Float64() < h.sampleRate
	h.mu.Unlock()

	return sample && h.handler.Enabled(ctx, level)
}

func (h *SamplingHandler) Handle(ctx context.Context, record slog.Record) error {
	// Add sampling metadata
	record.AddAttrs(slog.Float64("sample_rate", h.sampleRate))
	return h.handler.Handle(ctx, record)
}

func (h *SamplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SamplingHandler{
		handler:    h.handler.WithAttrs(attrs),
		sampleRate: h.sampleRate,
		mu:         h.mu,
		rng:        h.rng,
	}
}

func (h *SamplingHandler) WithGroup(name string) slog.Handler {
	return &SamplingHandler{
		handler:    h.handler.WithGroup(name),
		sampleRate: h.sampleRate,
		mu:         h.mu,
		rng:        h.rng,
	}
}

// SanitizationHandler removes or masks sensitive data
type SanitizationHandler struct {
	handler   slog.Handler
	keyValue  *regexp.Regexp
	patterns  []*regexp.Regexp
	blacklist []string
}

// NewSanitizationHandler creates a handler that sanitizes sensitive data
func NewSanitizationHandler(handler slog.Handler) *SanitizationHandler {
	return &SanitizationHandler{
		handler:  handler,
		keyValue: regexp.MustCompile(`(?i)(password|pwd|pass|secret|token|auth|bearer|api[-_]?key)\s*[:=]\s*["']?([^"'\s]+)`),
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), // Email
			regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                               // SSN
			regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),                         // Credit card
		},
		blacklist: []string{
			"password", "pwd", "secret", "token", "auth",
			"credit_card", "card_number", "ssn", "api_key",
		},
	}
}

func (h *SanitizationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *SanitizationHandler) Handle(ctx context.Context, record slog.Record) error {
	// Sanitize message
	sanitizedMsg := h.sanitizeString(record.Message)
	newRecord := slog.NewRecord(record.Time, record.Level, sanitizedMsg, record.PC)

	// Sanitize attributes
	record.Attrs(func(a slog.Attr) bool {
		sanitized := h.sanitizeAttr(a)
		newRecord.AddAttrs(sanitized)
		return true
	})

	return h.handler.Handle(ctx, newRecord)
}

func (h *SanitizationHandler) sanitizeAttr(attr slog.Attr) slog.Attr {
	// Check if attribute key is sensitive
	lowerKey := strings.ToLower(attr.Key)
	for _, blacklisted := range h.blacklist {
		if strings.Contains(lowerKey, blacklisted) {
			attr.Value = slog.StringValue("***REDACTED***")
			return attr
		}
	}

	// Sanitize string values
	if s, ok := attr.Value.Any().(string); ok {
		attr.Value = slog.StringValue(h.sanitizeString(s))
	}

	return attr
}

func (h *SanitizationHandler) sanitizeString(s string) string {
	s = h.keyValue.ReplaceAllString(s, "$1=***REDACTED***")
	for _, pattern := range h.patterns {
		s = pattern.ReplaceAllString(s, "***REDACTED***")
	}
	return s
}

func (h *SanitizationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SanitizationHandler{
		handler:   h.handler.WithAttrs(attrs),
		keyValue:  h.keyValue,
		patterns:  h.patterns,
		blacklist: h.blacklist,
	}
}

func (h *SanitizationHandler) WithGroup(name string) slog.Handler {
	return &SanitizationHandler{
		handler:   h.handler.WithGroup(name),
		keyValue:  h.keyValue,
		patterns:  h.patterns,
		blacklist: h.blacklist,
	}
}

// PrettyTextHandler provides human-readable colored output for development
type PrettyTextHandler struct {
	opts  slog.HandlerOptions
	attrs []slog.Attr
	group string
	mu    *sync.Mutex
	w     io.Writer
}

// NewPrettyTextHandler creates a pretty text handler
func NewPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyTextHandler {
	h := &PrettyTextHandler{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *PrettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}
	return level >= threshold
}

func (h *PrettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	const resetColor = "\033[0m"

	var b strings.Builder
	level := r.Level.String()
	fmt.Fprintf(&b, "%s%s %-5s%s %s",
		h.getLevelColor(r.Level),
		r.Time.Format("2006-01-02 15:04:05.000"),
		level,
		resetColor,
		r.Message,
	)

	write := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}
		if a.Equal(slog.Attr{}) {
			return
		}
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fmt.Fprintf(&b, " \033[36m%s\033[0m=%v", key, a.Value)
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *PrettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *PrettyTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		name = clone.group + "." + name
	}
	clone.group = name
	return &clone
}

func (h *PrettyTextHandler) getLevelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m" // Red
	case level >= slog.LevelWarn:
		return "\033[33m" // Yellow
	case level >= slog.LevelInfo:
		return "\033[34m" // Blue
	default:
		return "\033[37m" // White
	}
}
