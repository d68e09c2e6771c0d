// internal/handlers/middleware/middleware.go
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
)

const (
	HeaderRequestID  = "X-Request-ID"
	HeaderTerminalID = "X-Terminal-ID"

	slowRequest = 5 * time.Second
)

// Middleware wraps a handler
type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one is outermost
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestID propagates the caller's request id from header, or generates
// one, and echoes it on the response
func RequestID(header string) Middleware {
	if header == "" {
		header = HeaderRequestID
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithRequestID(r.Context(), r.Header.Get(header))
			w.Header().Set(header, logger.RequestID(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logger logs one line per request with the terminal, client and timing
// fields attached to the context
func Logger(l *slog.Logger, trustedProxies []string) Middleware {
	l = l.With(slog.String("component", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := r.Context()
			ctx = logger.WithValue(ctx, logger.ContextKeyClientIP, clientIP(r, trustedProxies))
			ctx = logger.WithValue(ctx, logger.ContextKeyUserAgent, r.UserAgent())
			ctx = logger.WithValue(ctx, logger.ContextKeyMethod, r.Method)
			ctx = logger.WithValue(ctx, logger.ContextKeyPath, r.URL.Path)
			if terminal := r.Header.Get(HeaderTerminalID); terminal != "" {
				ctx = logger.WithValue(ctx, logger.ContextKeyTerminalID, terminal)
			}
			ctx = logger.WithLogger(ctx, l)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(start)
			ctx = logger.WithValue(ctx, logger.ContextKeyStatusCode, wrapped.statusCode)
			ctx = logger.WithValue(ctx, logger.ContextKeyDuration, duration)

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400, duration > slowRequest:
				level = slog.LevelWarn
			}

			l.Log(ctx, level, "request completed",
				slog.String("query", r.URL.RawQuery),
				slog.Int("bytes", wrapped.bytesWritten))
		})
	}
}

// Recovery turns a handler panic into a 500 response
func Recovery(l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID := logger.RequestID(r.Context())
					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())))

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"Internal Server Error","request_id":"` + requestID + `"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter limits requests per client IP
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	proxies  []string
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requests per window for each client
func NewRateLimiter(requests int, window time.Duration, trustedProxies []string) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		proxies:  trustedProxies,
	}
}

// Allow reports whether ip may make a request now
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

// Prune forgets clients idle for longer than idle
func (rl *RateLimiter) Prune(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	for ip, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

// Middleware rejects clients over their limit with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r, rl.proxies)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS handles Cross-Origin Resource Sharing
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, X-Request-ID, X-Terminal-ID")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecureHeaders adds security headers
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	written      bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// clientIP trusts forwarding headers only when the peer is a trusted proxy
func clientIP(r *http.Request, trustedProxies []string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !slices.Contains(trustedProxies, host) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return host
}
