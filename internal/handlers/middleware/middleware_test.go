// internal/handlers/middleware/middleware_test.go
package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/minimarket-pos/internal/handlers/middleware"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrapped := middleware.RequestID("")(handler)

	tests := []struct {
		name              string
		existingRequestID string
		validateResponse  func(*testing.T, *http.Response)
	}{
		{
			name:              "generates_new_request_id",
			existingRequestID: "",
			validateResponse: func(t *testing.T, resp *http.Response) {
				requestID := resp.Header.Get("X-Request-ID")
				assert.Len(t, requestID, 36) // UUID length
				assert.Equal(t, seen, requestID)
			},
		},
		{
			name:              "uses_existing_request_id",
			existingRequestID: "existing-id-123",
			validateResponse: func(t *testing.T, resp *http.Response) {
				assert.Equal(t, "existing-id-123", resp.Header.Get("X-Request-ID"))
				assert.Equal(t, "existing-id-123", seen)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
			if tt.existingRequestID != "" {
				req.Header.Set("X-Request-ID", tt.existingRequestID)
			}
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			tt.validateResponse(t, w.Result())
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.LogConfig{Level: "info", Format: "json", Writer: &buf})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	wrapped := middleware.Chain(handler, middleware.RequestID(""), middleware.Logger(log, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", nil)
	req.Header.Set("X-Request-ID", "test-123")
	req.Header.Set("X-Terminal-ID", "till-1")
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	out := buf.String()
	assert.Contains(t, out, `"request_id":"test-123"`)
	assert.Contains(t, out, `"terminal_id":"till-1"`)
	assert.Contains(t, out, `"status_code":409`)
	assert.Contains(t, out, `"severity":"WARN"`)
}

func TestRecovery(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	wrapped := middleware.Chain(handler, middleware.RequestID(""), middleware.Recovery(helpers.TestLogger()))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "req-9")
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		wrapped.ServeHTTP(w, req)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
	assert.Contains(t, w.Body.String(), "req-9")
}

func TestRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute, nil)
	wrapped := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client has its own budget
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.2:12345"
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_ForwardedForOnlyFromTrustedProxy(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute, []string{"10.0.0.1"})
	wrapped := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote, xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		return w.Code
	}

	// behind the proxy each forwarded client is limited separately
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1", "203.0.113.5"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1", "203.0.113.6"))

	// an untrusted peer cannot dodge the limit by rotating the header
	assert.Equal(t, http.StatusOK, send("198.51.100.7:1", "1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.7:1", "2.2.2.2"))
}

func TestRateLimiter_Prune(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Hour, nil)
	require.True(t, limiter.Allow("a"))
	require.False(t, limiter.Allow("a"))

	limiter.Prune(0)
	assert.True(t, limiter.Allow("a"))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		method         string
		expectedStatus int
		expectHeaders  bool
	}{
		{
			name:           "allows_specific_origin",
			allowedOrigins: []string{"http://localhost:5173"},
			requestOrigin:  "http://localhost:5173",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectHeaders:  true,
		},
		{
			name:           "allows_wildcard_origin",
			allowedOrigins: []string{"*"},
			requestOrigin:  "http://till.local",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectHeaders:  true,
		},
		{
			name:           "blocks_unauthorized_origin",
			allowedOrigins: []string{"http://localhost:5173"},
			requestOrigin:  "http://evil.com",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectHeaders:  false,
		},
		{
			name:           "handles_preflight_request",
			allowedOrigins: []string{"http://localhost:5173"},
			requestOrigin:  "http://localhost:5173",
			method:         http.MethodOptions,
			expectedStatus: http.StatusNoContent,
			expectHeaders:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			wrapped := middleware.CORS(tt.allowedOrigins)(handler)

			req := httptest.NewRequest(tt.method, "/test", nil)
			req.Header.Set("Origin", tt.requestOrigin)
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectHeaders {
				assert.Equal(t, tt.requestOrigin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	wrapped := middleware.SecureHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middleware.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
