// internal/core/ports/storage.go
package ports

import (
	"context"
	"io"
	"time"
)

// ReportStorage holds generated report files
type ReportStorage interface {
	// Upload stores data under key and returns its location
	Upload(ctx context.Context, key string, data io.Reader, contentType string, metadata map[string]string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
