// internal/adapters/storage/storage.go
package storage

import (
	"context"
	"log/slog"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// NewReportStorage returns local storage under localDir when it is set and
// an S3 bucket otherwise
func NewReportStorage(ctx context.Context, cfg *S3Config, localDir string, logger *slog.Logger) (ports.ReportStorage, error) {
	if localDir != "" {
		logger.Info("storing reports on local disk", slog.String("dir", localDir))
		return NewLocalStorage(localDir, logger), nil
	}
	return NewS3Storage(ctx, cfg, logger)
}
