// internal/adapters/storage/local.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// LocalStorage writes report files under a directory. Used when no bucket
// is configured and in tests.
type LocalStorage struct {
	basePath string
	logger   *slog.Logger
}

var _ ports.ReportStorage = (*LocalStorage)(nil)

// NewLocalStorage creates a new local storage client
func NewLocalStorage(basePath string, logger *slog.Logger) *LocalStorage {
	return &LocalStorage{
		basePath: basePath,
		logger:   logger.With(slog.String("storage", "local")),
	}
}

func (l *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.basePath, clean), nil
}

// Upload saves data to basePath/key, creating parent directories
func (l *LocalStorage) Upload(ctx context.Context, key string, data io.Reader, _ string, _ map[string]string) (string, error) {
	path, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	l.logger.InfoContext(ctx, "file stored",
		slog.String("path", path),
		slog.Int64("size", n))

	return path, nil
}

// Exists reports whether key has been stored
func (l *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	path, err := l.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PresignedURL returns a file URL; local files do not expire
func (l *LocalStorage) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	path, err := l.path(key)
	if err != nil {
		return "", err
	}
	return "file://" + path, nil
}
