// internal/core/ports/database.go
package ports

import "context"

// DatabaseHealth is what the health endpoints need from the database
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}
