// internal/core/domain/notification.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationCategory drives how a toast is styled
type NotificationCategory string

const (
	NotificationSuccess NotificationCategory = "success"
	NotificationError   NotificationCategory = "error"
	NotificationWarning NotificationCategory = "warning"
)

// DefaultNotificationDuration is how long a toast stays visible
const DefaultNotificationDuration = 3000 * time.Millisecond

// Notification is a short-lived message for the cashier
type Notification struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Category  NotificationCategory `json:"category"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewNotification stamps a notification with an id and creation time
func NewNotification(category NotificationCategory, title, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Category:  category,
		CreatedAt: time.Now(),
	}
}
