// internal/adapters/notify/toaster.go
package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// EventKind tells listeners whether a toast appeared or went away
type EventKind int

const (
	EventShown EventKind = iota
	EventDismissed
)

// Event is delivered to listeners on every change of the visible set
type Event struct {
	Kind         EventKind
	Notification domain.Notification
}

// Toaster keeps the visible notifications in arrival order. Each one
// expires on its own timer; a new arrival never resets older timers.
type Toaster struct {
	duration time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	active    []domain.Notification
	timers    map[string]*time.Timer
	listeners []func(Event)
	closed    bool
}

var _ ports.Notifier = (*Toaster)(nil)

// NewToaster creates a toaster; a non-positive duration falls back to the
// default display time.
func NewToaster(duration time.Duration, logger *slog.Logger) *Toaster {
	if duration <= 0 {
		duration = domain.DefaultNotificationDuration
	}
	return &Toaster{
		duration: duration,
		logger:   logger.With(slog.String("component", "toaster")),
		timers:   make(map[string]*time.Timer),
	}
}

// OnChange registers a listener. Listeners are called outside the toaster
// lock, possibly from timer goroutines.
func (t *Toaster) OnChange(fn func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Notify shows n and schedules its removal
func (t *Toaster) Notify(ctx context.Context, n domain.Notification) {
	level := slog.LevelInfo
	if n.Category == domain.NotificationError {
		level = slog.LevelWarn
	}
	t.logger.Log(ctx, level, "notification",
		slog.String("title", n.Title),
		slog.String("message", n.Message),
		slog.String("category", string(n.Category)))

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.active = append(t.active, n)
	id := n.ID
	t.timers[id] = time.AfterFunc(t.duration, func() { t.Dismiss(id) })
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(Event{Kind: EventShown, Notification: n})
	}
}

// Dismiss removes a notification before its timer fires
func (t *Toaster) Dismiss(id string) bool {
	t.mu.Lock()
	idx := slices.IndexFunc(t.active, func(n domain.Notification) bool { return n.ID == id })
	if idx < 0 {
		t.mu.Unlock()
		return false
	}
	n := t.active[idx]
	t.active = slices.Delete(t.active, idx, idx+1)
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(Event{Kind: EventDismissed, Notification: n})
	}
	return true
}

// Active returns the visible notifications, oldest first
func (t *Toaster) Active() []domain.Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.active)
}

// Close stops all timers and drops anything still visible
func (t *Toaster) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.active = nil
	t.closed = true
}
