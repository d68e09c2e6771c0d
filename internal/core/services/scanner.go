// internal/core/services/scanner.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// KeyEnter terminates a scanned code
const KeyEnter = "Enter"

// KeyEvent is one key press from the global key stream
type KeyEvent struct {
	Key string
	// InTextInput is set when a free-text field has focus; such keys belong
	// to the field and are not scanner input.
	InTextInput bool
	At          time.Time
}

// ItemAdder is the part of the cart the scanner drives
type ItemAdder interface {
	AddItem(ctx context.Context, productID int64) error
}

// ScanAdapter turns barcode scanner keystrokes into cart additions. A
// scanner types the code followed by Enter. When timeout is positive, a gap
// longer than timeout between keys discards the partial code.
type ScanAdapter struct {
	catalog  ports.ProductCatalog
	cart     ItemAdder
	notifier ports.Notifier
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	buf     strings.Builder
	lastKey time.Time
}

// NewScanAdapter creates a scanner bound to a catalog and cart
func NewScanAdapter(catalog ports.ProductCatalog, cart ItemAdder, notifier ports.Notifier,
	timeout time.Duration, logger *slog.Logger) *ScanAdapter {
	return &ScanAdapter{
		catalog:  catalog,
		cart:     cart,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "scanner")),
	}
}

// HandleKey consumes one key event. Only Enter can produce an error: the
// lookup miss or whatever the cart returned for the addition.
func (s *ScanAdapter) HandleKey(ctx context.Context, ev KeyEvent) error {
	if ev.InTextInput {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	if s.timeout > 0 && s.buf.Len() > 0 && at.Sub(s.lastKey) > s.timeout {
		s.logger.DebugContext(ctx, "scan buffer expired",
			slog.String("partial", s.buf.String()))
		s.buf.Reset()
	}
	s.lastKey = at

	if ev.Key != KeyEnter {
		// Named keys such as Shift or Tab are not part of a code.
		if utf8.RuneCountInString(ev.Key) == 1 {
			s.buf.WriteString(ev.Key)
		}
		s.mu.Unlock()
		return nil
	}

	code := s.buf.String()
	s.buf.Reset()
	s.mu.Unlock()

	if code == "" {
		return nil
	}
	return s.lookup(ctx, code)
}

// Scan feeds a whole code followed by Enter
func (s *ScanAdapter) Scan(ctx context.Context, code string) error {
	now := time.Now()
	for _, r := range code {
		if err := s.HandleKey(ctx, KeyEvent{Key: string(r), At: now}); err != nil {
			return err
		}
	}
	return s.HandleKey(ctx, KeyEvent{Key: KeyEnter, At: now})
}

// Buffer returns the code typed so far
func (s *ScanAdapter) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *ScanAdapter) lookup(ctx context.Context, code string) error {
	product, ok := s.catalog.LookupCode(code)
	if !ok {
		s.logger.InfoContext(ctx, "scanned code not found", slog.String("code", code))
		s.notifier.Notify(ctx, notFoundNotice(code))
		return fmt.Errorf("%w: %s", domain.ErrLookupMiss, code)
	}

	s.logger.DebugContext(ctx, "scanned product",
		slog.String("code", code),
		slog.Int64("product_id", product.ID))
	return s.cart.AddItem(ctx, product.ID)
}
