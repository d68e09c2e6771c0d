// internal/core/services/cart.go
package services

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// cartSaveTimeout bounds a single persistence attempt
const cartSaveTimeout = 2 * time.Second

// CartEngine owns the in-progress sale. Every accepted mutation is persisted
// and broadcast to observers; a rejected one leaves the cart untouched.
//
// Invariant: every line has 1 <= quantity and, at the time it was last
// changed, quantity <= the catalog stock for its product.
type CartEngine struct {
	catalog  ports.ProductCatalog
	store    ports.CartStore
	notifier ports.Notifier
	logger   *slog.Logger

	mu        sync.Mutex
	lines     []domain.CartLine
	frozen    bool
	version   uint64
	observers []ports.CartObserver

	// saveMu orders writes to the store; it is never held with mu.
	saveMu sync.Mutex
	saved  uint64
}

// NewCartEngine creates an empty cart. Call Restore once before use.
func NewCartEngine(catalog ports.ProductCatalog, store ports.CartStore, notifier ports.Notifier, logger *slog.Logger) *CartEngine {
	return &CartEngine{
		catalog:  catalog,
		store:    store,
		notifier: notifier,
		logger:   logger.With(slog.String("service", "cart")),
	}
}

// Subscribe registers an observer for cart-changed signals. Observers run
// synchronously under the cart lock and must not call back into the engine.
func (e *CartEngine) Subscribe(o ports.CartObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// Restore loads the persisted cart. Anything unreadable yields an empty cart.
func (e *CartEngine) Restore(ctx context.Context) {
	lines, err := e.store.Load(ctx)
	if err == nil {
		err = domain.ValidateLines(lines)
	}
	if err != nil {
		e.logger.WarnContext(ctx, "discarding persisted cart",
			slog.String("error", err.Error()))
		lines = nil
	}

	e.mu.Lock()
	e.lines = domain.CloneLines(lines)
	snapshot := domain.CloneLines(e.lines)
	observers := slices.Clone(e.observers)
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "cart restored",
		slog.Int("lines", len(snapshot)),
		slog.Int("count", domain.ComputeCount(snapshot)))

	for _, o := range observers {
		o.CartChanged(snapshot)
	}
}

// AddItem adds one unit of a product. Unknown products are ignored.
func (e *CartEngine) AddItem(ctx context.Context, productID int64) error {
	product, ok := e.catalog.Product(productID)
	if !ok {
		e.logger.DebugContext(ctx, "add ignored, product not in catalog",
			slog.Int64("product_id", productID))
		return nil
	}

	return e.mutate(ctx, func() (bool, error) {
		idx := e.indexOf(productID)
		if idx < 0 {
			if !product.InStock() {
				e.notifier.Notify(ctx, outOfStockNotice(product.Name))
				return false, domain.ErrStockInsufficient
			}
			e.lines = append(e.lines, domain.NewCartLine(product))
			return true, nil
		}
		if e.lines[idx].Quantity >= product.AvailableStock {
			e.notifier.Notify(ctx, insufficientStockNotice(product.Name))
			return false, domain.ErrStockInsufficient
		}
		e.lines[idx].Quantity++
		return true, nil
	})
}

// ChangeQuantity adjusts a line by delta. A result of zero or less removes
// the line. Lines for products missing from the catalog are left alone.
func (e *CartEngine) ChangeQuantity(ctx context.Context, productID int64, delta int) error {
	return e.mutate(ctx, func() (bool, error) {
		idx := e.indexOf(productID)
		if idx < 0 || delta == 0 {
			return false, nil
		}

		product, ok := e.catalog.Product(productID)
		if !ok {
			e.logger.DebugContext(ctx, "quantity change ignored, product not in catalog",
				slog.Int64("product_id", productID))
			return false, nil
		}

		current := e.lines[idx].Quantity
		switch {
		// compared by subtraction so a huge delta cannot wrap around
		case delta > 0 && current > product.AvailableStock-delta:
			e.notifier.Notify(ctx, insufficientStockNotice(e.lines[idx].Name))
			return false, domain.ErrStockInsufficient
		case current+delta <= 0:
			e.lines = slices.Delete(e.lines, idx, idx+1)
		default:
			e.lines[idx].Quantity = current + delta
		}
		return true, nil
	})
}

// RemoveItem deletes the line for a product if present
func (e *CartEngine) RemoveItem(ctx context.Context, productID int64) error {
	return e.mutate(ctx, func() (bool, error) {
		if idx := e.indexOf(productID); idx >= 0 {
			e.lines = slices.Delete(e.lines, idx, idx+1)
		}
		return true, nil
	})
}

// Clear empties the cart
func (e *CartEngine) Clear(ctx context.Context) error {
	return e.mutate(ctx, func() (bool, error) {
		e.lines = nil
		return true, nil
	})
}

// Lines returns a copy of the cart lines in insertion order
func (e *CartEngine) Lines() []domain.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneLines(e.lines)
}

// Total is the sum of line subtotals
func (e *CartEngine) Total() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.ComputeTotal(e.lines)
}

// Count is the sum of line quantities
func (e *CartEngine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.ComputeCount(e.lines)
}

// IsEmpty reports whether the cart has no lines
func (e *CartEngine) IsEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines) == 0
}

// Locked reports whether a commit currently holds the cart
func (e *CartEngine) Locked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frozen
}

// freeze blocks mutations and returns the lines to commit
func (e *CartEngine) freeze() ([]domain.CartLine, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.frozen {
		return nil, domain.ErrCommitInFlight
	}
	e.frozen = true
	return domain.CloneLines(e.lines), nil
}

// thaw re-enables mutations, emptying the cart first when clear is set
func (e *CartEngine) thaw(ctx context.Context, clear bool) {
	e.mu.Lock()
	e.frozen = false
	if !clear {
		e.mu.Unlock()
		return
	}
	e.lines = nil
	snapshot, version := e.publishLocked()
	e.mu.Unlock()

	e.persist(ctx, snapshot, version)
}

func (e *CartEngine) indexOf(productID int64) int {
	return slices.IndexFunc(e.lines, func(l domain.CartLine) bool {
		return l.ProductID == productID
	})
}

// mutate runs apply under the cart lock. When apply reports a change the new
// lines are broadcast under the lock and persisted after it is released.
func (e *CartEngine) mutate(ctx context.Context, apply func() (bool, error)) error {
	e.mu.Lock()
	if e.frozen {
		e.mu.Unlock()
		return domain.ErrCartLocked
	}
	changed, err := apply()
	if err != nil || !changed {
		e.mu.Unlock()
		return err
	}
	snapshot, version := e.publishLocked()
	e.mu.Unlock()

	e.persist(ctx, snapshot, version)
	return nil
}

// publishLocked snapshots the lines, bumps the version and notifies observers
func (e *CartEngine) publishLocked() ([]domain.CartLine, uint64) {
	snapshot := domain.CloneLines(e.lines)
	e.version++
	for _, o := range e.observers {
		o.CartChanged(snapshot)
	}
	return snapshot, e.version
}

// persist writes a snapshot unless a newer one already reached the store.
// Failures are logged and otherwise ignored; memory stays authoritative.
func (e *CartEngine) persist(ctx context.Context, snapshot []domain.CartLine, version uint64) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	if version <= e.saved {
		return
	}
	e.saved = version

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cartSaveTimeout)
	defer cancel()

	if err := e.store.Save(saveCtx, snapshot); err != nil {
		e.logger.WarnContext(ctx, "failed to persist cart",
			slog.String("error", err.Error()),
			slog.Int("lines", len(snapshot)))
	}
}
