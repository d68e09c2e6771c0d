// internal/core/ports/cart.go
package ports

import (
	"context"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

// CartStore keeps the in-progress cart across restarts under one key.
type CartStore interface {
	Load(ctx context.Context) ([]domain.CartLine, error)
	Save(ctx context.Context, lines []domain.CartLine) error
}

// Notifier receives cashier-facing feedback
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// CartObserver is told about every cart change with the resulting lines
type CartObserver interface {
	CartChanged(lines []domain.CartLine)
}

// CartObserverFunc adapts a function to CartObserver
type CartObserverFunc func(lines []domain.CartLine)

func (f CartObserverFunc) CartChanged(lines []domain.CartLine) { f(lines) }

// Confirmer asks the cashier a yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// ProductCatalog resolves products against the current snapshot
type ProductCatalog interface {
	Product(id int64) (domain.Product, bool)
	LookupCode(code string) (domain.Product, bool)
}
