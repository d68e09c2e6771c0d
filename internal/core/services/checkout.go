// internal/core/services/checkout.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// CheckoutState is the position of the sale in the payment flow
type CheckoutState int

const (
	StateIdle CheckoutState = iota
	StateAwaitingPayment
	StateCommitting
)

func (s CheckoutState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingPayment:
		return "awaiting_payment"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// CatalogReloader refreshes the product snapshot after a sale
type CatalogReloader interface {
	Reload(ctx context.Context) error
}

// Checkout drives the two-step payment flow: open payment, then confirm.
// At most one commit is in flight at a time and the cart is locked for its
// whole duration.
type Checkout struct {
	cart      *CartEngine
	catalog   CatalogReloader
	inventory ports.InventoryService
	notifier  ports.Notifier
	logger    *slog.Logger

	mu      sync.Mutex
	state   CheckoutState
	pending *domain.PendingSale
	method  domain.PaymentMethod
}

// NewCheckout creates a checkout in the idle state with cash selected
func NewCheckout(cart *CartEngine, catalog CatalogReloader, inventory ports.InventoryService,
	notifier ports.Notifier, logger *slog.Logger) *Checkout {
	return &Checkout{
		cart:      cart,
		catalog:   catalog,
		inventory: inventory,
		notifier:  notifier,
		logger:    logger.With(slog.String("service", "checkout")),
		method:    domain.PaymentCash,
	}
}

// State returns the current checkout state
func (c *Checkout) State() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PaymentMethod returns the method the next sale will be committed with
func (c *Checkout) PaymentMethod() domain.PaymentMethod {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method
}

// SetPaymentMethod selects how the next sale is paid
func (c *Checkout) SetPaymentMethod(m domain.PaymentMethod) error {
	if !m.Valid() {
		return fmt.Errorf("unknown payment method %q", m)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCommitting {
		return domain.ErrCommitInFlight
	}
	c.method = m
	return nil
}

// Pending returns the open payment, if any
func (c *Checkout) Pending() (domain.PendingSale, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return domain.PendingSale{}, false
	}
	return c.pendingLocked(), true
}

// OpenPayment snapshots the cart and waits for the tendered amount. Card
// and transfer sales start with the exact total tendered.
func (c *Checkout) OpenPayment(ctx context.Context) (domain.PendingSale, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateCommitting:
		return domain.PendingSale{}, domain.ErrCommitInFlight
	case StateAwaitingPayment:
		return domain.PendingSale{}, domain.ErrInvalidState
	}

	lines := c.cart.Lines()
	if len(lines) == 0 {
		c.notifier.Notify(ctx, emptyCartNotice())
		return domain.PendingSale{}, domain.ErrEmptyCart
	}

	total := domain.ComputeTotal(lines)
	pending := domain.PendingSale{Lines: lines, Total: total}
	if c.method != domain.PaymentCash {
		pending.CashReceived = total
	}

	c.pending = &pending
	c.state = StateAwaitingPayment

	c.logger.InfoContext(ctx, "payment opened",
		slog.Int64("total", total),
		slog.Int("lines", len(lines)),
		slog.String("payment_method", string(c.method)))

	return c.pendingLocked(), nil
}

func (c *Checkout) pendingLocked() domain.PendingSale {
	p := *c.pending
	p.Lines = domain.CloneLines(p.Lines)
	return p
}

// Tender records the amount handed over and computes the change. It never
// rejects an amount; CanConfirm on the result says whether it is enough.
func (c *Checkout) Tender(amount int64) (domain.PendingSale, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAwaitingPayment {
		return domain.PendingSale{}, domain.ErrInvalidState
	}

	c.pending.CashReceived = amount
	c.pending.ChangeDue = domain.ChangeDue(amount, c.pending.Total)
	return c.pendingLocked(), nil
}

// ConfirmPayment commits the sale with the given amount received. The cart
// is re-read and the total recomputed; an amount below it is rejected with
// no state change. The call blocks until the inventory service answers.
func (c *Checkout) ConfirmPayment(ctx context.Context, amount int64) (*domain.SaleResult, error) {
	c.mu.Lock()
	switch c.state {
	case StateCommitting:
		c.mu.Unlock()
		return nil, domain.ErrCommitInFlight
	case StateIdle:
		c.mu.Unlock()
		return nil, domain.ErrInvalidState
	}

	lines, err := c.cart.freeze()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	total := domain.ComputeTotal(lines)
	if len(lines) == 0 {
		c.cart.thaw(ctx, false)
		c.state = StateIdle
		c.pending = nil
		c.mu.Unlock()
		c.notifier.Notify(ctx, emptyCartNotice())
		return nil, domain.ErrEmptyCart
	}
	if amount < total {
		c.cart.thaw(ctx, false)
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: received %s, total %s",
			domain.ErrInsufficientTender, domain.FormatCLP(amount), domain.FormatCLP(total))
	}

	req := domain.NewSaleRequest(lines, c.method, amount)
	c.state = StateCommitting
	c.pending = &domain.PendingSale{
		Lines:        lines,
		Total:        total,
		CashReceived: amount,
		ChangeDue:    req.ChangeDue,
	}
	c.mu.Unlock()

	start := time.Now()
	c.logger.InfoContext(ctx, "committing sale",
		slog.Int64("total", total),
		slog.Int64("cash_received", amount),
		slog.Int64("change_due", req.ChangeDue),
		slog.String("payment_method", string(req.PaymentMethod)))

	result, commitErr := c.inventory.CommitSale(ctx, req)

	switch {
	case commitErr != nil:
		c.finish(ctx, false)
		c.logger.ErrorContext(ctx, "sale commit failed",
			slog.String("error", commitErr.Error()),
			slog.Duration("duration", time.Since(start)))
		c.notifier.Notify(ctx, communicationFaultNotice())
		if errors.Is(commitErr, domain.ErrCommunicationFault) {
			return nil, commitErr
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrCommunicationFault, commitErr)

	case result == nil:
		c.finish(ctx, false)
		c.notifier.Notify(ctx, communicationFaultNotice())
		return nil, fmt.Errorf("%w: empty response", domain.ErrCommunicationFault)

	case !result.Success:
		c.finish(ctx, false)
		c.logger.WarnContext(ctx, "sale rejected",
			slog.String("reason", result.Message),
			slog.Duration("duration", time.Since(start)))
		c.notifier.Notify(ctx, saleFailedNotice(result.Message))
		return result, domain.NewServiceRejection(result.Message)
	}

	c.finish(ctx, true)
	c.logger.InfoContext(ctx, "sale committed",
		slog.String("sale_id", result.SaleID),
		slog.Int64("total", total),
		slog.Duration("duration", time.Since(start)))

	c.notifier.Notify(ctx, saleCompletedNotice(total))
	// A failed reload notifies on its own and keeps the stale snapshot.
	_ = c.catalog.Reload(ctx)

	return result, nil
}

// finish leaves the committing state, clearing the cart on success
func (c *Checkout) finish(ctx context.Context, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cart.thaw(ctx, success)
	c.state = StateIdle
	c.pending = nil
}

// CancelPayment closes the payment step without touching the cart
func (c *Checkout) CancelPayment(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateCommitting:
		return domain.ErrCommitInFlight
	case StateIdle:
		return nil
	}

	c.state = StateIdle
	c.pending = nil
	c.logger.InfoContext(ctx, "payment cancelled")
	return nil
}

// CanCancelSale reports whether the cancel action is enabled
func (c *Checkout) CanCancelSale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateCommitting && !c.cart.IsEmpty()
}

// CancelSale asks for confirmation and, if given, empties the cart
func (c *Checkout) CancelSale(ctx context.Context, confirmer ports.Confirmer) error {
	if !c.CanCancelSale() {
		return domain.ErrInvalidState
	}

	if !confirmer.Confirm(ctx, "Cancel the current sale and empty the cart?") {
		return domain.ErrSaleNotConfirmed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCommitting {
		return domain.ErrCommitInFlight
	}
	if err := c.cart.Clear(ctx); err != nil {
		return err
	}
	c.state = StateIdle
	c.pending = nil

	c.logger.InfoContext(ctx, "sale cancelled")
	c.notifier.Notify(ctx, saleCancelledNotice())
	return nil
}
