// internal/core/services/checkout_test.go
package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func TestCheckout_OpenPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_cart_is_rejected_and_stays_idle", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)

		_, err := f.checkout.OpenPayment(ctx)

		require.ErrorIs(t, err, domain.ErrEmptyCart)
		assert.Equal(t, services.StateIdle, f.checkout.State())
		n := lastNotice(t, f.notifier)
		assert.Equal(t, "There are no products in the cart", n.Message)
	})

	t.Run("snapshots_total_for_cash", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 1, 3)

		pending, err := f.checkout.OpenPayment(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(4500), pending.Total)
		assert.Zero(t, pending.CashReceived)
		assert.False(t, pending.CanConfirm())
		assert.Equal(t, services.StateAwaitingPayment, f.checkout.State())
	})

	t.Run("card_starts_with_exact_amount", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 2, 2)
		require.NoError(t, f.checkout.SetPaymentMethod(domain.PaymentCard))

		pending, err := f.checkout.OpenPayment(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(1600), pending.CashReceived)
		assert.True(t, pending.CanConfirm())
	})

	t.Run("second_open_is_invalid", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 1, 1)

		_, err := f.checkout.OpenPayment(ctx)
		require.NoError(t, err)
		_, err = f.checkout.OpenPayment(ctx)

		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestCheckout_Tender(t *testing.T) {
	tests := []struct {
		name          string
		amount        int64
		expectedDue   int64
		expectConfirm bool
	}{
		{name: "exact_amount", amount: 4500, expectedDue: 0, expectConfirm: true},
		{name: "overpaid", amount: 5000, expectedDue: 500, expectConfirm: true},
		{name: "underpaid", amount: 4000, expectedDue: 0, expectConfirm: false},
		{name: "nothing_tendered", amount: 0, expectedDue: 0, expectConfirm: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t, helpers.DemoCatalog()...)
			f.add(t, 1, 3)
			_, err := f.checkout.OpenPayment(context.Background())
			require.NoError(t, err)

			pending, err := f.checkout.Tender(tt.amount)

			require.NoError(t, err)
			assert.Equal(t, tt.amount, pending.CashReceived)
			assert.Equal(t, tt.expectedDue, pending.ChangeDue)
			assert.Equal(t, tt.expectConfirm, pending.CanConfirm())
			assert.Equal(t, services.StateAwaitingPayment, f.checkout.State())
		})
	}

	t.Run("requires_open_payment", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		_, err := f.checkout.Tender(1000)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestCheckout_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("short_amount_is_rejected_without_state_change", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 1, 3)
		_, err := f.checkout.OpenPayment(ctx)
		require.NoError(t, err)

		_, err = f.checkout.ConfirmPayment(ctx, 4000)

		require.ErrorIs(t, err, domain.ErrInsufficientTender)
		assert.Equal(t, services.StateAwaitingPayment, f.checkout.State())
		assert.False(t, f.cart.Locked())
		assert.Equal(t, 3, f.cart.Count())
	})

	t.Run("success_clears_cart_reloads_and_notifies", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 1, 3)
		_, err := f.checkout.OpenPayment(ctx)
		require.NoError(t, err)

		f.inventory.EXPECT().
			CommitSale(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req domain.SaleRequest) (*domain.SaleResult, error) {
				assert.Equal(t, []domain.SaleLine{{ProductID: 1, Quantity: 3, UnitPrice: 1500}}, req.Lines)
				assert.Equal(t, domain.PaymentCash, req.PaymentMethod)
				assert.Equal(t, int64(5000), req.CashReceived)
				assert.Equal(t, int64(500), req.ChangeDue)
				return &domain.SaleResult{Success: true, SaleID: "sale-1"}, nil
			})
		reloaded := helpers.DemoCatalog()
		reloaded[0].AvailableStock = 47
		f.inventory.EXPECT().ListProducts(gomock.Any()).Return(reloaded, nil)

		result, err := f.checkout.ConfirmPayment(ctx, 5000)

		require.NoError(t, err)
		assert.Equal(t, "sale-1", result.SaleID)
		assert.True(t, f.cart.IsEmpty())
		assert.Empty(t, f.store.Lines())
		assert.Equal(t, services.StateIdle, f.checkout.State())

		p, ok := f.catalog.Product(1)
		require.True(t, ok)
		assert.Equal(t, 47, p.AvailableStock)

		n := lastNotice(t, f.notifier)
		assert.Equal(t, "Sale completed", n.Title)
		assert.Equal(t, "Total: $4.500", n.Message)
		assert.Equal(t, domain.NotificationSuccess, n.Category)

		_, open := f.checkout.Pending()
		assert.False(t, open)
	})

	t.Run("rejection_keeps_cart_and_shows_reason", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 1, 3)
		_, err := f.checkout.OpenPayment(ctx)
		require.NoError(t, err)

		f.inventory.EXPECT().
			CommitSale(gomock.Any(), gomock.Any()).
			Return(&domain.SaleResult{Success: false, Message: "stock mismatch"}, nil)

		result, err := f.checkout.ConfirmPayment(ctx, 4500)

		require.ErrorIs(t, err, domain.ErrServiceRejection)
		require.NotNil(t, result)
		assert.False(t, result.Success)

		lines := f.cart.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, 3, lines[0].Quantity)
		assert.False(t, f.cart.Locked())
		assert.Equal(t, services.StateIdle, f.checkout.State())

		n := lastNotice(t, f.notifier)
		assert.Equal(t, "Sale failed", n.Title)
		assert.Equal(t, "stock mismatch", n.Message)
	})

	t.Run("rejection_without_reason_uses_generic_text", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 1, 1)
		_, err := f.checkout.OpenPayment(ctx)
		require.NoError(t, err)

		f.inventory.EXPECT().CommitSale(gomock.Any(), gomock.Any()).Return(&domain.SaleResult{}, nil)

		_, err = f.checkout.ConfirmPayment(ctx, 1500)

		require.ErrorIs(t, err, domain.ErrServiceRejection)
		assert.Equal(t, "The sale could not be processed. Please try again.", lastNotice(t, f.notifier).Message)
	})

	t.Run("communication_fault_keeps_cart", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 1, 2)
		_, err := f.checkout.OpenPayment(ctx)
		require.NoError(t, err)

		f.inventory.EXPECT().
			CommitSale(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection refused"))

		result, err := f.checkout.ConfirmPayment(ctx, 3000)

		require.ErrorIs(t, err, domain.ErrCommunicationFault)
		assert.Nil(t, result)
		assert.Equal(t, 2, f.cart.Count())
		assert.Equal(t, services.StateIdle, f.checkout.State())

		n := lastNotice(t, f.notifier)
		assert.Equal(t, "Fatal error", n.Title)
		assert.Equal(t, domain.NotificationError, n.Category)

		// The cart is usable again and the sale can be retried
		f.add(t, 1, 1)
		assert.Equal(t, 3, f.cart.Count())
	})

	t.Run("requires_open_payment", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 1, 1)

		_, err := f.checkout.ConfirmPayment(ctx, 1500)

		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("total_is_recomputed_from_the_cart", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 1, 1)
		_, err := f.checkout.OpenPayment(ctx)
		require.NoError(t, err)
		f.add(t, 1, 1)

		_, err = f.checkout.ConfirmPayment(ctx, 1500)

		require.ErrorIs(t, err, domain.ErrInsufficientTender)
	})
}

func TestCheckout_SingleCommitInFlight(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, helpers.DemoCatalog()...)
	f.add(t, 1, 3)
	_, err := f.checkout.OpenPayment(ctx)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	f.inventory.EXPECT().
		CommitSale(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.SaleRequest) (*domain.SaleResult, error) {
			close(started)
			<-release
			return &domain.SaleResult{Success: true, SaleID: "sale-1"}, nil
		}).
		Times(1)
	f.inventory.EXPECT().ListProducts(gomock.Any()).Return(helpers.DemoCatalog(), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = f.checkout.ConfirmPayment(ctx, 5000)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("commit did not start")
	}

	assert.Equal(t, services.StateCommitting, f.checkout.State())

	_, err = f.checkout.ConfirmPayment(ctx, 5000)
	assert.ErrorIs(t, err, domain.ErrCommitInFlight)

	assert.ErrorIs(t, f.cart.AddItem(ctx, 2), domain.ErrCartLocked)
	assert.ErrorIs(t, f.cart.ChangeQuantity(ctx, 1, -1), domain.ErrCartLocked)
	assert.ErrorIs(t, f.checkout.CancelPayment(ctx), domain.ErrCommitInFlight)
	assert.ErrorIs(t, f.checkout.SetPaymentMethod(domain.PaymentCard), domain.ErrCommitInFlight)
	assert.False(t, f.checkout.CanCancelSale())

	// Reads stay available while the commit is pending
	assert.Equal(t, int64(4500), f.cart.Total())

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.True(t, f.cart.IsEmpty())
	assert.Equal(t, services.StateIdle, f.checkout.State())
}

func TestCheckout_CancelPayment(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, helpers.DemoCatalog()...)
	f.add(t, 1, 2)

	require.NoError(t, f.checkout.CancelPayment(ctx), "cancel from idle is a no-op")

	_, err := f.checkout.OpenPayment(ctx)
	require.NoError(t, err)
	_, err = f.checkout.Tender(10000)
	require.NoError(t, err)

	require.NoError(t, f.checkout.CancelPayment(ctx))

	assert.Equal(t, services.StateIdle, f.checkout.State())
	assert.Equal(t, 2, f.cart.Count())
	_, open := f.checkout.Pending()
	assert.False(t, open)
}

func TestCheckout_CancelSale(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		items       int
		confirm     bool
		expectedErr error
		expectEmpty bool
		expectAsked bool
	}{
		{name: "declined_keeps_cart", items: 3, confirm: false, expectedErr: domain.ErrSaleNotConfirmed, expectAsked: true},
		{name: "confirmed_empties_cart", items: 3, confirm: true, expectEmpty: true, expectAsked: true},
		{name: "empty_cart_is_not_cancellable", items: 0, confirm: true, expectedErr: domain.ErrInvalidState, expectEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t, helpers.DemoCatalog()...)
			f.add(t, 1, tt.items)
			f.notifier.Reset()

			var asked bool
			confirmer := ports.ConfirmFunc(func(context.Context, string) bool {
				asked = true
				return tt.confirm
			})

			err := f.checkout.CancelSale(ctx, confirmer)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, f.notifier.All())
			} else {
				require.NoError(t, err)
				n := lastNotice(t, f.notifier)
				assert.Equal(t, "Sale cancelled", n.Title)
			}
			assert.Equal(t, tt.expectAsked, asked)
			assert.Equal(t, tt.expectEmpty, f.cart.IsEmpty())
			if !tt.expectEmpty {
				assert.Equal(t, tt.items, f.cart.Count())
			}
		})
	}

	t.Run("cancel_from_payment_returns_to_idle", func(t *testing.T) {
		f := newCheckoutFixture(t, helpers.DemoCatalog()...)
		f.add(t, 4, 1)
		_, err := f.checkout.OpenPayment(ctx)
		require.NoError(t, err)

		err = f.checkout.CancelSale(ctx, ports.ConfirmFunc(func(context.Context, string) bool { return true }))

		require.NoError(t, err)
		assert.Equal(t, services.StateIdle, f.checkout.State())
		assert.True(t, f.cart.IsEmpty())
	})
}

func TestCheckout_SetPaymentMethod(t *testing.T) {
	f := newCheckoutFixture(t)

	assert.Equal(t, domain.PaymentCash, f.checkout.PaymentMethod())
	require.NoError(t, f.checkout.SetPaymentMethod(domain.PaymentTransfer))
	assert.Equal(t, domain.PaymentTransfer, f.checkout.PaymentMethod())
	assert.Error(t, f.checkout.SetPaymentMethod("cheque"))
}

func TestCheckoutState_String(t *testing.T) {
	assert.Equal(t, "idle", services.StateIdle.String())
	assert.Equal(t, "awaiting_payment", services.StateAwaitingPayment.String())
	assert.Equal(t, "committing", services.StateCommitting.String())
	assert.Equal(t, "unknown", services.CheckoutState(9).String())
}
