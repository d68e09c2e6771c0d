// internal/core/services/fixtures_test.go
package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/test/helpers"
	"github.com/ammerola/minimarket-pos/test/mocks"
)

// staticCatalog is a fixed product snapshot
type staticCatalog map[int64]domain.Product

func newStaticCatalog(products ...domain.Product) staticCatalog {
	c := staticCatalog{}
	for _, p := range products {
		c[p.ID] = p
	}
	return c
}

func (c staticCatalog) Product(id int64) (domain.Product, bool) {
	p, ok := c[id]
	return p, ok
}

func (c staticCatalog) LookupCode(code string) (domain.Product, bool) {
	for _, p := range c {
		if p.Code == code {
			return p, true
		}
	}
	return domain.Product{}, false
}

type cartFixture struct {
	cart     *services.CartEngine
	store    *helpers.MemoryCartStore
	notifier *helpers.RecordingNotifier
}

func newCartFixture(t *testing.T, products ...domain.Product) *cartFixture {
	t.Helper()

	f := &cartFixture{
		store:    &helpers.MemoryCartStore{},
		notifier: &helpers.RecordingNotifier{},
	}
	f.cart = services.NewCartEngine(newStaticCatalog(products...), f.store, f.notifier, helpers.TestLogger())
	f.cart.Restore(context.Background())
	return f
}

type checkoutFixture struct {
	*cartFixture
	checkout  *services.Checkout
	catalog   *services.Catalog
	inventory *mocks.MockInventoryService
}

// newCheckoutFixture wires a checkout over a real catalog loaded from a mock
// inventory service. The initial load is consumed here.
func newCheckoutFixture(t *testing.T, products ...domain.Product) *checkoutFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	inventory := mocks.NewMockInventoryService(ctrl)
	notifier := &helpers.RecordingNotifier{}
	store := &helpers.MemoryCartStore{}

	catalog := services.NewCatalog(inventory, notifier, 0, helpers.TestLogger())
	inventory.EXPECT().ListProducts(gomock.Any()).Return(products, nil)
	require.NoError(t, catalog.Reload(context.Background()))

	cart := services.NewCartEngine(catalog, store, notifier, helpers.TestLogger())
	cart.Restore(context.Background())

	return &checkoutFixture{
		cartFixture: &cartFixture{cart: cart, store: store, notifier: notifier},
		checkout:    services.NewCheckout(cart, catalog, inventory, notifier, helpers.TestLogger()),
		catalog:     catalog,
		inventory:   inventory,
	}
}

func (f *cartFixture) add(t *testing.T, id int64, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		require.NoError(t, f.cart.AddItem(context.Background(), id))
	}
}

func lastNotice(t *testing.T, n *helpers.RecordingNotifier) domain.Notification {
	t.Helper()
	got, ok := n.Last()
	require.True(t, ok, "expected a notification")
	return got
}
