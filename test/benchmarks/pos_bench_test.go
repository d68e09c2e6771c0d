package benchmarks

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/workers"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

// mapCatalog serves a fixed product list
type mapCatalog struct {
	byID   map[int64]domain.Product
	byCode map[string]domain.Product
}

func newMapCatalog(products []domain.Product) *mapCatalog {
	c := &mapCatalog{
		byID:   make(map[int64]domain.Product, len(products)),
		byCode: make(map[string]domain.Product, len(products)),
	}
	for _, p := range products {
		c.byID[p.ID] = p
		c.byCode[p.Code] = p
	}
	return c
}

func (c *mapCatalog) Product(id int64) (domain.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *mapCatalog) LookupCode(code string) (domain.Product, bool) {
	p, ok := c.byCode[code]
	return p, ok
}

func largeCatalog(n int) []domain.Product {
	products := make([]domain.Product, n)
	for i := range products {
		products[i] = domain.Product{
			ID:             int64(i + 1),
			Code:           fmt.Sprintf("SKU%05d", i+1),
			Name:           fmt.Sprintf("Product %d", i+1),
			UnitPrice:      int64(500 + i%50*100),
			AvailableStock: 1 << 30,
			Active:         true,
		}
	}
	return products
}

func BenchmarkCartOperations(b *testing.B) {
	ctx := context.Background()
	catalog := newMapCatalog(largeCatalog(1000))

	b.Run("AddItem", func(b *testing.B) {
		cart := services.NewCartEngine(catalog, &helpers.MemoryCartStore{}, &helpers.RecordingNotifier{}, helpers.TestLogger())
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = cart.AddItem(ctx, int64(i%50+1))
		}
	})

	b.Run("ChangeQuantity", func(b *testing.B) {
		cart := services.NewCartEngine(catalog, &helpers.MemoryCartStore{}, &helpers.RecordingNotifier{}, helpers.TestLogger())
		for id := int64(1); id <= 50; id++ {
			_ = cart.AddItem(ctx, id)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			delta := 1
			if i%2 == 1 {
				delta = -1
			}
			_ = cart.ChangeQuantity(ctx, int64(i%50+1), delta)
		}
	})

	b.Run("Total", func(b *testing.B) {
		cart := services.NewCartEngine(catalog, &helpers.MemoryCartStore{}, &helpers.RecordingNotifier{}, helpers.TestLogger())
		for id := int64(1); id <= 200; id++ {
			_ = cart.AddItem(ctx, id)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = cart.Total()
		}
	})
}

func BenchmarkScan(b *testing.B) {
	ctx := context.Background()
	products := largeCatalog(5000)
	catalog := newMapCatalog(products)
	cart := services.NewCartEngine(catalog, &helpers.MemoryCartStore{}, &helpers.RecordingNotifier{}, helpers.TestLogger())
	scanner := services.NewScanAdapter(catalog, cart, &helpers.RecordingNotifier{}, 500*time.Millisecond, helpers.TestLogger())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = scanner.Scan(ctx, products[i%len(products)].Code)
	}
}

func BenchmarkCartPersistence(b *testing.B) {
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatal(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := redis_a.NewCartStore(client, redis_a.DefaultCartKey, helpers.TestLogger())
	ctx := context.Background()

	lines := make([]domain.CartLine, 0, 40)
	for _, p := range largeCatalog(40) {
		lines = append(lines, domain.NewCartLine(p))
	}

	b.Run("Save", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = store.Save(ctx, lines)
		}
	})

	b.Run("Load", func(b *testing.B) {
		_ = store.Save(ctx, lines)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = store.Load(ctx)
		}
	})
}

func BenchmarkFormatCLP(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = domain.FormatCLP(int64(i) * 1337)
	}
}

func BenchmarkDailyReport(b *testing.B) {
	products := largeCatalog(20)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local)

	sales := make([]domain.Sale, 300)
	for i := range sales {
		var lines []domain.CartLine
		for j := 0; j < 1+i%5; j++ {
			l := domain.NewCartLine(products[(i+j)%len(products)])
			l.Quantity = 1 + j
			lines = append(lines, l)
		}
		req := domain.NewSaleRequest(lines, domain.PaymentCash, domain.ComputeTotal(lines)+1000)
		sale := domain.NewSale(req)
		sale.CreatedAt = day.Add(time.Duration(i) * time.Minute)
		sales[i] = *sale
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		file, err := workers.BuildDailyReport("2025-03-14", sales)
		if err != nil {
			b.Fatal(err)
		}
		var buf bytes.Buffer
		if err := file.Write(&buf); err != nil {
			b.Fatal(err)
		}
	}
}
