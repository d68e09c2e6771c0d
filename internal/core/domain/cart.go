// internal/core/domain/cart.go
package domain

import "fmt"

// CartLine is one product in the in-progress sale. Name and UnitPrice are
// captured when the line is first created and are not refreshed afterwards.
type CartLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// NewCartLine opens a line for p with quantity 1
func NewCartLine(p Product) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Quantity:  1,
	}
}

// Subtotal returns quantity times unit price
func (l CartLine) Subtotal() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

// Validate checks the structural invariants of a single line
func (l CartLine) Validate() error {
	if l.ProductID == 0 {
		return fmt.Errorf("product_id is required")
	}
	if l.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", l.Quantity)
	}
	if l.UnitPrice < 0 {
		return fmt.Errorf("unit_price cannot be negative")
	}
	return nil
}

// ValidateLines checks every line and rejects duplicated products
func ValidateLines(lines []CartLine) error {
	seen := make(map[int64]struct{}, len(lines))
	for i, l := range lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("line %d: duplicate product %d", i, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

// ComputeTotal sums quantity * unit price over lines
func ComputeTotal(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// ComputeCount sums quantities over lines
func ComputeCount(lines []CartLine) int {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return count
}

// CloneLines returns a copy that shares no backing array with lines
func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}
