// internal/core/domain/product.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category groups products on the shelf and in reports
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Product is a sellable item as seen by the point of sale.
// Prices are whole Chilean pesos.
type Product struct {
	ID             int64     `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	UnitPrice      int64     `json:"unit_price"`
	AvailableStock int       `json:"available_stock"`
	CategoryID     *int64    `json:"category_id,omitempty"`
	CategoryName   string    `json:"category,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

// Validate performs domain validation on the product
func (p *Product) Validate() error {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)

	if p.Code == "" {
		return fmt.Errorf("code is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.UnitPrice < 0 {
		return fmt.Errorf("unit_price cannot be negative")
	}
	if p.AvailableStock < 0 {
		return fmt.Errorf("available_stock cannot be negative")
	}
	return nil
}

// InStock reports whether at least one unit can be sold
func (p Product) InStock() bool {
	return p.AvailableStock > 0
}

// Matches reports whether term is a case-insensitive substring of the
// product name or code. An empty term matches everything.
func (p Product) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Code), term)
}

// PrepareForStorage sets timestamps and defaults before persisting
func (p *Product) PrepareForStorage() {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
		p.Active = true
	}
	p.UpdatedAt = now
}
