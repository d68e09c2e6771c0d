// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how the customer settles a sale
type PaymentMethod string

// Payment method constants
const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// PaymentMethods lists the accepted methods in display order
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentTransfer}

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// ParsePaymentMethod accepts the canonical names and the Spanish labels
// printed on the terminal keys.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash", "efectivo":
		return PaymentCash, nil
	case "card", "tarjeta":
		return PaymentCard, nil
	case "transfer", "transferencia":
		return PaymentTransfer, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// SaleLine is a committed line as sent to the inventory service
type SaleLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

// SaleRequest is the commit payload for one sale
type SaleRequest struct {
	Lines         []SaleLine    `json:"lines"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CashReceived  int64         `json:"cash_received"`
	ChangeDue     int64         `json:"change_due"`
}

// NewSaleRequest builds a commit payload from cart lines
func NewSaleRequest(lines []CartLine, method PaymentMethod, cashReceived int64) SaleRequest {
	req := SaleRequest{
		Lines:         make([]SaleLine, 0, len(lines)),
		PaymentMethod: method,
		CashReceived:  cashReceived,
	}
	for _, l := range lines {
		req.Lines = append(req.Lines, SaleLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	req.ChangeDue = ChangeDue(cashReceived, req.Total())
	return req
}

// Total sums quantity * unit price over the request lines
func (r SaleRequest) Total() int64 {
	var total int64
	for _, l := range r.Lines {
		total += int64(l.Quantity) * l.UnitPrice
	}
	return total
}

// Validate checks the payload the way the inventory service accepts it
func (r *SaleRequest) Validate() error {
	if len(r.Lines) == 0 {
		return fmt.Errorf("sale has no lines")
	}
	seen := make(map[int64]struct{}, len(r.Lines))
	for i, l := range r.Lines {
		if l.ProductID <= 0 {
			return fmt.Errorf("line %d: product_id is required", i)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("line %d: quantity must be positive", i)
		}
		if l.UnitPrice < 0 {
			return fmt.Errorf("line %d: unit_price cannot be negative", i)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("line %d: duplicate product %d", i, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}
	if !r.PaymentMethod.Valid() {
		return fmt.Errorf("unknown payment method %q", r.PaymentMethod)
	}

	total := r.Total()
	if r.CashReceived < total {
		return fmt.Errorf("cash_received %d is less than total %d", r.CashReceived, total)
	}
	if r.ChangeDue != r.CashReceived-total {
		return fmt.Errorf("change_due %d does not match %d", r.ChangeDue, r.CashReceived-total)
	}
	return nil
}

// SaleResult is the inventory service verdict on a commit
type SaleResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	SaleID  string `json:"sale_id,omitempty"`
}

// ChangeDue returns max(0, amount-total)
func ChangeDue(amount, total int64) int64 {
	if amount <= total {
		return 0
	}
	return amount - total
}

// PendingSale is the snapshot taken when payment is opened. It lives only
// until the sale is committed or the payment is cancelled.
type PendingSale struct {
	Lines        []CartLine `json:"lines"`
	Total        int64      `json:"total"`
	CashReceived int64      `json:"cash_received"`
	ChangeDue    int64      `json:"change_due"`
}

// CanConfirm reports whether the tendered amount covers the total
func (p PendingSale) CanConfirm() bool {
	return p.CashReceived >= p.Total
}

// DayLayout is the calendar-day format used by sales queries and reports
const DayLayout = "2006-01-02"

// Sale is a committed sale as stored by the inventory service
type Sale struct {
	ID            uuid.UUID     `json:"id"`
	Total         int64         `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CashReceived  int64         `json:"cash_received"`
	ChangeDue     int64         `json:"change_due"`
	Items         []SaleItem    `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
}

// SaleItem is one stored line of a committed sale
type SaleItem struct {
	ProductID   int64  `json:"product_id"`
	ProductCode string `json:"product_code,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

// NewSale turns a validated request into a sale record
func NewSale(req SaleRequest) *Sale {
	sale := &Sale{
		ID:            uuid.New(),
		PaymentMethod: req.PaymentMethod,
		CashReceived:  req.CashReceived,
		ChangeDue:     req.ChangeDue,
		Items:         make([]SaleItem, 0, len(req.Lines)),
		CreatedAt:     time.Now(),
	}
	for _, l := range req.Lines {
		sub := int64(l.Quantity) * l.UnitPrice
		sale.Items = append(sale.Items, SaleItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  sub,
		})
		sale.Total += sub
	}
	return sale
}

// ProductIDs returns the ids of every product in the sale
func (s *Sale) ProductIDs() []int64 {
	ids := make([]int64, 0, len(s.Items))
	for _, it := range s.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// Day returns the local calendar day the sale was committed on
func (s *Sale) Day() string {
	return s.CreatedAt.In(time.Local).Format(DayLayout)
}

// ItemCount returns the number of units sold
func (s *Sale) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}
