// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStockInsufficient signals that a cart mutation would exceed known stock.
	ErrStockInsufficient = errors.New("stock insufficient")
	// ErrLookupMiss signals that a scanned code matched no product.
	ErrLookupMiss = errors.New("product not found")
	// ErrCommunicationFault signals that the inventory service could not be reached
	// or answered with something unusable.
	ErrCommunicationFault = errors.New("inventory service unreachable")
	// ErrServiceRejection signals that the inventory service refused a sale.
	ErrServiceRejection = errors.New("sale rejected")
	// ErrPersistence signals that the cart could not be read or written.
	ErrPersistence = errors.New("cart persistence failed")

	ErrEmptyCart          = errors.New("cart is empty")
	ErrInsufficientTender = errors.New("amount received is less than total")
	ErrCommitInFlight     = errors.New("a sale commit is already in flight")
	ErrInvalidState       = errors.New("operation not allowed in current checkout state")
	ErrCartLocked         = errors.New("cart is locked while a sale is committing")
	ErrSaleNotConfirmed   = errors.New("cancellation not confirmed")
	ErrProductNotFound    = errors.New("product does not exist")
	ErrSaleNotFound       = errors.New("sale does not exist")
)

// ServiceRejectionError carries the reason the inventory service gave
type ServiceRejectionError struct {
	Reason string
}

func (e *ServiceRejectionError) Error() string {
	if e.Reason == "" {
		return ErrServiceRejection.Error()
	}
	return fmt.Sprintf("%s: %s", ErrServiceRejection, e.Reason)
}

// Is makes errors.Is(err, ErrServiceRejection) hold
func (e *ServiceRejectionError) Is(target error) bool {
	return target == ErrServiceRejection
}

// NewServiceRejection wraps a rejection reason
func NewServiceRejection(reason string) error {
	return &ServiceRejectionError{Reason: reason}
}

// StockMismatchError is raised server side when a line asks for more units
// than are on hand at commit time.
type StockMismatchError struct {
	ProductID int64
	Name      string
	Available int
	Requested int
}

func (e *StockMismatchError) Error() string {
	return fmt.Sprintf("stock mismatch: %s has %d available, %d requested", e.Name, e.Available, e.Requested)
}

// Is makes errors.Is(err, ErrStockInsufficient) hold
func (e *StockMismatchError) Is(target error) bool {
	return target == ErrStockInsufficient
}
