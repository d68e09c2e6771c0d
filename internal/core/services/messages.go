// internal/core/services/messages.go
package services

import (
	"fmt"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

// Cashier-facing texts. Titles are short enough for a toast header.
const (
	msgGenericSaleFailure = "The sale could not be processed. Please try again."
	msgCommunicationFault = "Could not reach the inventory service to complete the sale."
)

func outOfStockNotice(name string) domain.Notification {
	return domain.NewNotification(domain.NotificationError, "Out of stock",
		fmt.Sprintf("%s is sold out", name))
}

func insufficientStockNotice(name string) domain.Notification {
	return domain.NewNotification(domain.NotificationError, "Insufficient stock",
		fmt.Sprintf("Not enough stock for %s", name))
}

func notFoundNotice(code string) domain.Notification {
	return domain.NewNotification(domain.NotificationError, "Product not found",
		fmt.Sprintf("No product matches code %s", code))
}

func emptyCartNotice() domain.Notification {
	return domain.NewNotification(domain.NotificationError, "Error", "There are no products in the cart")
}

func saleCompletedNotice(total int64) domain.Notification {
	return domain.NewNotification(domain.NotificationSuccess, "Sale completed",
		"Total: "+domain.FormatCLP(total))
}

func saleFailedNotice(reason string) domain.Notification {
	if reason == "" {
		reason = msgGenericSaleFailure
	}
	return domain.NewNotification(domain.NotificationError, "Sale failed", reason)
}

func communicationFaultNotice() domain.Notification {
	return domain.NewNotification(domain.NotificationError, "Fatal error", msgCommunicationFault)
}

func saleCancelledNotice() domain.Notification {
	return domain.NewNotification(domain.NotificationSuccess, "Sale cancelled", "The cart has been emptied")
}

func catalogUnavailableNotice(stale bool) domain.Notification {
	if stale {
		return domain.NewNotification(domain.NotificationWarning, "Catalog not refreshed",
			"Could not load products, showing the last known list")
	}
	return domain.NewNotification(domain.NotificationError, "Error",
		"Could not load products from the database")
}
