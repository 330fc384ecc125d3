// Package notify sends customer and back-office emails. Notifications are
// fire-and-forget: a failed send is logged and swallowed, never surfaced to
// the operation that triggered it.
package notify

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderItemInfo is a line summary for the admin notification body.
type OrderItemInfo struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// OrderPlaced describes a freshly placed order for notification purposes.
type OrderPlaced struct {
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	GrandTotal      decimal.Decimal
	ShippingCost    decimal.Decimal
	Items           []OrderItemInfo
}

// Notifier delivers order lifecycle notifications.
type Notifier interface {
	// OrderConfirmation notifies the customer that their order was received
	// and how to pay.
	OrderConfirmation(ctx context.Context, o OrderPlaced) error
	// NewOrderAlert notifies every back-office recipient about a new order.
	NewOrderAlert(ctx context.Context, o OrderPlaced) error
}

// Nop is a Notifier that does nothing. Used when SMTP is not configured.
type Nop struct{}

func (Nop) OrderConfirmation(context.Context, OrderPlaced) error { return nil }
func (Nop) NewOrderAlert(context.Context, OrderPlaced) error     { return nil }
