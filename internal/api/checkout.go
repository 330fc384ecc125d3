package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gsmmotor/storefront/internal/domain/order"
	"github.com/gsmmotor/storefront/internal/domain/user"
	"github.com/gsmmotor/storefront/internal/notify"
)

// prepareCheckout reports everything the client needs to render the checkout
// screen: the cart totals, whether the stored address can take a courier
// shipment, and the transfer destination.
func (h *Handler) prepareCheckout(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	sum, err := h.carts.Summarize(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Cart            cartResponse `json:"cart"`
		AddressComplete bool         `json:"address_complete"`
		Address         string       `json:"address"`
		Couriers        []string     `json:"couriers"`
		Bank            BankAccount  `json:"bank"`
	}{
		Cart:            toCartResponse(sum),
		AddressComplete: u.CompleteAddress(),
		Address:         u.FullAddress(),
		Couriers:        []string{"jne", "jnt"},
		Bank:            h.cfg.Bank,
	})
}

type checkoutRequest struct {
	ShippingMethod string          `json:"shipping_method"`
	Courier        string          `json:"courier"`
	CourierService string          `json:"courier_service"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	Notes          string          `json:"notes"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	method := order.ShippingMethod(req.ShippingMethod)
	if !method.Valid() {
		writeFieldErrors(w, map[string]string{"shipping_method": "must be one of pickup, ojol, courier"})
		return
	}

	o, err := h.checkout.PlaceOrder(r.Context(), u, order.CheckoutRequest{
		ShippingMethod: method,
		Courier:        req.Courier,
		CourierService: req.CourierService,
		ShippingCost:   req.ShippingCost,
		Notes:          req.Notes,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.notifyOrderPlaced(zctx.From(r.Context()), u, o)

	writeJSON(w, http.StatusCreated, struct {
		Message string        `json:"message"`
		Order   orderResponse `json:"order"`
		Bank    BankAccount   `json:"bank"`
	}{
		Message: "order placed, please transfer " + o.GrandTotal().StringFixed(0) + " and upload your payment proof",
		Order:   toOrderResponse(o),
		Bank:    h.cfg.Bank,
	})
}

// notifyOrderPlaced fans the confirmation and back-office alert out in the
// background. Failures are logged and swallowed; the order already exists.
func (h *Handler) notifyOrderPlaced(lg *zap.Logger, u *user.User, o *order.Order) {
	items := make([]notify.OrderItemInfo, len(o.Items))
	for i, it := range o.Items {
		items[i] = notify.OrderItemInfo{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.PriceAtPurchase,
		}
	}
	placed := notify.OrderPlaced{
		OrderNumber:     o.OrderNumber,
		CustomerName:    u.Name,
		CustomerEmail:   u.Email,
		CustomerPhone:   u.Phone,
		ShippingAddress: o.ShippingAddress,
		GrandTotal:      o.GrandTotal(),
		ShippingCost:    o.ShippingCost,
		Items:           items,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := h.notifier.OrderConfirmation(ctx, placed); err != nil {
			lg.Warn("Order confirmation failed",
				zap.String("order_number", placed.OrderNumber), zap.Error(err))
		}
		if err := h.notifier.NewOrderAlert(ctx, placed); err != nil {
			lg.Warn("New order alert failed",
				zap.String("order_number", placed.OrderNumber), zap.Error(err))
		}
	}()
}
