package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gsmmotor/storefront/internal/domain/cart"
)

type cartLineResponse struct {
	ID       int64           `json:"id"`
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
	// UnitPrice is the tier price that applies at the line's quantity.
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Items            []cartLineResponse `json:"items"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	TotalWeightGrams int                `json:"total_weight_grams"`
	TotalItems       int                `json:"total_items"`
}

func toCartResponse(sum *cart.Summary) cartResponse {
	items := make([]cartLineResponse, len(sum.Lines))
	for i := range sum.Lines {
		line := &sum.Lines[i]
		items[i] = cartLineResponse{
			ID:        line.Item.ID,
			Product:   toProductResponse(&line.Product),
			Quantity:  line.Item.Quantity,
			UnitPrice: line.Product.EffectivePrice(line.Item.Quantity),
			Subtotal:  line.Subtotal(),
		}
	}
	return cartResponse{
		Items:            items,
		Subtotal:         sum.Subtotal,
		TotalWeightGrams: sum.TotalWeightGrams,
		TotalItems:       sum.TotalItems,
	}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sum, err := h.carts.Summarize(r.Context(), requestUser(r).ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(sum))
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quantity, err := h.carts.Add(r.Context(), requestUser(r).ID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message  string `json:"message"`
		Quantity int    `json:"quantity"`
	}{"product added to cart", quantity})
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.carts.Update(r.Context(), requestUser(r).ID, itemID, req.Quantity); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{"cart updated"})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}

	if err := h.carts.Remove(r.Context(), requestUser(r).ID, itemID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{"item removed from cart"})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), requestUser(r).ID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{"cart cleared"})
}

func (h *Handler) countCart(w http.ResponseWriter, r *http.Request) {
	count, err := h.carts.Count(r.Context(), requestUser(r).ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Count int `json:"count"`
	}{count})
}
