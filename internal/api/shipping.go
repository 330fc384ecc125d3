package api

import (
	"net/http"
	"strconv"

	"github.com/gsmmotor/storefront/internal/domain/order"
	"github.com/gsmmotor/storefront/internal/shipping"
)

func (h *Handler) searchDestinations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search")
	if query == "" {
		writeFieldErrors(w, map[string]string{"search": "search term is required"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	destinations, err := h.rates.SearchDestinations(r.Context(), query, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Destinations []shipping.Destination `json:"destinations"`
	}{destinations})
}

// shippingCost quotes courier rates for the user's current cart weight and
// stored destination. The quote is informative; checkout re-validates the
// chosen cost against the request.
func (h *Handler) shippingCost(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	courier := r.URL.Query().Get("courier")
	if !order.CourierAllowed(courier) {
		writeFieldErrors(w, map[string]string{"courier": "courier must be one of jne, jnt"})
		return
	}

	destinationID := r.URL.Query().Get("destination_id")
	if destinationID == "" {
		destinationID = u.SubdistrictID
	}
	if destinationID == "" {
		writeFieldErrors(w, map[string]string{"destination_id": "destination is required"})
		return
	}

	sum, err := h.carts.Summarize(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if sum.TotalWeightGrams == 0 {
		writeDomainError(w, r, order.ErrEmptyCart)
		return
	}

	rates, err := h.rates.CalculateCost(r.Context(), destinationID, sum.TotalWeightGrams, courier)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Rates       []shipping.Rate `json:"rates"`
		WeightGrams int             `json:"weight_grams"`
	}{rates, sum.TotalWeightGrams})
}
