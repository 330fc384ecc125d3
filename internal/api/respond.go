package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/gsmmotor/storefront/internal/domain/auth"
	"github.com/gsmmotor/storefront/internal/domain/cart"
	"github.com/gsmmotor/storefront/internal/domain/order"
	"github.com/gsmmotor/storefront/internal/domain/product"
	"github.com/gsmmotor/storefront/internal/domain/user"
)

// errorBody is the JSON shape of every non-2xx response. Fields carries
// per-field validation messages when the failure is input-shaped.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{
		Error:  "validation failed",
		Fields: fields,
	})
}

// writeDomainError maps domain errors onto HTTP statuses. Anything unmapped
// is logged and collapsed into a generic 500 so internals never leak.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr      *product.InsufficientStockError
		transitionErr *order.TransitionError
	)
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, product.ErrCategoryNotFound),
		errors.Is(err, product.ErrBannerNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrProofNotFound),
		errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, product.ErrCategoryExists),
		errors.Is(err, product.ErrCategoryInUse):
		writeError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, cart.ErrInvalidQuantity):
		writeFieldErrors(w, map[string]string{"quantity": err.Error()})

	case errors.As(err, &stockErr):
		writeError(w, http.StatusUnprocessableEntity, stockErr.Error())

	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrIncompleteAddress),
		errors.Is(err, order.ErrInvalidCourier),
		errors.Is(err, order.ErrMissingShippingCost):
		writeError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.As(err, &transitionErr):
		writeError(w, http.StatusUnprocessableEntity, transitionErr.Error())

	case errors.Is(err, order.ErrPaymentVerified),
		errors.Is(err, order.ErrProofAlreadyDecided):
		writeError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, order.ErrCheckoutInProgress):
		writeError(w, http.StatusConflict, err.Error())

	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")

	default:
		zctx.From(r.Context()).Error("Unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
