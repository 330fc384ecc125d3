package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gsmmotor/storefront/internal/domain/auth"
	"github.com/gsmmotor/storefront/internal/domain/user"
)

type contextKey int

const (
	userKey contextKey = iota
	apiKeyKey
)

// userHeader carries the authenticated user ID. The auth gateway in front of
// this service validates the session and sets the header; the service trusts
// it and only resolves the account.
const userHeader = "X-User-ID"

// apiKeyHeader carries the raw back-office API key.
const apiKeyHeader = "X-API-Key"

// withUser resolves the authenticated user from the gateway header and puts
// the account snapshot into the request context.
func (h *Handler) withUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(userHeader), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		u, err := h.users.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u)
		next(w, r.WithContext(ctx))
	})
}

// withAdmin authenticates the back-office API key and requires the admin
// scope.
func (h *Handler) withAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "api key required")
			return
		}

		info, err := h.verifier.Authenticate(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !info.HasScope(auth.ScopeAdmin) {
			writeError(w, http.StatusForbidden, "admin scope required")
			return
		}

		ctx := context.WithValue(r.Context(), apiKeyKey, info)
		next(w, r.WithContext(ctx))
	})
}

// requestUser returns the account put into the context by withUser.
func requestUser(r *http.Request) *user.User {
	u, _ := r.Context().Value(userKey).(*user.User)
	return u
}
