// Package api exposes the storefront over plain HTTP with JSON bodies.
// Handlers stay thin: they decode input, call a domain service, and map the
// result or error onto the wire.
package api

import (
	"net/http"

	"github.com/gsmmotor/storefront/internal/domain/auth"
	"github.com/gsmmotor/storefront/internal/domain/cart"
	"github.com/gsmmotor/storefront/internal/domain/order"
	"github.com/gsmmotor/storefront/internal/domain/product"
	"github.com/gsmmotor/storefront/internal/domain/user"
	"github.com/gsmmotor/storefront/internal/notify"
	"github.com/gsmmotor/storefront/internal/shipping"
)

// BankAccount is shown to customers in the payment instructions after
// checkout.
type BankAccount struct {
	Bank   string `json:"bank"`
	Holder string `json:"holder"`
	Number string `json:"number"`
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// UploadDir is where payment proof images are stored.
	UploadDir string
	// Bank appears in checkout responses and payment instructions.
	Bank BankAccount
	// PerPage is the default page size for paginated listings.
	PerPage int
}

// Handler carries the domain dependencies for every route.
type Handler struct {
	cfg HandlerConfig

	products   product.Repository
	categories product.CategoryRepository
	banners    product.BannerRepository
	users      user.Repository
	carts      *cart.Service
	checkout   *order.CheckoutService
	fulfill    *order.FulfillmentService
	orders     order.Repository
	rates      shipping.Client
	notifier   notify.Notifier
	verifier   *auth.Verifier
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products product.Repository,
	categories product.CategoryRepository,
	banners product.BannerRepository,
	users user.Repository,
	carts *cart.Service,
	checkout *order.CheckoutService,
	fulfill *order.FulfillmentService,
	orders order.Repository,
	rates shipping.Client,
	notifier notify.Notifier,
	verifier *auth.Verifier,
) *Handler {
	if cfg.PerPage <= 0 {
		cfg.PerPage = 20
	}
	return &Handler{
		cfg:        cfg,
		products:   products,
		categories: categories,
		banners:    banners,
		users:      users,
		carts:      carts,
		checkout:   checkout,
		fulfill:    fulfill,
		orders:     orders,
		rates:      rates,
		notifier:   notifier,
		verifier:   verifier,
	}
}

// Routes builds the API mux. Customer routes require the authenticated user
// header; admin routes require an API key with the admin scope.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{slug}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/banners", h.listBanners)
	mux.HandleFunc("GET /api/shipping/destinations", h.searchDestinations)

	mux.Handle("GET /api/cart", h.withUser(h.getCart))
	mux.Handle("POST /api/cart", h.withUser(h.addToCart))
	mux.Handle("PATCH /api/cart/{id}", h.withUser(h.updateCartItem))
	mux.Handle("DELETE /api/cart/{id}", h.withUser(h.removeCartItem))
	mux.Handle("DELETE /api/cart", h.withUser(h.clearCart))
	mux.Handle("GET /api/cart/count", h.withUser(h.countCart))

	mux.Handle("GET /api/shipping/cost", h.withUser(h.shippingCost))

	mux.Handle("GET /api/checkout", h.withUser(h.prepareCheckout))
	mux.Handle("POST /api/checkout", h.withUser(h.placeOrder))

	mux.Handle("GET /api/orders", h.withUser(h.listMyOrders))
	mux.Handle("GET /api/orders/{id}", h.withUser(h.getMyOrder))
	mux.Handle("POST /api/orders/{id}/cancel", h.withUser(h.cancelOrder))
	mux.Handle("POST /api/orders/{id}/payment", h.withUser(h.uploadPaymentProof))

	mux.Handle("GET /api/admin/orders", h.withAdmin(h.adminListOrders))
	mux.Handle("GET /api/admin/orders/{id}", h.withAdmin(h.adminGetOrder))
	mux.Handle("PATCH /api/admin/orders/{id}", h.withAdmin(h.adminUpdateOrder))
	mux.Handle("POST /api/admin/orders/{id}/verify-payment/{proofId}", h.withAdmin(h.adminVerifyPayment))
	mux.Handle("POST /api/admin/products", h.withAdmin(h.adminCreateProduct))
	mux.Handle("PUT /api/admin/products/{id}", h.withAdmin(h.adminUpdateProduct))
	mux.Handle("DELETE /api/admin/products/{id}", h.withAdmin(h.adminDeleteProduct))
	mux.Handle("POST /api/admin/products/bulk-price", h.withAdmin(h.adminBulkPrice))
	mux.Handle("POST /api/admin/categories", h.withAdmin(h.adminCreateCategory))
	mux.Handle("PUT /api/admin/categories/{id}", h.withAdmin(h.adminUpdateCategory))
	mux.Handle("DELETE /api/admin/categories/{id}", h.withAdmin(h.adminDeleteCategory))
	mux.Handle("GET /api/admin/banners", h.withAdmin(h.adminListBanners))
	mux.Handle("POST /api/admin/banners", h.withAdmin(h.adminCreateBanner))
	mux.Handle("DELETE /api/admin/banners/{id}", h.withAdmin(h.adminDeleteBanner))
	mux.Handle("POST /api/admin/banners/{id}/toggle", h.withAdmin(h.adminToggleBanner))
	mux.Handle("GET /api/admin/dashboard", h.withAdmin(h.adminDashboard))
	mux.Handle("GET /api/admin/performance", h.withAdmin(h.adminPerformance))

	return mux
}
