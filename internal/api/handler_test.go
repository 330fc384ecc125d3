package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsmmotor/storefront/internal/domain/auth"
	"github.com/gsmmotor/storefront/internal/domain/cart"
	"github.com/gsmmotor/storefront/internal/domain/order"
	"github.com/gsmmotor/storefront/internal/domain/product"
	"github.com/gsmmotor/storefront/internal/domain/user"
	"github.com/gsmmotor/storefront/internal/notify"
	"github.com/gsmmotor/storefront/internal/shipping"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID    map[int64]*product.Product
	bulkPct decimal.Decimal
	bulkN   int64
}

func (m *mockProductRepo) List(_ context.Context, _ product.ListFilter) ([]product.Product, int, error) {
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetBySlug(_ context.Context, slug string) (*product.Product, error) {
	for _, p := range m.byID {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) Create(_ context.Context, p *product.Product) error {
	p.ID = int64(len(m.byID) + 1)
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) Update(_ context.Context, p *product.Product) error {
	if _, ok := m.byID[p.ID]; !ok {
		return product.ErrNotFound
	}
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return product.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *mockProductRepo) BulkAdjustPrices(_ context.Context, pct decimal.Decimal) (int64, error) {
	m.bulkPct = pct
	m.bulkN = int64(len(m.byID))
	return m.bulkN, nil
}

func (m *mockProductRepo) CountBySubmitter(_ context.Context, _ time.Time) (map[string]int64, error) {
	return map[string]int64{"budi": 3}, nil
}

type mockCategoryRepo struct {
	byID map[int64]*product.Category
	// inUse marks category ids that still have products attached, so
	// deletes against them fail the way the foreign key would.
	inUse map[int64]bool
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{
		byID:  map[int64]*product.Category{1: {ID: 1, Name: "Oli", Slug: "oli"}},
		inUse: map[int64]bool{},
	}
}

func (m *mockCategoryRepo) ListCategories(_ context.Context) ([]product.Category, error) {
	out := make([]product.Category, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCategoryRepo) CreateCategory(_ context.Context, c *product.Category) error {
	for _, have := range m.byID {
		if have.Slug == c.Slug {
			return product.ErrCategoryExists
		}
	}
	c.ID = int64(len(m.byID) + 1)
	m.byID[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) UpdateCategory(_ context.Context, c *product.Category) error {
	if _, ok := m.byID[c.ID]; !ok {
		return product.ErrCategoryNotFound
	}
	m.byID[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return product.ErrCategoryNotFound
	}
	if m.inUse[id] {
		return product.ErrCategoryInUse
	}
	delete(m.byID, id)
	return nil
}

type mockBannerRepo struct {
	byID   map[int64]*product.Banner
	nextID int64
}

func newMockBannerRepo() *mockBannerRepo {
	return &mockBannerRepo{byID: map[int64]*product.Banner{}}
}

func (m *mockBannerRepo) ListBanners(_ context.Context, activeOnly bool) ([]product.Banner, error) {
	out := make([]product.Banner, 0, len(m.byID))
	for _, b := range m.byID {
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockBannerRepo) CreateBanner(_ context.Context, b *product.Banner) error {
	m.nextID++
	b.ID = m.nextID
	b.Position = int(m.nextID)
	m.byID[b.ID] = b
	return nil
}

func (m *mockBannerRepo) DeleteBanner(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return product.ErrBannerNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *mockBannerRepo) ToggleBanner(_ context.Context, id int64) (bool, error) {
	b, ok := m.byID[id]
	if !ok {
		return false, product.ErrBannerNotFound
	}
	b.Active = !b.Active
	return b.Active, nil
}

type mockUserRepo struct {
	byID map[int64]*user.User
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type mockCartRepo struct {
	lines   map[int64][]cart.Line
	cleared bool
}

func (m *mockCartRepo) Add(_ context.Context, userID, productID int64, quantity, maxQuantity int) (int, error) {
	if quantity > maxQuantity {
		quantity = maxQuantity
	}
	m.lines[userID] = append(m.lines[userID], cart.Line{
		Item: cart.Item{ID: int64(len(m.lines[userID]) + 1), UserID: userID, ProductID: productID, Quantity: quantity},
	})
	return quantity, nil
}

func (m *mockCartRepo) GetLine(_ context.Context, userID, itemID int64) (*cart.Line, error) {
	for i := range m.lines[userID] {
		if m.lines[userID][i].Item.ID == itemID {
			return &m.lines[userID][i], nil
		}
	}
	return nil, cart.ErrItemNotFound
}

func (m *mockCartRepo) ListLines(_ context.Context, userID int64) ([]cart.Line, error) {
	return m.lines[userID], nil
}

func (m *mockCartRepo) UpdateQuantity(_ context.Context, userID, itemID int64, quantity int) error {
	for i := range m.lines[userID] {
		if m.lines[userID][i].Item.ID == itemID {
			m.lines[userID][i].Item.Quantity = quantity
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (m *mockCartRepo) Remove(_ context.Context, userID, itemID int64) error {
	for i := range m.lines[userID] {
		if m.lines[userID][i].Item.ID == itemID {
			m.lines[userID] = append(m.lines[userID][:i], m.lines[userID][i+1:]...)
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (m *mockCartRepo) Clear(_ context.Context, userID int64) error {
	m.cleared = true
	m.lines[userID] = nil
	return nil
}

func (m *mockCartRepo) Count(_ context.Context, userID int64) (int, error) {
	n := 0
	for _, l := range m.lines[userID] {
		n += l.Item.Quantity
	}
	return n, nil
}

type mockOrderRepo struct {
	byID   map[int64]*order.Order
	nextID int64
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byID: make(map[int64]*order.Order), nextID: 1}
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, o *order.Order, items []order.Item) error {
	o.ID = m.nextID
	m.nextID++
	o.Items = items
	o.CreatedAt = time.Now()
	stored := *o
	m.byID[o.ID] = &stored
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) GetForUser(_ context.Context, id, userID int64) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok || o.UserID != userID {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID int64, _, _ int) ([]order.Order, int, error) {
	var out []order.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) List(_ context.Context, _ order.ListFilter) ([]order.Order, int, error) {
	var out []order.Order
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, o *order.Order) error {
	stored, ok := m.byID[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	stored.Status = o.Status
	stored.PaymentStatus = o.PaymentStatus
	stored.TrackingNumber = o.TrackingNumber
	return nil
}

func (m *mockOrderRepo) AddProof(_ context.Context, p *order.PaymentProof, payment order.PaymentStatus) error {
	o := m.byID[p.OrderID]
	p.ID = int64(len(o.Proofs) + 1)
	p.CreatedAt = time.Now()
	o.Proofs = append(o.Proofs, *p)
	o.PaymentStatus = payment
	return nil
}

func (m *mockOrderRepo) GetProof(_ context.Context, orderID, proofID int64) (*order.PaymentProof, error) {
	o, ok := m.byID[orderID]
	if !ok {
		return nil, order.ErrNotFound
	}
	for i := range o.Proofs {
		if o.Proofs[i].ID == proofID {
			cp := o.Proofs[i]
			return &cp, nil
		}
	}
	return nil, order.ErrProofNotFound
}

func (m *mockOrderRepo) DecideProof(_ context.Context, p *order.PaymentProof, payment order.PaymentStatus) error {
	o := m.byID[p.OrderID]
	for i := range o.Proofs {
		if o.Proofs[i].ID == p.ID {
			o.Proofs[i] = *p
			o.PaymentStatus = payment
			return nil
		}
	}
	return order.ErrProofNotFound
}

func (m *mockOrderRepo) Stats(_ context.Context) (*order.DashboardStats, error) {
	return &order.DashboardStats{TotalOrders: int64(len(m.byID)), Revenue: decimal.Zero}, nil
}

type mockShippingClient struct{}

func (mockShippingClient) SearchDestinations(_ context.Context, _ string, _ int) ([]shipping.Destination, error) {
	return []shipping.Destination{{SubdistrictID: "5779", SubdistrictName: "Sukajadi", CityName: "Bandung"}}, nil
}

func (mockShippingClient) CalculateCost(_ context.Context, _ string, _ int, courier string) ([]shipping.Rate, error) {
	return []shipping.Rate{{Courier: courier, Service: "REG", Cost: 15000, ETD: "2-3"}}, nil
}

type mockKeyRepo struct {
	byHash map[string]*auth.APIKeyInfo
}

func (m *mockKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := m.byHash[hash]
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	return info, nil
}

// --- Helpers ---

const testPepper = "pepper"

type fixture struct {
	handler    *Handler
	mux        *http.ServeMux
	products   *mockProductRepo
	categories *mockCategoryRepo
	banners    *mockBannerRepo
	carts      *mockCartRepo
	orders     *mockOrderRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	oli := &product.Product{
		ID: 1, CategoryID: 1, Name: "Oli Mesin", Slug: "oli-mesin-abc123",
		Price:       decimal.NewFromInt(50000),
		Price3Items: decimal.NewFromInt(45000),
		Stock:       10, WeightGrams: 800,
	}
	busi := &product.Product{
		ID: 2, CategoryID: 1, Name: "Busi", Slug: "busi-def456",
		Price: decimal.NewFromInt(20000),
		Stock: 5, WeightGrams: 100,
	}
	products := &mockProductRepo{byID: map[int64]*product.Product{1: oli, 2: busi}}

	customer := &user.User{
		ID: 7, Name: "Andi", Email: "andi@example.com", Phone: "0812",
		Role: user.RoleCustomer, Province: "Jawa Barat", City: "Bandung",
		District: "Sukajadi", SubdistrictID: "5779", PostalCode: "40162",
		AddressDetail: "Jl. Merdeka No. 1",
	}
	users := &mockUserRepo{byID: map[int64]*user.User{7: customer}}

	carts := &mockCartRepo{lines: map[int64][]cart.Line{
		7: {
			{Item: cart.Item{ID: 1, UserID: 7, ProductID: 1, Quantity: 3}, Product: *oli},
			{Item: cart.Item{ID: 2, UserID: 7, ProductID: 2, Quantity: 1}, Product: *busi},
		},
	}}

	orders := newMockOrderRepo()
	cartSvc := cart.NewService(carts, products)
	checkoutSvc := order.NewCheckoutService(carts, orders, nil)
	fulfillSvc := order.NewFulfillmentService(orders)

	adminHash := auth.HashKey([]byte(testPepper), "admin-key")
	readHash := auth.HashKey([]byte(testPepper), "read-key")
	keys := &mockKeyRepo{byHash: map[string]*auth.APIKeyInfo{
		adminHash: {ID: "k1", KeyHash: adminHash, Name: "backoffice", Scopes: []string{auth.ScopeAdmin}},
		readHash:  {ID: "k2", KeyHash: readHash, Name: "readonly", Scopes: []string{"read"}},
	}}

	categories := newMockCategoryRepo()
	categories.inUse[1] = true
	banners := newMockBannerRepo()

	h := NewHandler(
		HandlerConfig{
			UploadDir: t.TempDir(),
			Bank:      BankAccount{Bank: "BCA", Holder: "GSM Motor", Number: "1234567890"},
		},
		products, categories, banners, users,
		cartSvc, checkoutSvc, fulfillSvc, orders,
		mockShippingClient{}, notify.Nop{},
		auth.NewVerifier(keys, []byte(testPepper)),
	)

	return &fixture{
		handler: h, mux: h.Routes(),
		products: products, categories: categories, banners: banners,
		carts: carts, orders: orders,
	}
}

func (f *fixture) do(t *testing.T, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func asCustomer() map[string]string {
	return map[string]string{userHeader: "7"}
}

func asAdmin() map[string]string {
	return map[string]string{apiKeyHeader: "admin-key"}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Products []productResponse `json:"products"`
		Meta     pageMeta          `json:"meta"`
	}
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Products, 2)
	assert.Equal(t, 2, resp.Meta.Total)
}

func TestGetProductNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products/no-such-slug", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartRequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/cart", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/cart", nil, map[string]string{userHeader: "999"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCartTotals(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/cart", nil, asCustomer())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 2)
	// 3 units take the 45000 tier; the single busi stays at base price.
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(155000)), "subtotal %s", resp.Subtotal)
	assert.Equal(t, 3*800+100, resp.TotalWeightGrams)
	assert.Equal(t, 4, resp.TotalItems)
}

func TestAddToCartValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/cart",
		map[string]any{"product_id": 1, "quantity": 0}, asCustomer())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/cart",
		map[string]any{"product_id": 999, "quantity": 1}, asCustomer())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/cart",
		map[string]any{"product_id": 2, "quantity": 50}, asCustomer())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckoutPickup(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout",
		map[string]any{"shipping_method": "pickup"}, asCustomer())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Order orderResponse `json:"order"`
		Bank  BankAccount   `json:"bank"`
	}
	decodeBody(t, rec, &resp)

	assert.True(t, strings.HasPrefix(resp.Order.OrderNumber, "GSM-"))
	assert.True(t, resp.Order.TotalPrice.Equal(decimal.NewFromInt(155000)))
	assert.True(t, resp.Order.ShippingCost.IsZero())
	assert.Equal(t, "pending", resp.Order.Status)
	assert.Equal(t, "pending", resp.Order.PaymentStatus)
	assert.Len(t, resp.Order.Items, 2)
	assert.Equal(t, "BCA", resp.Bank.Bank)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.carts.lines[7] = nil

	rec := f.do(t, http.MethodPost, "/api/checkout",
		map[string]any{"shipping_method": "pickup"}, asCustomer())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckoutUnknownMethod(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout",
		map[string]any{"shipping_method": "teleport"}, asCustomer())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrderOwnershipScope(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout",
		map[string]any{"shipping_method": "pickup"}, asCustomer())
	require.Equal(t, http.StatusCreated, rec.Code)

	// Owner sees the order.
	rec = f.do(t, http.MethodGet, "/api/orders/1", nil, asCustomer())
	assert.Equal(t, http.StatusOK, rec.Code)

	// Pretend the order belongs to someone else.
	f.orders.byID[1].UserID = 42
	rec = f.do(t, http.MethodGet, "/api/orders/1", nil, asCustomer())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/orders", nil,
		map[string]string{apiKeyHeader: "bogus"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/orders", nil,
		map[string]string{apiKeyHeader: "read-key"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/orders", nil, asAdmin())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminUpdateOrderTransition(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout",
		map[string]any{"shipping_method": "pickup"}, asCustomer())
	require.Equal(t, http.StatusCreated, rec.Code)

	// Payment not verified yet; pending cannot move to processing.
	rec = f.do(t, http.MethodPatch, "/api/admin/orders/1",
		map[string]any{"status": "processing"}, asAdmin())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Skipping forward is illegal regardless of payment.
	rec = f.do(t, http.MethodPatch, "/api/admin/orders/1",
		map[string]any{"status": "shipped"}, asAdmin())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	f.orders.byID[1].PaymentStatus = order.PaymentVerified
	rec = f.do(t, http.MethodPatch, "/api/admin/orders/1",
		map[string]any{"status": "processing"}, asAdmin())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminVerifyPayment(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout",
		map[string]any{"shipping_method": "pickup"}, asCustomer())
	require.Equal(t, http.StatusCreated, rec.Code)

	f.orders.byID[1].Proofs = []order.PaymentProof{
		{ID: 1, OrderID: 1, ImagePath: "a.jpg", Status: order.ProofPending},
	}
	f.orders.byID[1].PaymentStatus = order.PaymentUploaded

	rec = f.do(t, http.MethodPost, "/api/admin/orders/1/verify-payment/1",
		map[string]any{"status": "verified"}, asAdmin())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, order.PaymentVerified, f.orders.byID[1].PaymentStatus)
	// Verification never advances fulfillment on its own.
	assert.Equal(t, order.StatusPending, f.orders.byID[1].Status)

	// A decided proof cannot be decided again.
	rec = f.do(t, http.MethodPost, "/api/admin/orders/1/verify-payment/1",
		map[string]any{"status": "rejected"}, asAdmin())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/admin/orders/1/verify-payment/1",
		map[string]any{"status": "maybe"}, asAdmin())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAdminBulkPrice(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admin/products/bulk-price",
		map[string]any{"percentage": 5}, asAdmin())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Updated int64 `json:"updated"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, int64(2), resp.Updated)
	assert.True(t, f.products.bulkPct.Equal(decimal.NewFromInt(5)))

	rec = f.do(t, http.MethodPost, "/api/admin/products/bulk-price",
		map[string]any{"percentage": 150}, asAdmin())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAdminCreateProductValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admin/products",
		map[string]any{"name": "", "category_id": 0, "price": 0}, asAdmin())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorBody
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.Fields, "name")
	assert.Contains(t, resp.Fields, "category_id")
	assert.Contains(t, resp.Fields, "price")

	rec = f.do(t, http.MethodPost, "/api/admin/products", map[string]any{
		"name": "Kampas Rem", "category_id": 1, "price": 35000,
		"stock": 4, "weight_grams": 300, "submitted_by": "budi",
	}, asAdmin())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created productResponse
	decodeBody(t, rec, &created)
	assert.True(t, strings.HasPrefix(created.Slug, "kampas-rem-"))
}

func TestShippingCost(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/shipping/cost?courier=jne", nil, asCustomer())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rates       []shipping.Rate `json:"rates"`
		WeightGrams int             `json:"weight_grams"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Rates, 1)
	assert.Equal(t, int64(15000), resp.Rates[0].Cost)
	assert.Equal(t, 2500, resp.WeightGrams)

	rec = f.do(t, http.MethodGet, "/api/shipping/cost?courier=tiki", nil, asCustomer())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListBannersActiveOnly(t *testing.T) {
	f := newFixture(t)

	f.banners.byID[1] = &product.Banner{ID: 1, ImagePath: "promo.jpg", Active: true, Position: 1}
	f.banners.byID[2] = &product.Banner{ID: 2, ImagePath: "old.jpg", Active: false, Position: 2}
	f.banners.nextID = 2

	rec := f.do(t, http.MethodGet, "/api/banners", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Banners []bannerResponse `json:"banners"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Banners, 1)
	assert.Equal(t, "promo.jpg", resp.Banners[0].ImagePath)

	// The back-office list shows hidden banners too.
	rec = f.do(t, http.MethodGet, "/api/admin/banners", nil, asAdmin())
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Banners, 2)
}

func TestAdminBannerLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admin/banners",
		map[string]any{"title": "Servis Hemat"}, asAdmin())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var fail errorBody
	decodeBody(t, rec, &fail)
	assert.Contains(t, fail.Fields, "image_path")

	rec = f.do(t, http.MethodPost, "/api/admin/banners",
		map[string]any{"title": "Servis Hemat", "image_path": "servis.jpg"}, asAdmin())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created bannerResponse
	decodeBody(t, rec, &created)
	assert.True(t, created.Active)
	assert.Equal(t, 1, created.Position)

	// Toggle flips visibility both ways.
	rec = f.do(t, http.MethodPost, "/api/admin/banners/1/toggle", nil, asAdmin())
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled struct {
		Active bool `json:"active"`
	}
	decodeBody(t, rec, &toggled)
	assert.False(t, toggled.Active)

	rec = f.do(t, http.MethodPost, "/api/admin/banners/1/toggle", nil, asAdmin())
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &toggled)
	assert.True(t, toggled.Active)

	rec = f.do(t, http.MethodDelete, "/api/admin/banners/1", nil, asAdmin())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/admin/banners/1", nil, asAdmin())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCategoryCRUD(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admin/categories",
		map[string]any{"name": "x"}, asAdmin())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var fail errorBody
	decodeBody(t, rec, &fail)
	assert.Contains(t, fail.Fields, "name")

	rec = f.do(t, http.MethodPost, "/api/admin/categories",
		map[string]any{"name": "Kampas Rem"}, asAdmin())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created categoryResponse
	decodeBody(t, rec, &created)
	assert.Equal(t, "kampas-rem", created.Slug)

	// Duplicate slug is rejected.
	rec = f.do(t, http.MethodPost, "/api/admin/categories",
		map[string]any{"name": "Kampas Rem"}, asAdmin())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/admin/categories/2",
		map[string]any{"name": "Kampas Kopling"}, asAdmin())
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &created)
	assert.Equal(t, "kampas-kopling", created.Slug)

	rec = f.do(t, http.MethodPut, "/api/admin/categories/99",
		map[string]any{"name": "Aki"}, asAdmin())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Category 1 still has products attached.
	rec = f.do(t, http.MethodDelete, "/api/admin/categories/1", nil, asAdmin())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/admin/categories/2", nil, asAdmin())
	assert.Equal(t, http.StatusOK, rec.Code)
}
