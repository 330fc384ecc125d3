package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gsmmotor/storefront/internal/domain/order"
	"github.com/gsmmotor/storefront/internal/domain/product"
)

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := h.pagination(r)

	f := order.ListFilter{
		Status:        order.Status(r.URL.Query().Get("status")),
		PaymentStatus: order.PaymentStatus(r.URL.Query().Get("payment_status")),
		Search:        r.URL.Query().Get("search"),
		Page:          page,
		PerPage:       perPage,
	}
	if f.Status != "" && !f.Status.Valid() {
		writeFieldErrors(w, map[string]string{"status": "unknown order status"})
		return
	}

	orders, total, err := h.orders.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, struct {
		Orders []orderResponse `json:"orders"`
		Meta   pageMeta        `json:"meta"`
	}{out, pageMeta{Page: page, PerPage: perPage, Total: total}})
}

func (h *Handler) adminGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) adminUpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req struct {
		Status         string `json:"status"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.fulfill.UpdateStatus(r.Context(), orderID, order.Status(req.Status), req.TrackingNumber)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string        `json:"message"`
		Order   orderResponse `json:"order"`
	}{"order updated", toOrderResponse(o)})
}

func (h *Handler) adminVerifyPayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	proofID, err := strconv.ParseInt(r.PathValue("proofId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proof id")
		return
	}

	var req struct {
		Status     string `json:"status"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	decision := order.ProofStatus(req.Status)
	if decision != order.ProofVerified && decision != order.ProofRejected {
		writeFieldErrors(w, map[string]string{"status": "must be verified or rejected"})
		return
	}

	proof, err := h.fulfill.VerifyPayment(r.Context(), orderID, proofID, decision, req.AdminNotes)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string        `json:"message"`
		Proof   proofResponse `json:"proof"`
	}{
		"payment " + string(proof.Status),
		proofResponse{
			ID:         proof.ID,
			ImagePath:  proof.ImagePath,
			Status:     string(proof.Status),
			AdminNotes: proof.AdminNotes,
			CreatedAt:  proof.CreatedAt,
		},
	})
}

type productRequest struct {
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Price3Items decimal.Decimal `json:"price_3_items"`
	Price5Items decimal.Decimal `json:"price_5_items"`
	Stock       int             `json:"stock"`
	WeightGrams int             `json:"weight_grams"`
	ImagePath   string          `json:"image_path"`
	SubmittedBy string          `json:"submitted_by"`
}

func (r productRequest) validate() map[string]string {
	fields := make(map[string]string)
	if r.Name == "" {
		fields["name"] = "name is required"
	}
	if r.CategoryID <= 0 {
		fields["category_id"] = "category is required"
	}
	if !r.Price.IsPositive() {
		fields["price"] = "price must be positive"
	}
	if r.Stock < 0 {
		fields["stock"] = "stock must not be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *Handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := req.validate(); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	p := &product.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        product.MakeSlug(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Price3Items: req.Price3Items,
		Price5Items: req.Price5Items,
		Stock:       req.Stock,
		WeightGrams: req.WeightGrams,
		ImagePath:   req.ImagePath,
		SubmittedBy: req.SubmittedBy,
	}
	if err := p.ValidateTierPrices(); err != nil {
		writeFieldErrors(w, map[string]string{"price_3_items": err.Error()})
		return
	}

	if err := h.products.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := req.validate(); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	p, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p.CategoryID = req.CategoryID
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Price3Items = req.Price3Items
	p.Price5Items = req.Price5Items
	p.Stock = req.Stock
	p.WeightGrams = req.WeightGrams
	if req.ImagePath != "" {
		p.ImagePath = req.ImagePath
	}
	if err := p.ValidateTierPrices(); err != nil {
		writeFieldErrors(w, map[string]string{"price_3_items": err.Error()})
		return
	}

	if err := h.products.Update(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) adminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.products.Delete(r.Context(), productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{"product deleted"})
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (r categoryRequest) validate() map[string]string {
	if len(r.Name) < 2 {
		return map[string]string{"name": "name must be at least 2 characters"}
	}
	return nil
}

func (h *Handler) adminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := req.validate(); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	c := &product.Category{
		Name: req.Name,
		Slug: product.MakeCategorySlug(req.Name),
	}
	if err := h.categories.CreateCategory(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug})
}

func (h *Handler) adminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := req.validate(); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	c := &product.Category{
		ID:   categoryID,
		Name: req.Name,
		Slug: product.MakeCategorySlug(req.Name),
	}
	if err := h.categories.UpdateCategory(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug})
}

func (h *Handler) adminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	if err := h.categories.DeleteCategory(r.Context(), categoryID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{"category deleted"})
}

// adminListBanners returns every banner, inactive ones included, for the
// back-office list.
func (h *Handler) adminListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.banners.ListBanners(r.Context(), false)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]bannerResponse, len(banners))
	for i := range banners {
		out[i] = toBannerResponse(&banners[i])
	}
	writeJSON(w, http.StatusOK, struct {
		Banners []bannerResponse `json:"banners"`
	}{out})
}

func (h *Handler) adminCreateBanner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string `json:"title"`
		ImagePath string `json:"image_path"`
		Active    *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImagePath == "" {
		writeFieldErrors(w, map[string]string{"image_path": "image is required"})
		return
	}

	b := &product.Banner{
		Title:     req.Title,
		ImagePath: req.ImagePath,
		Active:    req.Active == nil || *req.Active,
	}
	if err := h.banners.CreateBanner(r.Context(), b); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBannerResponse(b))
}

func (h *Handler) adminDeleteBanner(w http.ResponseWriter, r *http.Request) {
	bannerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid banner id")
		return
	}

	if err := h.banners.DeleteBanner(r.Context(), bannerID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{"banner deleted"})
}

func (h *Handler) adminToggleBanner(w http.ResponseWriter, r *http.Request) {
	bannerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid banner id")
		return
	}

	active, err := h.banners.ToggleBanner(r.Context(), bannerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		Active  bool   `json:"active"`
	}{"banner updated", active})
}

func (h *Handler) adminBulkPrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Percentage decimal.Decimal `json:"percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	limit := decimal.NewFromInt(100)
	if req.Percentage.LessThan(limit.Neg()) || req.Percentage.GreaterThan(limit) {
		writeFieldErrors(w, map[string]string{"percentage": "percentage must be between -100 and 100"})
		return
	}

	updated, err := h.products.BulkAdjustPrices(r.Context(), req.Percentage)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		Updated int64  `json:"updated"`
	}{"prices adjusted", updated})
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		TotalOrders      int64           `json:"total_orders"`
		PendingOrders    int64           `json:"pending_orders"`
		ProcessingOrders int64           `json:"processing_orders"`
		TodayOrders      int64           `json:"today_orders"`
		Revenue          decimal.Decimal `json:"revenue"`
	}{stats.TotalOrders, stats.PendingOrders, stats.ProcessingOrders, stats.TodayOrders, stats.Revenue})
}

// adminPerformance reports how many products each submitter added over the
// requested window, for the back-office leaderboard.
func (h *Handler) adminPerformance(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	counts, err := h.products.CountBySubmitter(r.Context(), since)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Since  time.Time        `json:"since"`
		Counts map[string]int64 `json:"counts"`
	}{since, counts})
}
