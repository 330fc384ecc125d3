package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gsmmotor/storefront/internal/domain/product"
)

type productResponse struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Price3Items decimal.Decimal `json:"price_3_items"`
	Price5Items decimal.Decimal `json:"price_5_items"`
	Stock       int             `json:"stock"`
	WeightGrams int             `json:"weight_grams"`
	ImagePath   string          `json:"image_path"`
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		Price3Items: p.Price3Items,
		Price5Items: p.Price5Items,
		Stock:       p.Stock,
		WeightGrams: p.WeightGrams,
		ImagePath:   p.ImagePath,
	}
}

type pageMeta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

func (h *Handler) pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = h.cfg.PerPage
	}
	return page, perPage
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, perPage := h.pagination(r)
	categoryID, _ := strconv.ParseInt(r.URL.Query().Get("category_id"), 10, 64)

	products, total, err := h.products.List(r.Context(), product.ListFilter{
		CategoryID: categoryID,
		Search:     r.URL.Query().Get("search"),
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = toProductResponse(&products[i])
	}
	writeJSON(w, http.StatusOK, struct {
		Products []productResponse `json:"products"`
		Meta     pageMeta          `json:"meta"`
	}{out, pageMeta{Page: page, PerPage: perPage, Total: total}})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type bannerResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	ImagePath string `json:"image_path"`
	Active    bool   `json:"active"`
	Position  int    `json:"position"`
}

func toBannerResponse(b *product.Banner) bannerResponse {
	return bannerResponse{
		ID:        b.ID,
		Title:     b.Title,
		ImagePath: b.ImagePath,
		Active:    b.Active,
		Position:  b.Position,
	}
}

// listBanners serves the storefront carousel: active banners only, in
// display order.
func (h *Handler) listBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.banners.ListBanners(r.Context(), true)
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

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = categoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug}
	}
	writeJSON(w, http.StatusOK, struct {
		Categories []categoryResponse `json:"categories"`
	}{out})
}
