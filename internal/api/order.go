package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gsmmotor/storefront/internal/domain/order"
)

type orderItemResponse struct {
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type proofResponse struct {
	ID         int64     `json:"id"`
	ImagePath  string    `json:"image_path"`
	Status     string    `json:"status"`
	AdminNotes string    `json:"admin_notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	TotalPrice      decimal.Decimal     `json:"total_price"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	GrandTotal      decimal.Decimal     `json:"grand_total"`
	ShippingMethod  string              `json:"shipping_method"`
	Courier         string              `json:"courier,omitempty"`
	CourierService  string              `json:"courier_service,omitempty"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	ShippingAddress string              `json:"shipping_address"`
	Notes           string              `json:"notes,omitempty"`
	Items           []orderItemResponse `json:"items"`
	Proofs          []proofResponse     `json:"payment_proofs,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		items[i] = orderItemResponse{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
			Subtotal:        it.Subtotal(),
		}
	}
	proofs := make([]proofResponse, len(o.Proofs))
	for i, p := range o.Proofs {
		proofs[i] = proofResponse{
			ID:         p.ID,
			ImagePath:  p.ImagePath,
			Status:     string(p.Status),
			AdminNotes: p.AdminNotes,
			CreatedAt:  p.CreatedAt,
		}
	}
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		TotalPrice:      o.TotalPrice,
		ShippingCost:    o.ShippingCost,
		GrandTotal:      o.GrandTotal(),
		ShippingMethod:  string(o.ShippingMethod),
		Courier:         o.Courier,
		CourierService:  o.CourierService,
		TrackingNumber:  o.TrackingNumber,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		Items:           items,
		Proofs:          proofs,
		CreatedAt:       o.CreatedAt,
	}
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := h.pagination(r)

	orders, total, err := h.orders.ListByUser(r.Context(), requestUser(r).ID, page, perPage)
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

func (h *Handler) getMyOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.GetForUser(r.Context(), orderID, requestUser(r).ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.fulfill.Cancel(r.Context(), requestUser(r), orderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string        `json:"message"`
		Order   orderResponse `json:"order"`
	}{"order cancelled", toOrderResponse(o)})
}

// maxProofSize caps payment proof uploads at 5 MiB.
const maxProofSize = 5 << 20

func (h *Handler) uploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProofSize)
	file, header, err := r.FormFile("proof")
	if err != nil {
		writeFieldErrors(w, map[string]string{"proof": "proof image is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png":
	default:
		writeFieldErrors(w, map[string]string{"proof": "image must be jpg or png"})
		return
	}

	imagePath, err := h.saveProofImage(file, ext)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	proof, err := h.fulfill.UploadProof(r.Context(), requestUser(r), orderID, imagePath)
	if err != nil {
		// The upload was rejected; don't keep the orphaned file around.
		_ = os.Remove(filepath.Join(h.cfg.UploadDir, filepath.Base(imagePath)))
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Message string        `json:"message"`
		Proof   proofResponse `json:"proof"`
	}{
		"payment proof uploaded, awaiting verification",
		proofResponse{
			ID:        proof.ID,
			ImagePath: proof.ImagePath,
			Status:    string(proof.Status),
			CreatedAt: proof.CreatedAt,
		},
	})
}

// saveProofImage stores the uploaded image under a random name inside the
// upload directory and returns the name recorded on the proof row.
func (h *Handler) saveProofImage(src io.Reader, ext string) (string, error) {
	name := uuid.New().String() + ext
	path := filepath.Join(h.cfg.UploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return name, nil
}
