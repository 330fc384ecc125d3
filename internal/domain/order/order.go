package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks the bank-transfer verification sub-state of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentUploaded PaymentStatus = "uploaded"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// ShippingMethod selects how an order is delivered.
type ShippingMethod string

const (
	ShippingPickup  ShippingMethod = "pickup"
	ShippingCourier ShippingMethod = "courier"
	ShippingOjol    ShippingMethod = "ojol"
)

// Valid reports whether m is a known shipping method.
func (m ShippingMethod) Valid() bool {
	switch m {
	case ShippingPickup, ShippingCourier, ShippingOjol:
		return true
	}
	return false
}

// ProofStatus is the review state of a single uploaded payment proof.
type ProofStatus string

const (
	ProofPending  ProofStatus = "pending"
	ProofVerified ProofStatus = "verified"
	ProofRejected ProofStatus = "rejected"
)

// Sentinel errors for order lookups and mutations.
var (
	ErrNotFound             = errors.New("order not found")
	ErrProofNotFound        = errors.New("payment proof not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrPaymentVerified      = errors.New("payment is already verified")
	ErrProofAlreadyDecided  = errors.New("payment proof has already been decided")
)

// Order is a placed customer order. The item list is immutable once created;
// only status, payment status, and tracking number change afterwards.
type Order struct {
	ID              int64
	OrderNumber     string
	UserID          int64
	TotalPrice      decimal.Decimal
	ShippingCost    decimal.Decimal
	Courier         string
	CourierService  string
	TrackingNumber  string
	ShippingMethod  ShippingMethod
	ShippingAddress string
	Status          Status
	PaymentStatus   PaymentStatus
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items  []Item
	Proofs []PaymentProof
}

// GrandTotal returns the item subtotal plus shipping cost.
func (o *Order) GrandTotal() decimal.Decimal {
	return o.TotalPrice.Add(o.ShippingCost)
}

// Item is one line of an order. PriceAtPurchase snapshots the effective tier
// price at order time and is never recomputed, even when the product's live
// price changes later.
type Item struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	ProductName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
	CreatedAt       time.Time
}

// Subtotal returns quantity times the recorded purchase price.
func (i *Item) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PaymentProof is one uploaded transfer receipt. Rejected proofs are kept for
// audit; the customer uploads a new row instead of replacing the old one.
type PaymentProof struct {
	ID         int64
	OrderID    int64
	ImagePath  string
	Status     ProofStatus
	AdminNotes string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const (
	numberPrefix   = "GSM"
	numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	numberSuffix   = 5
)

// GenerateNumber builds a human-readable order number of the form
// GSM-YYYYMMDD-XXXXX with a random uppercase alphanumeric suffix. Uniqueness
// is enforced by the database; callers retry on ErrDuplicateOrderNumber.
func GenerateNumber(now time.Time) string {
	suffix := make([]byte, numberSuffix)
	limit := big.NewInt(int64(len(numberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			suffix[i] = 'X'
			continue
		}
		suffix[i] = numberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s-%s", numberPrefix, now.Format("20060102"), suffix)
}

// ListFilter narrows and paginates the back-office order listing.
type ListFilter struct {
	Status        Status
	PaymentStatus PaymentStatus
	Search        string
	Page          int
	PerPage       int
}

// Offset returns the row offset for the filter's page, clamping page to 1.
func (f ListFilter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.PerPage
}

// DashboardStats aggregates counters for the admin dashboard.
type DashboardStats struct {
	TotalOrders      int64
	PendingOrders    int64
	ProcessingOrders int64
	TodayOrders      int64
	Revenue          decimal.Decimal
}

// Repository defines persistence operations for orders and payment proofs.
//
// CreateWithItems must be atomic: the order row, its items, the stock
// decrements, and the cart deletion all commit together or not at all.
type Repository interface {
	CreateWithItems(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	// GetForUser is GetByID scoped to the owning user; an order belonging to
	// someone else is reported as ErrNotFound, never as a permission error.
	GetForUser(ctx context.Context, id, userID int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64, page, perPage int) ([]Order, int, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	// UpdateStatus persists status, payment status, and tracking number.
	UpdateStatus(ctx context.Context, o *Order) error
	AddProof(ctx context.Context, p *PaymentProof, payment PaymentStatus) error
	GetProof(ctx context.Context, orderID, proofID int64) (*PaymentProof, error)
	// DecideProof persists the proof decision together with the order's new
	// payment status.
	DecideProof(ctx context.Context, p *PaymentProof, payment PaymentStatus) error
	Stats(ctx context.Context) (*DashboardStats, error)
}
