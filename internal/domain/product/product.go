package product

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-faster/errors"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InsufficientStockError indicates a requested quantity exceeds the
// available stock for a product.
type InsufficientStockError struct {
	ProductID int64
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: %d available", e.ProductID, e.Available)
}

// Product represents a catalog item available for purchase. Tier prices are
// zero when the product has no quantity break at that threshold.
type Product struct {
	ID              int64
	CategoryID      int64
	Name            string
	Slug            string
	Description     string
	Price           decimal.Decimal
	Price3Items     decimal.Decimal
	Price5Items     decimal.Decimal
	Stock           int
	WeightGrams     int
	ImagePath       string
	SubmittedBy     string
	LastPriceUpdate time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EffectivePrice returns the unit price that applies at the given quantity.
// Thresholds are inclusive: 5+ units take Price5Items, 3+ units take
// Price3Items, and an unset (zero) tier falls through to the next one.
//
// Both the live cart view and order creation go through this function so the
// cart preview and the recorded price_at_purchase can never diverge.
func (p *Product) EffectivePrice(quantity int) decimal.Decimal {
	if quantity >= 5 && p.Price5Items.IsPositive() {
		return p.Price5Items
	}
	if quantity >= 3 && p.Price3Items.IsPositive() {
		return p.Price3Items
	}
	return p.Price
}

// ValidateTierPrices checks the tier ordering invariant:
// price_5_items <= price_3_items <= price, for whichever tiers are set.
func (p *Product) ValidateTierPrices() error {
	if p.Price3Items.IsPositive() && p.Price3Items.GreaterThan(p.Price) {
		return errors.New("price_3_items must not exceed base price")
	}
	lower := p.Price
	if p.Price3Items.IsPositive() {
		lower = p.Price3Items
	}
	if p.Price5Items.IsPositive() && p.Price5Items.GreaterThan(lower) {
		return errors.New("price_5_items must not exceed price_3_items")
	}
	return nil
}

const slugSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// MakeSlug derives a URL slug from the product name plus a short random
// suffix so that products with identical names stay unique.
func MakeSlug(name string) string {
	suffix := make([]byte, 6)
	limit := big.NewInt(int64(len(slugSuffixAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; fall back to a fixed character rather than panic.
			suffix[i] = 'x'
			continue
		}
		suffix[i] = slugSuffixAlphabet[n.Int64()]
	}
	return slug.Make(name) + "-" + string(suffix)
}

// MakeCategorySlug derives a URL slug from a category name. Categories are
// few and admin-curated, so no uniqueness suffix is added; a collision
// surfaces as ErrCategoryExists at write time instead.
func MakeCategorySlug(name string) string {
	return slug.Make(name)
}

var hundred = decimal.NewFromInt(100)

// AdjustPrice applies a percentage delta and rounds the result up to the
// nearest 100 currency units. Rounding is always upward, even for negative
// deltas or a zero delta on a price that is not already a multiple of 100.
func AdjustPrice(price decimal.Decimal, percentage decimal.Decimal) decimal.Decimal {
	adjusted := price.Mul(hundred.Add(percentage)).Div(hundred)
	return adjusted.Div(hundred).Ceil().Mul(hundred)
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Product, int, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	// BulkAdjustPrices applies AdjustPrice to every base price in one
	// statement and returns the number of rows updated. Tier prices are
	// intentionally left unmodified.
	BulkAdjustPrices(ctx context.Context, percentage decimal.Decimal) (int64, error)
	// CountBySubmitter groups product counts by the submitted_by attribution
	// field for products created since the given time.
	CountBySubmitter(ctx context.Context, since time.Time) (map[string]int64, error)
}

// ListFilter narrows and paginates catalog listings.
type ListFilter struct {
	CategoryID int64
	Search     string
	Page       int
	PerPage    int
}

// Offset returns the row offset for the filter's page, clamping page to 1.
func (f ListFilter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.PerPage
}

// Category errors. ErrCategoryInUse guards deletion: a category that still
// has products cannot be removed.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category still has products")
)

// Category is a simple grouping entity for catalog display.
type Category struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	// CreateCategory inserts a category and fills in its generated ID and
	// creation time. A duplicate slug reports ErrCategoryExists.
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	// DeleteCategory removes a category. Categories referenced by products
	// report ErrCategoryInUse.
	DeleteCategory(ctx context.Context, id int64) error
}
