package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/gsmmotor/storefront/internal/domain/product"
)

// Sentinel errors for cart operations.
var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("cart item not found")
)

// Item is one (user, product) entry in a cart. The pair is unique; repeated
// adds increment the quantity instead of creating a second row.
type Item struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line pairs a cart item with its product, as loaded by the repository join.
type Line struct {
	Item    Item
	Product product.Product
}

// Subtotal returns the line total at the tier price for the line's quantity.
func (l *Line) Subtotal() decimal.Decimal {
	unit := l.Product.EffectivePrice(l.Item.Quantity)
	return unit.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

// WeightGrams returns the total shipping weight of the line.
func (l *Line) WeightGrams() int {
	return l.Product.WeightGrams * l.Item.Quantity
}

// Summary aggregates a user's cart for display and shipping rate lookups.
type Summary struct {
	Lines            []Line
	Subtotal         decimal.Decimal
	TotalWeightGrams int
	TotalItems       int
}

// Repository defines persistence operations for cart items. Add must be
// atomic with respect to concurrent adds for the same (user, product) pair;
// mutations other than Add are scoped by user ID so one user can never touch
// another user's rows.
type Repository interface {
	// Add inserts the item or increments an existing row's quantity,
	// clamping the result at maxQuantity. It returns the resulting quantity.
	Add(ctx context.Context, userID, productID int64, quantity, maxQuantity int) (int, error)
	GetLine(ctx context.Context, userID, itemID int64) (*Line, error)
	ListLines(ctx context.Context, userID int64) ([]Line, error)
	UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	Remove(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
	Count(ctx context.Context, userID int64) (int, error)
}
