package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/gsmmotor/storefront/internal/domain/product"
)

// Service implements cart business logic on top of the cart and product
// repositories.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// Add puts quantity units of a product into the user's cart. Adding a product
// already in the cart increments the existing row, clamped at the product's
// current stock.
func (s *Service) Add(ctx context.Context, userID, productID int64, quantity int) (int, error) {
	if quantity < 1 {
		return 0, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return 0, product.ErrNotFound
		}
		return 0, errors.Wrapf(err, "get product %d", productID)
	}

	if p.Stock < quantity {
		return 0, &product.InsufficientStockError{ProductID: productID, Available: p.Stock}
	}

	count, err := s.carts.Add(ctx, userID, productID, quantity, p.Stock)
	if err != nil {
		return 0, errors.Wrap(err, "add cart item")
	}
	return count, nil
}

// Update replaces a cart item's quantity. The item must belong to the user.
func (s *Service) Update(ctx context.Context, userID, itemID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	line, err := s.carts.GetLine(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		return errors.Wrapf(err, "get cart item %d", itemID)
	}

	if line.Product.Stock < quantity {
		return &product.InsufficientStockError{
			ProductID: line.Product.ID,
			Available: line.Product.Stock,
		}
	}

	if err := s.carts.UpdateQuantity(ctx, userID, itemID, quantity); err != nil {
		return errors.Wrapf(err, "update cart item %d", itemID)
	}
	return nil
}

// Remove deletes a cart item. An item that does not exist and an item that
// belongs to another user both report ErrItemNotFound; the two cases are
// indistinguishable to the caller.
func (s *Service) Remove(ctx context.Context, userID, itemID int64) error {
	return s.carts.Remove(ctx, userID, itemID)
}

// Clear removes every item in the user's cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.carts.Clear(ctx, userID)
}

// Count returns the number of distinct items in the user's cart.
func (s *Service) Count(ctx context.Context, userID int64) (int, error) {
	return s.carts.Count(ctx, userID)
}

// Summarize loads the user's cart and computes the subtotal at tier prices
// plus the total weight used for shipping rate lookups.
func (s *Service) Summarize(ctx context.Context, userID int64) (*Summary, error) {
	lines, err := s.carts.ListLines(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	return Summarize(lines), nil
}

// Summarize computes cart totals for an already-loaded set of lines.
func Summarize(lines []Line) *Summary {
	sum := &Summary{Lines: lines, Subtotal: decimal.Zero}
	for i := range lines {
		sum.Subtotal = sum.Subtotal.Add(lines[i].Subtotal())
		sum.TotalWeightGrams += lines[i].WeightGrams()
		sum.TotalItems += lines[i].Item.Quantity
	}
	return sum
}
