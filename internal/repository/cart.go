package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gsmmotor/storefront/internal/domain/cart"
)

const (
	// The upsert resolves concurrent adds for the same (user, product) pair
	// inside the database, so the resulting quantity is always the sum of both
	// adds, never a lost update. LEAST clamps the result at available stock.
	addCartItemSQL = `INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, LEAST($3, $4))
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = LEAST(cart_items.quantity + $3, $4), updated_at = now()
		RETURNING quantity`

	cartLineSQL = `SELECT
		ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		p.id, p.category_id, p.name, p.slug, p.description, p.price, p.price_3_items, p.price_5_items,
		p.stock, p.weight_grams, p.image_path, p.submitted_by, p.last_price_update, p.created_at, p.updated_at
		FROM cart_items ci JOIN products p ON p.id = ci.product_id`

	getCartLineSQL   = cartLineSQL + ` WHERE ci.user_id = $1 AND ci.id = $2`
	listCartLinesSQL = cartLineSQL + ` WHERE ci.user_id = $1 ORDER BY ci.created_at, ci.id`

	updateCartQuantitySQL = `UPDATE cart_items SET quantity = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2`

	removeCartItemSQL = `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`

	countCartItemsSQL = `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Add inserts the item or increments the existing row, clamping the resulting
// quantity at maxQuantity. It returns the quantity after the merge.
func (r *CartRepository) Add(ctx context.Context, userID, productID int64, quantity, maxQuantity int) (int, error) {
	var result int
	err := r.pool.QueryRow(ctx, addCartItemSQL, userID, productID, quantity, maxQuantity).Scan(&result)
	if err != nil {
		return 0, fmt.Errorf("adding product %d to cart: %w", productID, err)
	}
	return result, nil
}

// GetLine returns one cart line with its product, scoped to the given user.
func (r *CartRepository) GetLine(ctx context.Context, userID, itemID int64) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, getCartLineSQL, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("getting cart item %d: %w", itemID, err)
	}

	line, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("getting cart item %d: %w", itemID, err)
	}
	return &line, nil
}

// ListLines returns the user's cart lines in insertion order.
func (r *CartRepository) ListLines(ctx context.Context, userID int64) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// UpdateQuantity sets the quantity of one cart line, scoped to the user.
func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	tag, err := r.pool.Exec(ctx, updateCartQuantitySQL, userID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// Remove deletes one cart line, scoped to the user.
func (r *CartRepository) Remove(ctx context.Context, userID, itemID int64) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, userID, itemID)
	if err != nil {
		return fmt.Errorf("removing cart item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// Clear deletes all of the user's cart lines.
func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// Count returns the total unit count across the user's cart lines.
func (r *CartRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countCartItemsSQL, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cart items: %w", err)
	}
	return n, nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var (
		l               cart.Line
		lastPriceUpdate *time.Time
	)
	err := row.Scan(
		&l.Item.ID, &l.Item.UserID, &l.Item.ProductID, &l.Item.Quantity,
		&l.Item.CreatedAt, &l.Item.UpdatedAt,
		&l.Product.ID, &l.Product.CategoryID, &l.Product.Name, &l.Product.Slug, &l.Product.Description,
		&l.Product.Price, &l.Product.Price3Items, &l.Product.Price5Items,
		&l.Product.Stock, &l.Product.WeightGrams, &l.Product.ImagePath, &l.Product.SubmittedBy,
		&lastPriceUpdate, &l.Product.CreatedAt, &l.Product.UpdatedAt,
	)
	if lastPriceUpdate != nil {
		l.Product.LastPriceUpdate = *lastPriceUpdate
	}
	return l, err
}
