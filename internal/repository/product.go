package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gsmmotor/storefront/internal/domain/product"
)

const (
	productColumns = `id, category_id, name, slug, description, price, price_3_items, price_5_items,
		stock, weight_grams, image_path, submitted_by, last_price_update, created_at, updated_at`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductBySlugSQL = `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	createProductSQL = `INSERT INTO products
		(category_id, name, slug, description, price, price_3_items, price_5_items, stock, weight_grams, image_path, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	updateProductSQL = `UPDATE products SET
		category_id = $2, name = $3, slug = $4, description = $5, price = $6,
		price_3_items = $7, price_5_items = $8, stock = $9, weight_grams = $10,
		image_path = $11, updated_at = now()
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	// Bulk adjustment touches base prices only. Tier prices keep their
	// previously negotiated values.
	bulkAdjustPricesSQL = `UPDATE products SET
		price = CEIL(price * (1 + $1::numeric / 100) / 100) * 100,
		last_price_update = now(),
		updated_at = now()`

	countBySubmitterSQL = `SELECT submitted_by, COUNT(*) FROM products
		WHERE submitted_by <> '' AND created_at >= $1
		GROUP BY submitted_by`

	listCategoriesSQL = `SELECT id, name, slug, created_at FROM categories ORDER BY name`

	createCategorySQL = `INSERT INTO categories (name, slug) VALUES ($1, $2)
		RETURNING id, created_at`

	updateCategorySQL = `UPDATE categories SET name = $2, slug = $3 WHERE id = $1`

	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of the catalog matching the filter plus the total
// number of matching rows.
func (r *ProductRepository) List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error) {
	where := ` WHERE TRUE`
	args := []any{}
	if f.CategoryID > 0 {
		args = append(args, f.CategoryID)
		where += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY created_at DESC, id DESC`
	if f.PerPage > 0 {
		args = append(args, f.PerPage, f.Offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return r.getOne(ctx, getProductByIDSQL, id)
}

// GetBySlug returns a single product by its URL slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.getOne(ctx, getProductBySlugSQL, slug)
}

func (r *ProductRepository) getOne(ctx context.Context, query string, arg any) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting product %v: %w", arg, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %v: %w", arg, err)
	}
	return &p, nil
}

// Create inserts a new product and fills in its generated ID and timestamps.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.CategoryID, p.Name, p.Slug, p.Description,
		p.Price, p.Price3Items, p.Price5Items,
		p.Stock, p.WeightGrams, p.ImagePath, p.SubmittedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

// Update persists the mutable product fields.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.CategoryID, p.Name, p.Slug, p.Description,
		p.Price, p.Price3Items, p.Price5Items,
		p.Stock, p.WeightGrams, p.ImagePath,
	)
	if err != nil {
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product from the catalog.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// BulkAdjustPrices shifts every base price by the given percentage and rounds
// up to the nearest 100. It returns the number of rows updated.
func (r *ProductRepository) BulkAdjustPrices(ctx context.Context, percentage decimal.Decimal) (int64, error) {
	tag, err := r.pool.Exec(ctx, bulkAdjustPricesSQL, percentage)
	if err != nil {
		return 0, fmt.Errorf("adjusting prices by %s%%: %w", percentage, err)
	}
	return tag.RowsAffected(), nil
}

// CountBySubmitter returns per-submitter product counts since the given time.
func (r *ProductRepository) CountBySubmitter(ctx context.Context, since time.Time) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, countBySubmitterSQL, since)
	if err != nil {
		return nil, fmt.Errorf("counting products by submitter: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			submitter string
			n         int64
		)
		if err := rows.Scan(&submitter, &n); err != nil {
			return nil, fmt.Errorf("counting products by submitter: %w", err)
		}
		counts[submitter] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("counting products by submitter: %w", err)
	}
	return counts, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p               product.Product
		lastPriceUpdate *time.Time
	)
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description,
		&p.Price, &p.Price3Items, &p.Price5Items,
		&p.Stock, &p.WeightGrams, &p.ImagePath, &p.SubmittedBy,
		&lastPriceUpdate, &p.CreatedAt, &p.UpdatedAt,
	)
	if lastPriceUpdate != nil {
		p.LastPriceUpdate = *lastPriceUpdate
	}
	return p, err
}

var _ product.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository implements product.CategoryRepository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// ListCategories returns all categories ordered by name.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]product.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Category, error) {
		var c product.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
		return c, err
	})
}

// foreignKeyViolation is the PostgreSQL error code for FK constraint breaks.
const foreignKeyViolation = "23503"

// CreateCategory inserts a new category and fills in its generated fields.
func (r *CategoryRepository) CreateCategory(ctx context.Context, c *product.Category) error {
	err := r.pool.QueryRow(ctx, createCategorySQL, c.Name, c.Slug).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return product.ErrCategoryExists
		}
		return fmt.Errorf("creating category %q: %w", c.Name, err)
	}
	return nil
}

// UpdateCategory renames a category.
func (r *CategoryRepository) UpdateCategory(ctx context.Context, c *product.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.Slug)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return product.ErrCategoryExists
		}
		return fmt.Errorf("updating category %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrCategoryNotFound
	}
	return nil
}

// DeleteCategory removes a category. The FK from products enforces the
// in-use guard, so there is no read-then-delete race.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return product.ErrCategoryInUse
		}
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrCategoryNotFound
	}
	return nil
}
