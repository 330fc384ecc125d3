package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gsmmotor/storefront/internal/domain/product"
)

const (
	bannerColumns = `id, title, image_path, active, position, created_at, updated_at`

	listBannersSQL = `SELECT ` + bannerColumns + ` FROM banners
		ORDER BY position, created_at DESC`

	listActiveBannersSQL = `SELECT ` + bannerColumns + ` FROM banners
		WHERE active = TRUE
		ORDER BY position, created_at DESC`

	// New banners land at the end of the display order.
	createBannerSQL = `INSERT INTO banners (title, image_path, active, position)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position), 0) + 1 FROM banners))
		RETURNING id, position, created_at, updated_at`

	deleteBannerSQL = `DELETE FROM banners WHERE id = $1`

	toggleBannerSQL = `UPDATE banners SET active = NOT active, updated_at = now()
		WHERE id = $1
		RETURNING active`
)

var _ product.BannerRepository = (*BannerRepository)(nil)

// BannerRepository implements product.BannerRepository backed by PostgreSQL.
type BannerRepository struct {
	pool *pgxpool.Pool
}

// NewBannerRepository returns a BannerRepository that uses the given pool.
func NewBannerRepository(pool *pgxpool.Pool) *BannerRepository {
	return &BannerRepository{pool: pool}
}

// ListBanners returns banners in display order, optionally active ones only.
func (r *BannerRepository) ListBanners(ctx context.Context, activeOnly bool) ([]product.Banner, error) {
	query := listBannersSQL
	if activeOnly {
		query = listActiveBannersSQL
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing banners: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Banner, error) {
		var b product.Banner
		err := row.Scan(&b.ID, &b.Title, &b.ImagePath, &b.Active, &b.Position, &b.CreatedAt, &b.UpdatedAt)
		return b, err
	})
}

// CreateBanner inserts a banner at the end of the display order.
func (r *BannerRepository) CreateBanner(ctx context.Context, b *product.Banner) error {
	err := r.pool.QueryRow(ctx, createBannerSQL, b.Title, b.ImagePath, b.Active).
		Scan(&b.ID, &b.Position, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating banner: %w", err)
	}
	return nil
}

// DeleteBanner removes a banner.
func (r *BannerRepository) DeleteBanner(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteBannerSQL, id)
	if err != nil {
		return fmt.Errorf("deleting banner %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrBannerNotFound
	}
	return nil
}

// ToggleBanner flips the active flag and returns the new value.
func (r *BannerRepository) ToggleBanner(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, toggleBannerSQL, id).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, product.ErrBannerNotFound
		}
		return false, fmt.Errorf("toggling banner %d: %w", id, err)
	}
	return active, nil
}
