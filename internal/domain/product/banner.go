package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrBannerNotFound is returned when a requested banner does not exist.
var ErrBannerNotFound = errors.New("banner not found")

// Banner is a promotional image shown on the storefront home page. Position
// controls display order; inactive banners stay in the back-office list but
// never reach customers.
type Banner struct {
	ID        int64
	Title     string
	ImagePath string
	Active    bool
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BannerRepository defines persistence operations for banners.
type BannerRepository interface {
	// ListBanners returns banners ordered by position. With activeOnly set,
	// inactive banners are filtered out.
	ListBanners(ctx context.Context, activeOnly bool) ([]Banner, error)
	// CreateBanner inserts a banner at the end of the display order and fills
	// in its generated ID, position, and timestamps.
	CreateBanner(ctx context.Context, b *Banner) error
	DeleteBanner(ctx context.Context, id int64) error
	// ToggleBanner flips the active flag and returns the new value.
	ToggleBanner(ctx context.Context, id int64) (bool, error)
}
