// Package cache holds Redis-backed coordination primitives.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/gsmmotor/storefront/internal/domain/order"
)

const (
	checkoutKeyPrefix = "checkout:"
	// checkoutLockTTL caps how long a crashed checkout can block a user.
	checkoutLockTTL = 30 * time.Second
)

// CheckoutGuard serializes checkout per user with a Redis SET NX lock. The
// lock is advisory: the database transaction remains the authoritative
// barrier, the guard just rejects the obviously-duplicate submission early.
type CheckoutGuard struct {
	client *redis.Client
}

// NewCheckoutGuard creates a CheckoutGuard on the given client.
func NewCheckoutGuard(client *redis.Client) *CheckoutGuard {
	return &CheckoutGuard{client: client}
}

var _ order.Guard = (*CheckoutGuard)(nil)

// Acquire takes the per-user checkout lock. When the user already holds it,
// Acquire returns order.ErrCheckoutInProgress. The release function deletes
// the lock; the TTL cleans up after a crashed holder.
func (g *CheckoutGuard) Acquire(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf("%s%d", checkoutKeyPrefix, userID)

	ok, err := g.client.SetNX(ctx, key, 1, checkoutLockTTL).Result()
	if err != nil {
		return nil, errors.Wrap(err, "acquire checkout lock")
	}
	if !ok {
		return nil, order.ErrCheckoutInProgress
	}

	release := func() {
		// Release must work even when the request context is already done.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		g.client.Del(ctx, key)
	}
	return release, nil
}
