package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CartCache holds carts keyed by owner id. Every Delete bumps the owner's
// generation; Set only stores a cart read under the current generation.
type CartCache interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	Generation(ctx context.Context, ownerID string) (int64, error)
	Set(ctx context.Context, ownerID string, cart *domain.Cart, generation int64) error
	Delete(ctx context.Context, ownerID string) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStale is returned by Set when the cart was invalidated after it was read.
	ErrStale = errors.New("cart invalidated since read")
)
