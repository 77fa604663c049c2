package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	coupons  repository.CouponRepository
	cache    cache.CartCache
	logger   *zap.Logger
	now      func() time.Time
	sfg      singleflight.Group
}

func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	coupons repository.CouponRepository,
	cartCache cache.CartCache,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		coupons:  coupons,
		cache:    cartCache,
		logger:   logger,
		now:      time.Now,
	}
}

// GetForOwner reads through the cache. Concurrent misses for one owner share
// a single repository read. A cart read before a concurrent write or delete is
// returned but never cached.
func (s *CartService) GetForOwner(ctx context.Context, ownerID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(ownerID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, ownerID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("owner_id", ownerID), zap.Error(err))
		}

		// generation is read before the store so a concurrent invalidation
		// makes the cache write below a no-op
		gen, genErr := s.cache.Generation(ctx, ownerID)

		cart, err = s.carts.GetByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		if genErr != nil {
			s.logger.Warn("cache generation failed", zap.String("owner_id", ownerID), zap.Error(genErr))
			return cart, nil
		}
		if err := s.cache.Set(ctx, ownerID, cart, gen); err != nil && !errors.Is(err, cache.ErrStale) {
			s.logger.Warn("cache set failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem snapshots the product's current price into the cart, creating the
// cart on the owner's first add.
func (s *CartService) AddItem(ctx context.Context, ownerID string, productID primitive.ObjectID, color string, quantity int) (*domain.Cart, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetByOwner(ctx, ownerID)
	if errors.Is(err, domain.ErrNoCartForUser) {
		cart = domain.NewCart(ownerID, s.now())
	} else if err != nil {
		return nil, err
	}

	if err := cart.AddItem(product.ID, color, product.Price, quantity); err != nil {
		return nil, fmt.Errorf("add product %s: %w", product.ID.Hex(), err)
	}
	return s.save(ctx, cart)
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, ownerID string, itemID primitive.ObjectID, quantity int) (*domain.Cart, error) {
	cart, err := s.carts.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := cart.UpdateItemQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, ownerID string, itemID primitive.ObjectID) (*domain.Cart, error) {
	cart, err := s.carts.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveItem(itemID); err != nil {
		return nil, err
	}
	return s.save(ctx, cart)
}

// Clear removes the owner's cart. Clearing an absent cart succeeds.
func (s *CartService) Clear(ctx context.Context, ownerID string) error {
	if err := s.carts.DeleteByOwner(ctx, ownerID); err != nil {
		s.logger.Error("clear cart failed", zap.String("owner_id", ownerID), zap.Error(err))
		return err
	}
	s.invalidateCache(ownerID)
	return nil
}

// ApplyCoupon discounts the cart by an active coupon's percentage. Unknown
// and expired coupons are indistinguishable to the caller.
func (s *CartService) ApplyCoupon(ctx context.Context, ownerID, couponName string) (*domain.Cart, error) {
	coupon, err := s.coupons.FindActiveByName(ctx, couponName, s.now())
	if errors.Is(err, domain.ErrCouponNotFound) {
		return nil, domain.ErrInvalidOrExpiredCoupon
	}
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := cart.ApplyDiscount(coupon.Discount); err != nil {
		return nil, fmt.Errorf("coupon %q: %w", coupon.Name, err)
	}
	return s.save(ctx, cart)
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		s.logger.Error("save cart failed", zap.String("owner_id", cart.OwnerID), zap.Error(err))
		return nil, err
	}
	s.invalidateCache(cart.OwnerID)
	return cart, nil
}

func (s *CartService) invalidateCache(ownerID string) {
	invalidateCart(s.cache, s.logger, ownerID)
}

func invalidateCart(c cache.CartCache, logger *zap.Logger, ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Delete(ctx, ownerID); err != nil {
		logger.Warn("cache invalidate failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
}
