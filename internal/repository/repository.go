package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type CartRepository interface {
	GetByOwner(ctx context.Context, ownerID string) (*domain.Cart, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	DeleteByOwner(ctx context.Context, ownerID string) error
}

type ProductRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
}

type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Coupon, error)
	// FindActiveByName matches the exact name with an expiry after now.
	FindActiveByName(ctx context.Context, name string, now time.Time) (*domain.Coupon, error)
	List(ctx context.Context, page domain.Page) ([]domain.Coupon, int64, error)
	Update(ctx context.Context, coupon *domain.Coupon) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// OrderFilter selects orders; an empty OwnerID matches every owner.
type OrderFilter struct {
	OwnerID string
}

type OrderRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter, page domain.Page) ([]domain.Order, int64, error)
	SetPaid(ctx context.Context, id primitive.ObjectID, at time.Time) (*domain.Order, error)
	SetDelivered(ctx context.Context, id primitive.ObjectID, at time.Time) (*domain.Order, error)
}

// CheckoutStore persists a cash order: inventory adjustments, the order
// itself and removal of the source cart, all or nothing.
type CheckoutStore interface {
	Commit(ctx context.Context, order *domain.Order, adjustments []domain.InventoryAdjustment, cartID primitive.ObjectID) error
}
