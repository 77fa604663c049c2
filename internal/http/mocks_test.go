package http

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/service"
)

type cartServiceMock struct {
	m         sync.RWMutex
	cart      *domain.Cart
	err       error
	lastOwner string
	lastQty   int
	lastColor string
	lastName  string
}

func (c *cartServiceMock) record(owner string) (*domain.Cart, error) {
	c.lastOwner = owner
	if c.err != nil {
		return nil, c.err
	}
	return c.cart, nil
}

func (c *cartServiceMock) GetForOwner(_ context.Context, ownerID string) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.record(ownerID)
}

func (c *cartServiceMock) AddItem(_ context.Context, ownerID string, _ primitive.ObjectID, color string, quantity int) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.lastColor = color
	c.lastQty = quantity
	return c.record(ownerID)
}

func (c *cartServiceMock) UpdateItemQuantity(_ context.Context, ownerID string, _ primitive.ObjectID, quantity int) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.lastQty = quantity
	return c.record(ownerID)
}

func (c *cartServiceMock) RemoveItem(_ context.Context, ownerID string, _ primitive.ObjectID) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.record(ownerID)
}

func (c *cartServiceMock) Clear(_ context.Context, ownerID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	_, err := c.record(ownerID)
	return err
}

func (c *cartServiceMock) ApplyCoupon(_ context.Context, ownerID, couponName string) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.lastName = couponName
	return c.record(ownerID)
}

type orderServiceMock struct {
	m            sync.RWMutex
	order        *domain.Order
	orders       []domain.Order
	session      *payment.Session
	err          error
	lastIdentity domain.Identity
	lastPage     domain.Page
	lastBase     string
}

func (o *orderServiceMock) CreateOrderFromCart(_ context.Context, ownerID string, _ primitive.ObjectID) (*domain.Order, error) {
	o.m.Lock()
	defer o.m.Unlock()
	o.lastIdentity = domain.Identity{UserID: ownerID}
	return o.order, o.err
}

func (o *orderServiceMock) CreateCheckoutSession(_ context.Context, identity domain.Identity, _ primitive.ObjectID, returnBase string) (*payment.Session, error) {
	o.m.Lock()
	defer o.m.Unlock()
	o.lastIdentity = identity
	o.lastBase = returnBase
	if o.err != nil {
		return nil, o.err
	}
	return o.session, nil
}

func (o *orderServiceMock) MarkPaid(context.Context, primitive.ObjectID) (*domain.Order, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.order, nil
}

func (o *orderServiceMock) MarkDelivered(context.Context, primitive.ObjectID) (*domain.Order, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.order, nil
}

func (o *orderServiceMock) List(_ context.Context, identity domain.Identity, page domain.Page) ([]domain.Order, int64, error) {
	o.m.Lock()
	defer o.m.Unlock()
	o.lastIdentity = identity
	o.lastPage = page
	return o.orders, int64(len(o.orders)), o.err
}

func (o *orderServiceMock) Get(_ context.Context, identity domain.Identity, _ primitive.ObjectID) (*domain.Order, error) {
	o.m.Lock()
	defer o.m.Unlock()
	o.lastIdentity = identity
	if o.err != nil {
		return nil, o.err
	}
	return o.order, nil
}

type couponServiceMock struct {
	m      sync.RWMutex
	coupon *domain.Coupon
	err    error
	input  service.CouponInput
}

func (c *couponServiceMock) Create(_ context.Context, in service.CouponInput) (*domain.Coupon, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.input = in
	if c.err != nil {
		return nil, c.err
	}
	return c.coupon, nil
}

func (c *couponServiceMock) List(context.Context, domain.Page) ([]domain.Coupon, int64, error) {
	if c.err != nil {
		return nil, 0, c.err
	}
	return []domain.Coupon{*c.coupon}, 1, nil
}

func (c *couponServiceMock) Get(context.Context, primitive.ObjectID) (*domain.Coupon, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.coupon, nil
}

func (c *couponServiceMock) Update(context.Context, primitive.ObjectID, domain.CouponPatch) (*domain.Coupon, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.coupon, nil
}

func (c *couponServiceMock) Delete(context.Context, primitive.ObjectID) error {
	return c.err
}
