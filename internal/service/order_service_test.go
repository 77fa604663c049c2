package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

type orderFixture struct {
	*cartFixture
	orders    *mockOrderRepository
	checkout  *mockCheckoutStore
	payments  *mockPayments
	publisher *mockPublisher
	svc       *OrderService
}

func newOrderFixture(t *testing.T, policy OrderPolicy) *orderFixture {
	t.Helper()
	cf := newCartFixture(t)
	f := &orderFixture{
		cartFixture: cf,
		orders:      newMockOrderRepository(),
		payments:    &mockPayments{},
		publisher:   &mockPublisher{},
	}
	f.checkout = &mockCheckoutStore{products: cf.products, orders: f.orders, carts: cf.carts}
	f.svc = NewOrderService(cf.carts, f.orders, f.checkout, cf.cache, f.payments, f.publisher, policy, zap.NewNop())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *orderFixture) stock(t *testing.T, id primitive.ObjectID) *domain.Product {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func TestCreateOrderFromCart_AddsToExistingSoldCount(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{})
	ctx := context.Background()
	lamp := &domain.Product{Title: "Lamp", Price: 50, Quantity: 10, Sold: 2}
	require.NoError(t, f.products.Create(ctx, lamp))

	cart, err := f.cartFixture.svc.AddItem(ctx, "u1", lamp.ID, "", 3)
	require.NoError(t, err)

	order, err := f.svc.CreateOrderFromCart(ctx, "u1", cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, order.TotalOrderPrice)

	got := f.stock(t, lamp.ID)
	assert.Equal(t, 7, got.Quantity)
	assert.Equal(t, 5, got.Sold)
}

func TestCreateOrderFromCart(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{})
	ctx := context.Background()
	_, err := f.cartFixture.svc.AddItem(ctx, "u1", f.shirt.ID, "red", 3)
	require.NoError(t, err)
	cart, err := f.cartFixture.svc.ApplyCoupon(ctx, "u1", "SAVE20")
	require.NoError(t, err)

	order, err := f.svc.CreateOrderFromCart(ctx, "u1", cart.ID)
	require.NoError(t, err)

	assert.Equal(t, 120.0, order.TotalOrderPrice)
	assert.Equal(t, domain.PaymentMethodCash, order.PaymentMethod)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.False(t, order.IsPaid)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)

	shirt := f.stock(t, f.shirt.ID)
	assert.Equal(t, -3, shirt.Quantity)
	assert.Equal(t, 3, shirt.Sold)

	_, err = f.cartFixture.svc.GetForOwner(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNoCartForUser)

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, stored.CartID)

	assert.Equal(t, []string{events.OrderCreated}, f.publisher.names())
}

func TestCreateOrderFromCart_AddsTaxAndShipping(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{TaxPrice: 10, ShippingPrice: 5.5})
	ctx := context.Background()
	cart, err := f.cartFixture.svc.AddItem(ctx, "u1", f.mug.ID, "", 2)
	require.NoError(t, err)

	order, err := f.svc.CreateOrderFromCart(ctx, "u1", cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.5, order.TotalOrderPrice)
	assert.Equal(t, 10.0, order.TaxPrice)
	assert.Equal(t, 5.5, order.ShippingPrice)
}

func TestCreateOrderFromCart_CartNotFound(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{})
	ctx := context.Background()

	_, err := f.svc.CreateOrderFromCart(ctx, "u1", primitive.NewObjectID())
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
	assert.Zero(t, f.checkout.commits)
	assert.Empty(t, f.publisher.names())
}

func TestCreateOrderFromCart_SomeoneElsesCart(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{})
	ctx := context.Background()
	cart, err := f.cartFixture.svc.AddItem(ctx, "owner", f.shirt.ID, "", 1)
	require.NoError(t, err)

	_, err = f.svc.CreateOrderFromCart(ctx, "intruder", cart.ID)
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	assert.Equal(t, 0, f.stock(t, f.shirt.ID).Sold)
	_, err = f.carts.GetByOwner(ctx, "owner")
	assert.NoError(t, err)
}

func TestCreateOrderFromCart_InventoryFailure(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{})
	ctx := context.Background()
	cart, err := f.cartFixture.svc.AddItem(ctx, "u1", f.shirt.ID, "", 1)
	require.NoError(t, err)
	f.checkout.err = domain.ErrInventoryUpdateFailed

	_, err = f.svc.CreateOrderFromCart(ctx, "u1", cart.ID)
	assert.ErrorIs(t, err, domain.ErrInventoryUpdateFailed)
	assert.Equal(t, domain.ClassServer, domain.Classify(err))

	_, err = f.carts.GetByOwner(ctx, "u1")
	assert.NoError(t, err)
	orders, _, err := f.orders.List(ctx, repository.OrderFilter{}, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderFromCart_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{})
	ctx := context.Background()
	cart, err := f.cartFixture.svc.AddItem(ctx, "u1", f.shirt.ID, "", 1)
	require.NoError(t, err)
	f.publisher.err = errors.New("kafka down")

	order, err := f.svc.CreateOrderFromCart(ctx, "u1", cart.ID)
	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{ShippingPrice: 10, Currency: "egp"})
	ctx := context.Background()
	cart, err := f.cartFixture.svc.AddItem(ctx, "u1", f.shirt.ID, "", 2)
	require.NoError(t, err)

	session, err := f.svc.CreateCheckoutSession(ctx, domain.Identity{UserID: "u1", Role: domain.RoleUser}, cart.ID, "https://shop.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_test", session.URL)

	require.Len(t, f.payments.requests, 1)
	req := f.payments.requests[0]
	assert.Equal(t, 110.0, req.Amount)
	assert.Equal(t, "egp", req.Currency)
	assert.Equal(t, cart.ID.Hex(), req.CartID)
	assert.Equal(t, "https://shop.example.com/orders", req.SuccessURL)
	assert.Equal(t, "https://shop.example.com/cart", req.CancelURL)

	_, err = f.carts.GetByID(ctx, cart.ID)
	assert.NoError(t, err)
	assert.Zero(t, f.checkout.commits)
	assert.Equal(t, 0, f.stock(t, f.shirt.ID).Sold)
}

func TestCreateCheckoutSession_Errors(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{})
	ctx := context.Background()
	id := domain.Identity{UserID: "u1", Role: domain.RoleUser}

	_, err := f.svc.CreateCheckoutSession(ctx, id, primitive.NewObjectID(), "http://x")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	cart, err := f.cartFixture.svc.AddItem(ctx, "u1", f.shirt.ID, "", 1)
	require.NoError(t, err)
	f.payments.err = domain.ErrPaymentSession
	_, err = f.svc.CreateCheckoutSession(ctx, id, cart.ID, "http://x")
	assert.ErrorIs(t, err, domain.ErrPaymentSession)
}

func TestMarkPaidAndDelivered(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{})
	ctx := context.Background()
	cart, err := f.cartFixture.svc.AddItem(ctx, "u1", f.shirt.ID, "", 1)
	require.NoError(t, err)
	order, err := f.svc.CreateOrderFromCart(ctx, "u1", cart.ID)
	require.NoError(t, err)

	paid, err := f.svc.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, fixedNow, *paid.PaidAt)

	delivered, err := f.svc.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.Equal(t, domain.OrderStatusDelivered, delivered.Status)

	assert.Equal(t, []string{events.OrderCreated, events.OrderPaid, events.OrderDelivered}, f.publisher.names())

	_, err = f.svc.MarkPaid(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, err = f.svc.MarkDelivered(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListAndGet_RespectOwnership(t *testing.T) {
	f := newOrderFixture(t, OrderPolicy{})
	ctx := context.Background()
	alice := domain.Identity{UserID: "alice", Role: domain.RoleUser}
	bob := domain.Identity{UserID: "bob", Role: domain.RoleUser}
	admin := domain.Identity{UserID: "root", Role: domain.RoleAdmin}

	aliceOrder := &domain.Order{ID: primitive.NewObjectID(), OwnerID: "alice", CreatedAt: fixedNow}
	bobOrder := &domain.Order{ID: primitive.NewObjectID(), OwnerID: "bob", CreatedAt: fixedNow.Add(time.Minute)}
	f.orders.insert(aliceOrder)
	f.orders.insert(bobOrder)

	list, total, err := f.svc.List(ctx, alice, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, aliceOrder.ID, list[0].ID)

	list, total, err = f.svc.List(ctx, admin, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, bobOrder.ID, list[0].ID)

	_, err = f.svc.Get(ctx, bob, aliceOrder.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	got, err := f.svc.Get(ctx, alice, aliceOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)

	_, err = f.svc.Get(ctx, admin, aliceOrder.ID)
	assert.NoError(t, err)
}
