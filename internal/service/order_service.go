package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

// OrderPolicy holds the flat amounts added to every order.
type OrderPolicy struct {
	TaxPrice      float64
	ShippingPrice float64
	Currency      string
}

type OrderService struct {
	carts     repository.CartRepository
	orders    repository.OrderRepository
	checkout  repository.CheckoutStore
	cache     cache.CartCache
	payments  payment.SessionProvider
	publisher events.Publisher
	policy    OrderPolicy
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	checkout repository.CheckoutStore,
	cartCache cache.CartCache,
	payments payment.SessionProvider,
	publisher events.Publisher,
	policy OrderPolicy,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		carts:     carts,
		orders:    orders,
		checkout:  checkout,
		cache:     cartCache,
		payments:  payments,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrderFromCart turns the owner's cart into a cash order. Stock is
// adjusted, the order stored and the cart removed as one unit.
func (s *OrderService) CreateOrderFromCart(ctx context.Context, ownerID string, cartID primitive.ObjectID) (*domain.Order, error) {
	cart, err := s.ownedCart(ctx, ownerID, cartID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		ID:              primitive.NewObjectID(),
		OwnerID:         ownerID,
		CartID:          cart.ID,
		Items:           cart.Snapshot(),
		TaxPrice:        s.policy.TaxPrice,
		ShippingPrice:   s.policy.ShippingPrice,
		TotalOrderPrice: s.total(cart),
		PaymentMethod:   domain.PaymentMethodCash,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.checkout.Commit(ctx, order, order.Adjustments(), cart.ID); err != nil {
		s.logger.Error("checkout failed",
			zap.String("owner_id", ownerID),
			zap.String("cart_id", cartID.Hex()),
			zap.Error(err),
		)
		return nil, err
	}

	invalidateCart(s.cache, s.logger, ownerID)
	s.publish(ctx, events.OrderCreated, order)

	s.logger.Info("order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("owner_id", ownerID),
		zap.Float64("total", order.TotalOrderPrice),
	)
	return order, nil
}

// CreateCheckoutSession prices the cart the same way a cash order would and
// asks the payment gateway for a hosted page. Nothing is persisted.
func (s *OrderService) CreateCheckoutSession(ctx context.Context, identity domain.Identity, cartID primitive.ObjectID, returnBase string) (*payment.Session, error) {
	cart, err := s.ownedCart(ctx, identity.UserID, cartID)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(returnBase, "/")
	session, err := s.payments.CreateSession(ctx, payment.SessionRequest{
		CartID:     cart.ID.Hex(),
		CustomerID: identity.UserID,
		Amount:     s.total(cart),
		Currency:   s.policy.Currency,
		SuccessURL: base + "/orders",
		CancelURL:  base + "/cart",
	})
	if err != nil {
		s.logger.Error("checkout session failed", zap.String("cart_id", cartID.Hex()), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *OrderService) MarkPaid(ctx context.Context, orderID primitive.ObjectID) (*domain.Order, error) {
	order, err := s.orders.SetPaid(ctx, orderID, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderPaid, order)
	return order, nil
}

func (s *OrderService) MarkDelivered(ctx context.Context, orderID primitive.ObjectID) (*domain.Order, error) {
	order, err := s.orders.SetDelivered(ctx, orderID, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderDelivered, order)
	return order, nil
}

// List returns the caller's own orders, or every order for admins.
func (s *OrderService) List(ctx context.Context, identity domain.Identity, page domain.Page) ([]domain.Order, int64, error) {
	filter := repository.OrderFilter{}
	if !identity.IsAdmin() {
		filter.OwnerID = identity.UserID
	}
	return s.orders.List(ctx, filter, page)
}

func (s *OrderService) Get(ctx context.Context, identity domain.Identity, orderID primitive.ObjectID) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() && order.OwnerID != identity.UserID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ownedCart(ctx context.Context, ownerID string, cartID primitive.ObjectID) (*domain.Cart, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.OwnerID != ownerID {
		return nil, fmt.Errorf("cart %s: %w", cartID.Hex(), domain.ErrCartNotFound)
	}
	return cart, nil
}

func (s *OrderService) total(cart *domain.Cart) float64 {
	return pricing.OrderTotal(cart.EffectivePrice(), s.policy.TaxPrice, s.policy.ShippingPrice)
}

// publish is best effort; the order is already committed.
func (s *OrderService) publish(ctx context.Context, name string, order *domain.Order) {
	if err := s.publisher.PublishOrder(ctx, name, order); err != nil {
		s.logger.Warn("publish order event failed",
			zap.String("event", name),
			zap.String("order_id", order.ID.Hex()),
			zap.Error(err),
		)
	}
}
