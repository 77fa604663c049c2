package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

func cloneCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = c.Snapshot()
	if c.TotalPriceAfterDiscount != nil {
		v := *c.TotalPriceAfterDiscount
		cp.TotalPriceAfterDiscount = &v
	}
	return &cp
}

type mockCartRepository struct {
	m       sync.RWMutex
	byOwner map[string]*domain.Cart
	reads   int
	err     error
	// afterRead runs once, after the next GetByOwner has taken its copy.
	afterRead func()
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{byOwner: map[string]*domain.Cart{}}
}

func (m *mockCartRepository) GetByOwner(_ context.Context, ownerID string) (*domain.Cart, error) {
	cart, hook, err := m.getByOwner(ownerID)
	if hook != nil {
		hook()
	}
	return cart, err
}

func (m *mockCartRepository) getByOwner(ownerID string) (*domain.Cart, func(), error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.reads++
	hook := m.afterRead
	m.afterRead = nil
	if m.err != nil {
		return nil, hook, m.err
	}
	c, ok := m.byOwner[ownerID]
	if !ok {
		return nil, hook, domain.ErrNoCartForUser
	}
	return cloneCart(c), hook, nil
}

func (m *mockCartRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.byOwner {
		if c.ID == id {
			return cloneCart(c), nil
		}
	}
	return nil, domain.ErrCartNotFound
}

func (m *mockCartRepository) Save(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.byOwner[cart.OwnerID] = cloneCart(cart)
	return nil
}

func (m *mockCartRepository) DeleteByOwner(_ context.Context, ownerID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.byOwner, ownerID)
	return nil
}

func (m *mockCartRepository) deleteByID(id primitive.ObjectID) bool {
	m.m.Lock()
	defer m.m.Unlock()
	for owner, c := range m.byOwner {
		if c.ID == id {
			delete(m.byOwner, owner)
			return true
		}
	}
	return false
}

func (m *mockCartRepository) getReads() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.reads
}

type mockProductRepository struct {
	m        sync.RWMutex
	products map[primitive.ObjectID]*domain.Product
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: map[primitive.ObjectID]*domain.Product{}}
	for _, p := range products {
		_ = m.Create(context.Background(), p)
	}
	return m
}

func (m *mockProductRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) Create(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

type mockCouponRepository struct {
	m       sync.RWMutex
	coupons map[primitive.ObjectID]*domain.Coupon
}

func newMockCouponRepository(coupons ...*domain.Coupon) *mockCouponRepository {
	m := &mockCouponRepository{coupons: map[primitive.ObjectID]*domain.Coupon{}}
	for _, c := range coupons {
		_ = m.Create(context.Background(), c)
	}
	return m
}

func (m *mockCouponRepository) Create(_ context.Context, c *domain.Coupon) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, existing := range m.coupons {
		if existing.Name == c.Name {
			return domain.ErrDuplicateCoupon
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cp := *c
	m.coupons[c.ID] = &cp
	return nil
}

func (m *mockCouponRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Coupon, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	c, ok := m.coupons[id]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCouponRepository) FindActiveByName(_ context.Context, name string, now time.Time) (*domain.Coupon, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, c := range m.coupons {
		if c.Name == name && c.Active(now) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrCouponNotFound
}

func (m *mockCouponRepository) List(_ context.Context, page domain.Page) ([]domain.Coupon, int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	out := make([]domain.Coupon, 0, len(m.coupons))
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (m *mockCouponRepository) Update(_ context.Context, c *domain.Coupon) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.coupons[c.ID]; !ok {
		return domain.ErrCouponNotFound
	}
	for id, existing := range m.coupons {
		if id != c.ID && existing.Name == c.Name {
			return domain.ErrDuplicateCoupon
		}
	}
	cp := *c
	m.coupons[c.ID] = &cp
	return nil
}

func (m *mockCouponRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.coupons[id]; !ok {
		return domain.ErrCouponNotFound
	}
	delete(m.coupons, id)
	return nil
}

type mockOrderRepository struct {
	m      sync.RWMutex
	orders map[primitive.ObjectID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: map[primitive.ObjectID]*domain.Order{}}
}

func (m *mockOrderRepository) insert(o *domain.Order) {
	m.m.Lock()
	defer m.m.Unlock()
	cp := *o
	cp.Items = append([]domain.CartItem(nil), o.Items...)
	m.orders[o.ID] = &cp
}

func (m *mockOrderRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) List(_ context.Context, filter repository.OrderFilter, _ domain.Page) ([]domain.Order, int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	out := []domain.Order{}
	for _, o := range m.orders {
		if filter.OwnerID == "" || o.OwnerID == filter.OwnerID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *mockOrderRepository) SetPaid(_ context.Context, id primitive.ObjectID, at time.Time) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.MarkPaid(at)
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) SetDelivered(_ context.Context, id primitive.ObjectID, at time.Time) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.MarkDelivered(at)
	cp := *o
	return &cp, nil
}

// mockCheckoutStore applies a checkout all-or-nothing against the in-memory repos.
type mockCheckoutStore struct {
	m        sync.Mutex
	products *mockProductRepository
	orders   *mockOrderRepository
	carts    *mockCartRepository
	err      error
	commits  int
}

func (s *mockCheckoutStore) Commit(_ context.Context, order *domain.Order, adjustments []domain.InventoryAdjustment, cartID primitive.ObjectID) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}

	s.products.m.Lock()
	for _, adj := range adjustments {
		if _, ok := s.products.products[adj.ProductID]; !ok {
			s.products.m.Unlock()
			return domain.ErrInventoryUpdateFailed
		}
	}
	s.products.m.Unlock()

	if !s.carts.deleteByID(cartID) {
		return domain.ErrCartNotFound
	}

	s.products.m.Lock()
	for _, adj := range adjustments {
		p := s.products.products[adj.ProductID]
		p.Quantity -= adj.Quantity
		p.Sold += adj.Quantity
	}
	s.products.m.Unlock()

	s.orders.insert(order)
	s.commits++
	return nil
}

type mockCache struct {
	m           sync.RWMutex
	carts       map[string]*domain.Cart
	generations map[string]int64
	err         error
	deletes     int
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.Cart{}, generations: map[string]int64{}}
}

func (m *mockCache) Get(_ context.Context, ownerID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[ownerID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cloneCart(c), nil
}

func (m *mockCache) Generation(_ context.Context, ownerID string) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.generations[ownerID], nil
}

func (m *mockCache) Set(_ context.Context, ownerID string, cart *domain.Cart, generation int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.generations[ownerID] != generation {
		return cache.ErrStale
	}
	m.carts[ownerID] = cloneCart(cart)
	return nil
}

func (m *mockCache) Delete(_ context.Context, ownerID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	if m.err != nil {
		return m.err
	}
	delete(m.carts, ownerID)
	m.generations[ownerID]++
	return nil
}

func (m *mockCache) has(ownerID string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.carts[ownerID]
	return ok
}

type mockPayments struct {
	m        sync.RWMutex
	requests []payment.SessionRequest
	err      error
}

func (m *mockPayments) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	return &payment.Session{ID: "cs_test", URL: "https://pay.example.com/cs_test"}, nil
}

type publishedEvent struct {
	name    string
	orderID primitive.ObjectID
}

type mockPublisher struct {
	m      sync.RWMutex
	events []publishedEvent
	err    error
}

func (m *mockPublisher) PublishOrder(_ context.Context, name string, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{name: name, orderID: order.ID})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) names() []string {
	m.m.RLock()
	defer m.m.RUnlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.name)
	}
	return out
}
