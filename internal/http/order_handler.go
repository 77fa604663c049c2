package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
)

type OrderService interface {
	CreateOrderFromCart(ctx context.Context, ownerID string, cartID primitive.ObjectID) (*domain.Order, error)
	CreateCheckoutSession(ctx context.Context, identity domain.Identity, cartID primitive.ObjectID, returnBase string) (*payment.Session, error)
	MarkPaid(ctx context.Context, orderID primitive.ObjectID) (*domain.Order, error)
	MarkDelivered(ctx context.Context, orderID primitive.ObjectID) (*domain.Order, error)
	List(ctx context.Context, identity domain.Identity, page domain.Page) ([]domain.Order, int64, error)
	Get(ctx context.Context, identity domain.Identity, orderID primitive.ObjectID) (*domain.Order, error)
}

type OrderHandler struct {
	orders  OrderService
	logger  *zap.Logger
	timeout time.Duration
}

func NewOrderHandler(orders OrderService, logger *zap.Logger, timeout time.Duration) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger, timeout: timeout}
}

func (h *OrderHandler) CreateCashOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	cartID, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	order, err := h.orders.CreateOrderFromCart(ctx, identity.UserID, cartID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, order)
}

func (h *OrderHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	cartID, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	session, err := h.orders.CreateCheckoutSession(ctx, identity, cartID, returnBase(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, session)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	page := pageFromQuery(r)
	orders, total, err := h.orders.List(ctx, identity, page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ListResponse{
		Status: statusSuccess,
		Page:   page.Number,
		Limit:  page.Limit,
		Total:  total,
		Data:   orders,
	})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	orderID, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	order, err := h.orders.Get(ctx, identity, orderID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, order)
}

func (h *OrderHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.MarkPaid)
}

func (h *OrderHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.MarkDelivered)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, primitive.ObjectID) (*domain.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	order, err := fn(ctx, orderID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, order)
}

// returnBase is the scheme and host the shopper reached us on.
func returnBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func pageFromQuery(r *http.Request) domain.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return domain.Page{Number: number, Limit: limit}.Normalize()
}
