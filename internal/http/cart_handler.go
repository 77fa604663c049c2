package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type CartService interface {
	GetForOwner(ctx context.Context, ownerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, ownerID string, productID primitive.ObjectID, color string, quantity int) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, ownerID string, itemID primitive.ObjectID, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, ownerID string, itemID primitive.ObjectID) (*domain.Cart, error)
	Clear(ctx context.Context, ownerID string) error
	ApplyCoupon(ctx context.Context, ownerID, couponName string) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartService
	logger  *zap.Logger
	timeout time.Duration
}

func NewCartHandler(carts CartService, logger *zap.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, logger: logger, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequestDTO struct {
	Coupon string `json:"coupon"`
}

const maxQuantity = 999

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	productID, err := domain.ParseID(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId must be a valid id")
		return
	}
	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 999")
		return
	}

	cart, err := h.carts.AddItem(ctx, identity.UserID, productID, req.Color, req.Quantity)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondCart(w, http.StatusOK, cart)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	cart, err := h.carts.GetForOwner(ctx, identity.UserID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondCart(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	if err := h.carts.Clear(ctx, identity.UserID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	itemID, err := domain.ParseID(chi.URLParam(r, "itemId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 1 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 999")
		return
	}

	cart, err := h.carts.UpdateItemQuantity(ctx, identity.UserID, itemID, req.Quantity)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondCart(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	itemID, err := domain.ParseID(chi.URLParam(r, "itemId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	cart, err := h.carts.RemoveItem(ctx, identity.UserID, itemID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondCart(w, http.StatusOK, cart)
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	identity, _ := identityFromContext(r.Context())

	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Coupon == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "coupon is required")
		return
	}

	cart, err := h.carts.ApplyCoupon(ctx, identity.UserID, req.Coupon)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondCart(w, http.StatusOK, cart)
}
