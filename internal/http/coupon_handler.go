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
	"github.com/fjod/go_cart/storefront/internal/service"
)

type CouponService interface {
	Create(ctx context.Context, in service.CouponInput) (*domain.Coupon, error)
	List(ctx context.Context, page domain.Page) ([]domain.Coupon, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Coupon, error)
	Update(ctx context.Context, id primitive.ObjectID, patch domain.CouponPatch) (*domain.Coupon, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CouponHandler struct {
	coupons CouponService
	logger  *zap.Logger
	timeout time.Duration
}

func NewCouponHandler(coupons CouponService, logger *zap.Logger, timeout time.Duration) *CouponHandler {
	return &CouponHandler{coupons: coupons, logger: logger, timeout: timeout}
}

func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var in service.CouponInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	coupon, err := h.coupons.Create(ctx, in)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, coupon)
}

func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page := pageFromQuery(r)
	coupons, total, err := h.coupons.List(ctx, page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ListResponse{
		Status: statusSuccess,
		Page:   page.Number,
		Limit:  page.Limit,
		Total:  total,
		Data:   coupons,
	})
}

func (h *CouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	coupon, err := h.coupons.Get(ctx, id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, coupon)
}

func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	var patch domain.CouponPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	coupon, err := h.coupons.Update(ctx, id, patch)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, coupon)
}

func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	if err := h.coupons.Delete(ctx, id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
