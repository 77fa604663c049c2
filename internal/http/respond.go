package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
)

const statusSuccess = "success"

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type DataResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

type CartResponse struct {
	Status         string       `json:"status"`
	NumOfCartItems int          `json:"numOfCartItems"`
	Data           *domain.Cart `json:"data"`
}

type ListResponse struct {
	Status string      `json:"status"`
	Page   int         `json:"page"`
	Limit  int         `json:"limit"`
	Total  int64       `json:"total"`
	Data   interface{} `json:"data"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable is matched in order with errors.Is.
var errorTable = []errorMapping{
	{domain.ErrInvalidID, http.StatusBadRequest, "invalid_id"},
	{domain.ErrInvalidLineItem, http.StatusBadRequest, "invalid_line_item"},
	{domain.ErrInvalidOrExpiredCoupon, http.StatusBadRequest, "invalid_or_expired_coupon"},
	{domain.ErrInvalidCoupon, http.StatusBadRequest, "invalid_coupon"},
	{pricing.ErrInvalidDiscount, http.StatusBadRequest, "invalid_coupon"},
	{domain.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{domain.ErrNoCartForUser, http.StatusNotFound, "no_cart_for_user"},
	{domain.ErrCartNotFound, http.StatusNotFound, "cart_not_found"},
	{domain.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{domain.ErrCouponNotFound, http.StatusNotFound, "coupon_not_found"},
	{domain.ErrDuplicateCoupon, http.StatusConflict, "duplicate_coupon"},
	{domain.ErrInventoryUpdateFailed, http.StatusInternalServerError, "inventory_update_failed"},
	{domain.ErrPaymentSession, http.StatusBadGateway, "payment_session_failed"},
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondCart(w http.ResponseWriter, status int, cart *domain.Cart) {
	respondJSON(w, status, CartResponse{
		Status:         statusSuccess,
		NumOfCartItems: cart.ItemCount(),
		Data:           cart,
	})
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, DataResponse{Status: statusSuccess, Data: data})
}

// handleServiceError maps domain errors to HTTP statuses. Client errors carry
// their message; server errors only expose the error kind.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	for _, m := range errorTable {
		if !errors.Is(err, m.err) {
			continue
		}
		if domain.Classify(err) == domain.ClassClient {
			respondError(w, m.status, m.code, err.Error())
			return
		}
		logger.Error("request failed", zap.String("code", m.code), zap.Error(err))
		respondError(w, m.status, m.code, m.err.Error())
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("request timed out", zap.Error(err))
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
		return
	}

	logger.Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
