package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

// NewRouter mounts every route under /api/v1 behind the identity middleware.
// /health stays open.
func NewRouter(cfg RouterConfig, logger *zap.Logger, carts *CartHandler, orders *OrderHandler, coupons *CouponHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	user := RequireRole(domain.RoleUser)
	admin := RequireRole(domain.RoleAdmin)
	anyone := RequireRole(domain.RoleUser, domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(IdentityMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Use(user)
			r.Post("/", carts.AddItem)
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Put("/applyCoupon", carts.ApplyCoupon)
			r.Put("/{itemId}", carts.UpdateQuantity)
			r.Delete("/{itemId}", carts.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(anyone).Get("/", orders.ListOrders)
			r.With(user).Get("/checkout-session/{id}", orders.CheckoutSession)
			r.With(user).Post("/{id}", orders.CreateCashOrder)
			r.With(anyone).Get("/{id}", orders.GetOrder)
			r.With(admin).Put("/{id}/pay", orders.MarkPaid)
			r.With(admin).Put("/{id}/deliver", orders.MarkDelivered)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Use(admin)
			r.Post("/", coupons.Create)
			r.Get("/", coupons.List)
			r.Get("/{id}", coupons.Get)
			r.Put("/{id}", coupons.Update)
			r.Delete("/{id}", coupons.Delete)
		})
	})

	return r
}
