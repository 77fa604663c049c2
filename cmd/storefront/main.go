package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/events"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		cancel()
		log.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	if err := repository.EnsureIndexes(ctx, db, cfg.CartTTL()); err != nil {
		cancel()
		log.Fatal("failed to create indexes", zap.Error(err))
	}
	cancel()
	log.Info("connected to mongodb", zap.String("database", cfg.MongoDBName), zap.Bool("transactions", cfg.MongoTransactions))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// Cart reads fall back to mongodb on cache errors.
		log.Warn("redis unavailable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cartCache := cache.NewRedisCache(redisClient, cfg.CartCacheTTL)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.EventsEnabled() {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		log.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	payments := payment.NewHTTPProvider(cfg.PaymentGatewayURL, cfg.PaymentTimeout)

	carts := repository.NewCartRepository(db)
	products := repository.NewProductRepository(db)
	coupons := repository.NewCouponRepository(db)
	orders := repository.NewOrderRepository(db)
	checkout := repository.NewCheckoutStore(db, cfg.MongoTransactions)

	cartService := service.NewCartService(carts, products, coupons, cartCache, log)
	couponService := service.NewCouponService(coupons, log)
	orderService := service.NewOrderService(carts, orders, checkout, cartCache, payments, publisher, service.OrderPolicy{
		TaxPrice:      cfg.TaxPrice,
		ShippingPrice: cfg.ShippingPrice,
		Currency:      cfg.PaymentCurrency,
	}, log)

	router := h.NewRouter(
		h.RouterConfig{RequestTimeout: cfg.RequestTimeout, MaxRequestBodySize: cfg.MaxRequestBodySize},
		log,
		h.NewCartHandler(cartService, log, cfg.RequestTimeout),
		h.NewOrderHandler(orderService, log, cfg.RequestTimeout),
		h.NewCouponHandler(couponService, log, cfg.RequestTimeout),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		log.Error("failed to close event publisher", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		log.Error("failed to close redis client", zap.Error(err))
	}
	if err := db.Client().Disconnect(shutdownCtx); err != nil {
		log.Error("failed to disconnect mongodb", zap.Error(err))
	}

	log.Info("server exited")
}
