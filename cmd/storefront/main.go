package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/davex-ai/SwiftBites/internal/auth"
	"github.com/davex-ai/SwiftBites/internal/cache"
	"github.com/davex-ai/SwiftBites/internal/catalog"
	"github.com/davex-ai/SwiftBites/internal/config"
	"github.com/davex-ai/SwiftBites/internal/events"
	h "github.com/davex-ai/SwiftBites/internal/http"
	"github.com/davex-ai/SwiftBites/internal/logger"
	"github.com/davex-ai/SwiftBites/internal/pricing"
	"github.com/davex-ai/SwiftBites/internal/repository"
	"github.com/davex-ai/SwiftBites/internal/service"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	l, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer l.Sync()
	zap.ReplaceGlobals(l)

	l.Info("storefront starting", zap.String("port", cfg.HTTPPort))

	tp := initTracing()
	var wg sync.WaitGroup

	// Orders, carts, wishlists and notifications
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	db, err := repository.ConnectMongoDB(startupCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		l.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			l.Warn("failed to disconnect from MongoDB", zap.Error(err))
		}
	}()
	if err := repository.EnsureIndexes(startupCtx, db); err != nil {
		l.Fatal("failed to create indexes", zap.Error(err))
	}

	// Cart cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient, cache.DefaultTTL)
	if err := cartCache.Ping(startupCtx); err != nil {
		// the cart still works from MongoDB, only slower
		l.Warn("redis unavailable at startup", zap.Error(err))
	}

	// Product catalog
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		l.Fatal("failed to open catalog", zap.Error(err))
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(); err != nil {
		l.Fatal("failed to run catalog migrations", zap.Error(err))
	}
	l.Info("catalog migrations completed")
	products := catalog.NewBreakerCatalog(catalogRepo, catalog.DefaultBreakerSettings(), l)

	// Order events
	publisher := events.NewPublisher(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
	outbox := repository.NewOutboxRepository(db)

	calc := pricing.NewCalculator(cfg.ShippingFee, cfg.TaxRate)
	cartService := service.NewCartService(repository.NewCartRepository(db), cartCache, products, calc, l)
	wishlistService := service.NewWishlistService(repository.NewWishlistRepository(db), products, l)
	notificationService := service.NewNotificationService(repository.NewNotificationRepository(db), l)
	orderService := service.NewOrderService(service.OrderServiceDeps{
		Orders:  repository.NewOrderRepository(db),
		Carts:   repository.NewCartRepository(db),
		Tx:      repository.NewTransactor(db),
		Cache:   cartCache,
		Catalog: products,
		Pricing: calc,
		Outbox:  outbox,
		Logger:  l,
	})

	relay := events.NewRelay(outbox, publisher, l, cfg.OutboxInterval)
	relayCtx, relayCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.Run(relayCtx)
	}()

	consumer := events.NewConsumer(notificationService, l, cfg.OrderEventsTopic, events.DefaultGroupID, cfg.KafkaBrokers...)
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(consumerCtx)
	}()

	router := h.NewRouter(h.Handlers{
		Products:      h.NewProductHandler(products, l, cfg.RequestTimeout),
		Cart:          h.NewCartHandler(cartService, l, cfg.RequestTimeout),
		Wishlist:      h.NewWishlistHandler(wishlistService, l, cfg.RequestTimeout),
		Orders:        h.NewOrdersHandler(orderService, l, cfg.RequestTimeout),
		Notifications: h.NewNotificationHandler(notificationService, l, cfg.RequestTimeout),
	}, auth.HeaderAuthenticator{}, l, cfg.RequestTimeout,
		func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info("storefront listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down storefront")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
	}
	relayCancel()
	consumerCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		cartService.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		l.Info("background workers stopped cleanly")
	case <-shutdownCtx.Done():
		l.Warn("background workers didn't stop in time")
	}

	consumer.Close()
	if err := publisher.Close(); err != nil {
		l.Warn("failed to close publisher", zap.Error(err))
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		l.Warn("failed to shut down tracer provider", zap.Error(err))
	}
	l.Info("storefront stopped")
}

// initTracing installs a tracer provider so request logs carry trace ids.
// No exporter is configured.
func initTracing() *sdktrace.TracerProvider {
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	return tp
}
