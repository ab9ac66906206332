package http

import (
	"context"
	"net/http"
	"time"

	"github.com/davex-ai/SwiftBites/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Products      *ProductHandler
	Cart          *CartHandler
	Wishlist      *WishlistHandler
	Orders        *OrdersHandler
	Notifications *NotificationHandler
}

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

func NewRouter(hs Handlers, authn auth.Authenticator, l *zap.Logger, timeout time.Duration, checks ...HealthCheck) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(AccessLog(l))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(auth.Middleware(authn))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				l.Warn("health check failed", zap.Error(err))
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", hs.Products.List)
		r.Get("/{productId}", hs.Products.Get)
	})

	r.Get("/my-cart", hs.Cart.GetCart)
	r.Get("/cart/summary", hs.Cart.Summary)
	r.Post("/cart", hs.Cart.AddItem)
	r.Patch("/cart/{productId}", hs.Cart.UpdateQuantity)
	r.Delete("/cart", hs.Cart.RemoveItem)
	r.Delete("/cart-clear", hs.Cart.ClearCart)

	r.Route("/wishlist", func(r chi.Router) {
		r.Get("/", hs.Wishlist.Get)
		r.Post("/", hs.Wishlist.Add)
		r.Delete("/", hs.Wishlist.Remove)
	})

	r.Post("/orders", hs.Orders.PlaceOrder)
	r.Get("/orders/{orderId}", hs.Orders.GetOrder)
	r.Patch("/orders/{orderId}", hs.Orders.UpdateStatus)
	r.Get("/my-orders", hs.Orders.ListMyOrders)
	r.Get("/admin/orders", hs.Orders.ListAllOrders)

	r.Get("/my-notifications", hs.Notifications.ListMine)
	r.Patch("/notifications/{notificationId}/read", hs.Notifications.MarkRead)

	return r
}
