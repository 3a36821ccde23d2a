package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	OperatorToken  string
}

// NewRouter mounts the store and operator APIs. The SSE stream sits outside
// the timeout middleware so long-lived subscriptions are not cut off.
func NewRouter(cfg RouterConfig, cart *CartHandler, shipping *ShippingHandler, checkout *CheckoutHandler, admin *AdminHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
			r.Use(SessionMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cart.GetCart)
				r.Post("/items", cart.AddItem)
				r.Put("/items/{product_id}", cart.UpdateQuantity)
				r.Delete("/items/{product_id}", cart.RemoveItem)
				r.Delete("/", cart.ClearCart)
			})

			r.Get("/shipping/quote", shipping.Quote)

			r.Post("/checkout", checkout.Checkout)
			r.Post("/orders/{order_id}/payment", checkout.RetryPayment)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(OperatorAuthMiddleware(cfg.OperatorToken))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(cfg.RequestTimeout))

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", admin.ListOrders)
					r.Get("/export", admin.ExportCSV)
					r.Post("/restock", admin.RestoreStock)
					r.Get("/{order_id}", admin.GetOrder)
					r.Patch("/{order_id}/status", admin.UpdateStatus)
					r.Patch("/{order_id}/tracking", admin.UpdateTracking)
				})
			})

			r.Get("/events", admin.StreamEvents)
		})
	})

	return r
}
