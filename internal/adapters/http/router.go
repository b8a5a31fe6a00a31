package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter registers delivery HTTP routes and middleware stack.
// Centralizing routes here ensures consistent error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/deliveries/v1", func(r chi.Router) {
		r.Get("/{delivery_id}", handler.getDeliveryStatus)
		r.Get("/{delivery_id}/audit", handler.listAuditLog)
		r.Post("/{delivery_id}/download", handler.requestDownload)
		r.Post("/{delivery_id}/release", handler.releaseEscrow)
		r.Post("/payments/webhook", handler.paymentWebhook)
	})

	return r
}
