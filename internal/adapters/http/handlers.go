package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/application"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
)

// Handler is the HTTP adapter entrypoint for delivery use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func deliveryIDFromURL(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "delivery_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed delivery id", domain.ErrInvalidInput)
	}
	return id, nil
}

func (h *Handler) getDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := deliveryIDFromURL(r)
	if err != nil {
		writeMappedError(r.Context(), w, "get_delivery_status", err)
		return
	}

	res, err := h.service.GetDeliveryStatus(r.Context(), deliveryID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_delivery_status", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) requestDownload(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := deliveryIDFromURL(r)
	if err != nil {
		writeMappedError(r.Context(), w, "request_download", err)
		return
	}

	var req application.DownloadRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeValidationError(r.Context(), w, "request_download", err)
			return
		}
	}
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()

	res, err := h.service.RequestDownload(r.Context(), deliveryID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "request_download", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listAuditLog(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := deliveryIDFromURL(r)
	if err != nil {
		writeMappedError(r.Context(), w, "list_audit_log", err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.service.ListAuditLog(r.Context(), deliveryID, limit, offset)
	if err != nil {
		writeMappedError(r.Context(), w, "list_audit_log", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) releaseEscrow(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := deliveryIDFromURL(r)
	if err != nil {
		writeMappedError(r.Context(), w, "release_escrow", err)
		return
	}

	var req application.ReleaseEscrowRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "release_escrow", err)
		return
	}
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()

	res, err := h.service.ReleaseEscrow(r.Context(), deliveryID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "release_escrow", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req application.PaymentWebhookRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "payment_webhook", err)
		return
	}

	res, err := h.service.RecordPayment(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "payment_webhook", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
