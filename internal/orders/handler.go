package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/roseline-shop/storefront/internal/auth"
	"github.com/roseline-shop/storefront/internal/domain"
	"github.com/roseline-shop/storefront/internal/httperr"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	orders, err := h.service.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", identity.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	order, err := h.service.Get(r.Context(), r.PathValue("id"), identity.UserID, identity.Admin)
	if err != nil {
		h.reportError(w, err, "failed to get order")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// HandleCancel is the shopper-facing status route: the only transition a
// user may request on their own order is CANCELLED.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Status != domain.OrderStatusCancelled {
		h.writeError(w, http.StatusBadRequest, "you can only cancel orders")
		return
	}

	order, err := h.service.Cancel(r.Context(), r.PathValue("id"), identity.UserID, identity.Admin)
	if err != nil {
		h.reportError(w, err, "failed to cancel order")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list all orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) HandleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.SetStatus(r.Context(), r.PathValue("id"), req.Status, identity.UserID)
	if err != nil {
		h.reportError(w, err, "failed to update order status")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

type paymentStatusRequest struct {
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
}

func (h *Handler) HandleAdminSetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req paymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.SetPaymentStatus(r.Context(), r.PathValue("id"), req.PaymentStatus)
	if err != nil {
		h.reportError(w, err, "failed to update payment status")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) reportError(w http.ResponseWriter, err error, msg string) {
	status := httperr.Status(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	}
	h.writeError(w, status, httperr.Message(err))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
