package cart

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/roseline-shop/storefront/internal/auth"
	"github.com/roseline-shop/storefront/internal/httperr"
)

type Handler struct {
	ledger *Ledger
	logger *slog.Logger
}

func NewHandler(ledger *Ledger, logger *slog.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: logger,
	}
}

type mutateRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req mutateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.Add(r.Context(), identity.UserID, req.ProductID, req.Quantity); err != nil {
		h.reportError(w, err, "failed to add to cart", req.ProductID)
		return
	}

	h.logger.Info("cart line added", "user_id", identity.UserID, "product_id", req.ProductID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req mutateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.SetQuantity(r.Context(), identity.UserID, req.ProductID, req.Quantity); err != nil {
		h.reportError(w, err, "failed to update cart", req.ProductID)
		return
	}

	h.logger.Info("cart line updated", "user_id", identity.UserID, "product_id", req.ProductID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	productID, err := strconv.ParseInt(r.PathValue("productId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.ledger.Remove(r.Context(), identity.UserID, productID); err != nil {
		h.reportError(w, err, "failed to remove from cart", productID)
		return
	}

	h.logger.Info("cart line removed", "user_id", identity.UserID, "product_id", productID)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	items, err := h.ledger.List(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to list cart", "error", err, "user_id", identity.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) reportError(w http.ResponseWriter, err error, msg string, productID int64) {
	status := httperr.Status(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "error", err, "product_id", productID)
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
