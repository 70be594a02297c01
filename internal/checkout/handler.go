package checkout

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/roseline-shop/storefront/internal/auth"
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

type checkoutItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type checkoutRequest struct {
	ShippingAddress string           `json:"shipping_address"`
	PhoneNumber     string           `json:"phone_number"`
	Notes           string           `json:"notes"`
	Total           *decimal.Decimal `json:"total"`
	Items           []checkoutItem   `json:"items"`
}

type checkoutResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.service.Checkout(r.Context(), Request{
		UserID:          identity.UserID,
		ShippingAddress: req.ShippingAddress,
		PhoneNumber:     req.PhoneNumber,
		Notes:           req.Notes,
		Lines:           lines,
		ClientTotal:     req.Total,
	})
	if err != nil {
		status := httperr.Status(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("checkout failed", "error", err, "user_id", identity.UserID)
		}
		h.writeError(w, status, httperr.Message(err))
		return
	}

	h.writeJSON(w, http.StatusCreated, checkoutResponse{Success: true, OrderID: order.ID})
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
