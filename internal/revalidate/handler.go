// Package revalidate turns order events into cache-revalidation calls
// against the frontend, which re-renders the order-list views the event
// made stale.
package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/roseline-shop/storefront/internal/domain"
)

type Handler struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHandler(webhookURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		webhookURL: webhookURL,
		httpClient: client,
		logger:     logger,
	}
}

type revalidateRequest struct {
	Paths []string `json:"paths"`
}

// Handle maps one order event to the set of stale paths and posts them to
// the frontend webhook. Failures propagate so the consumer does not commit
// the offset and the hint is retried.
func (h *Handler) Handle(ctx context.Context, event domain.OrderEvent) error {
	paths := stalePaths(event)

	h.logger.Info("processing order event",
		"type", event.Type, "order_id", event.OrderID, "user_id", event.UserID, "paths", len(paths))

	if err := h.post(ctx, revalidateRequest{Paths: paths}); err != nil {
		return fmt.Errorf("revalidate paths for order %s: %w", event.OrderID, err)
	}

	return nil
}

// stalePaths lists the views affected by an order mutation: the owner's
// order list and detail page, and the admin order list.
func stalePaths(event domain.OrderEvent) []string {
	return []string{
		"/orders",
		"/orders/" + event.OrderID,
		"/admin/orders",
	}
}

func (h *Handler) post(ctx context.Context, body revalidateRequest) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.webhookURL+"/revalidate", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revalidation webhook returned status %d", resp.StatusCode)
	}

	return nil
}
