package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roseline-shop/storefront/internal/domain"
	"github.com/roseline-shop/storefront/internal/messaging"
	"github.com/roseline-shop/storefront/internal/telemetry"
)

type orderStore interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error)
	CancelAndRestock(ctx context.Context, id string) (bool, error)
}

// Service owns order reads, cancellation and the admin status machine.
// Checkout creates orders; everything after that goes through here.
type Service struct {
	orders  orderStore
	events  messaging.EventPublisher
	metrics *telemetry.StoreMetrics
	logger  *slog.Logger
}

// NewService wires the service; events may be nil when no broker is
// configured.
func NewService(orders orderStore, events messaging.EventPublisher, metrics *telemetry.StoreMetrics, logger *slog.Logger) *Service {
	return &Service{
		orders:  orders,
		events:  events,
		metrics: metrics,
		logger:  logger,
	}
}

// Get returns the order if the requester owns it or is an admin.
func (s *Service) Get(ctx context.Context, orderID, requesterID string, isAdmin bool) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, fmt.Errorf("order %s belongs to another user: %w", orderID, domain.ErrForbidden)
	}
	return order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListAll(ctx)
}

// Cancel transitions the order to CANCELLED and restores stock for each of
// its lines, the exact inverse of checkout's stock impact. Only the owner
// (or an admin) may cancel, and only from PENDING or PROCESSING.
func (s *Service) Cancel(ctx context.Context, orderID, requesterID string, isAdmin bool) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}

	if !isAdmin && order.UserID != requesterID {
		return nil, fmt.Errorf("order %s belongs to another user: %w", orderID, domain.ErrForbidden)
	}

	if !order.Status.Cancellable() {
		return nil, &domain.StateError{Status: order.Status}
	}

	cancelled, err := s.orders.CancelAndRestock(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if !cancelled {
		// Lost the optimistic status check: another actor moved the order
		// between our read and the conditional update.
		current, err := s.orders.GetByID(ctx, orderID)
		if err != nil || current == nil {
			return nil, fmt.Errorf("order %s changed concurrently: %w", orderID, domain.ErrConflict)
		}
		return nil, &domain.StateError{Status: current.Status}
	}

	restored := 0
	for _, line := range order.Lines {
		restored += line.Quantity
	}
	s.metrics.RecordCancellation(ctx, restored)

	updated, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload cancelled order: %w", err)
	}

	s.publish(ctx, domain.EventOrderCancelled, updated)
	s.logger.Info("order cancelled", "order_id", orderID, "user_id", order.UserID, "stock_restored", restored)

	return updated, nil
}

// SetStatus writes an admin-chosen fulfillment status. Transitions into
// CANCELLED route through Cancel so the stock reversal is never skipped;
// every other status is written as-is, with no forward-only ordering
// enforced.
func (s *Service) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus, actorID string) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown order status %q: %w", status, domain.ErrInvalidArgument)
	}

	if status == domain.OrderStatusCancelled {
		return s.Cancel(ctx, orderID, actorID, true)
	}

	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}

	if current.Status == domain.OrderStatusCancelled || current.Status == domain.OrderStatusDelivered {
		// Not rejected, see the status-machine notes in DESIGN.md; logged
		// so such transitions can be audited.
		s.logger.Warn("leaving terminal order status",
			"order_id", orderID, "from", current.Status, "to", status, "actor_id", actorID)
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}

	s.publish(ctx, domain.EventOrderStatusChanged, updated)
	s.logger.Info("order status updated", "order_id", orderID, "status", status, "actor_id", actorID)

	return updated, nil
}

func (s *Service) SetPaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown payment status %q: %w", status, domain.ErrInvalidArgument)
	}

	updated, err := s.orders.UpdatePaymentStatus(ctx, orderID, status)
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}

	s.logger.Info("payment status updated", "order_id", orderID, "payment_status", status)
	return updated, nil
}

// publish emits a revalidation hint. Delivery is best-effort: order state
// is already durable, so a broker failure is logged, not propagated.
func (s *Service) publish(ctx context.Context, eventType string, order *domain.Order) {
	if s.events == nil || order == nil {
		return
	}

	event := domain.OrderEvent{
		Type:      eventType,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish order event", "error", err, "order_id", order.ID, "type", eventType)
	}
}
