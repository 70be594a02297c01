package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roseline-shop/storefront/internal/domain"
	"github.com/roseline-shop/storefront/internal/messaging"
	"github.com/roseline-shop/storefront/internal/telemetry"
)

// Config holds the shipping pricing constants. Orders at or above the
// threshold ship free; everything below pays the flat fee.
type Config struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: decimal.NewFromInt(50),
		FlatShippingFee:       decimal.NewFromInt(5),
	}
}

type productReader interface {
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

type orderWriter interface {
	CreateFromCheckout(ctx context.Context, order *domain.Order) error
}

// Line is one (product, quantity) pair submitted for checkout.
type Line struct {
	ProductID int64
	Quantity  int
}

// Request carries the checkout input. ClientTotal is whatever total the
// client displayed; it is informational only and never trusted.
type Request struct {
	UserID          string
	ShippingAddress string
	PhoneNumber     string
	Notes           string
	Lines           []Line
	ClientTotal     *decimal.Decimal
}

// Service validates the cart against live inventory, computes the
// authoritative total, and commits the order atomically.
type Service struct {
	products productReader
	orders   orderWriter
	events   messaging.EventPublisher
	metrics  *telemetry.StoreMetrics
	cfg      Config
	logger   *slog.Logger
}

// NewService wires the orchestrator; events may be nil when no broker is
// configured.
func NewService(products productReader, orders orderWriter, events messaging.EventPublisher,
	metrics *telemetry.StoreMetrics, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		products: products,
		orders:   orders,
		events:   events,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
	}
}

// Checkout turns the submitted lines into a durable PENDING order.
// Validation happens against a plain read first so shoppers get precise
// errors; the repository's conditional decrements re-check stock inside
// the transaction, so a stale read can only turn into a retryable
// conflict, never negative stock.
func (s *Service) Checkout(ctx context.Context, req Request) (*domain.Order, error) {
	order, err := s.checkout(ctx, req)
	s.metrics.RecordCheckout(ctx, checkoutResult(err))
	return order, err
}

func (s *Service) checkout(ctx context.Context, req Request) (*domain.Order, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("order has no items: %w", domain.ErrInvalidArgument)
	}
	if req.ShippingAddress == "" {
		return nil, fmt.Errorf("shipping address is required: %w", domain.ErrInvalidArgument)
	}

	for _, line := range req.Lines {
		if line.ProductID <= 0 {
			return nil, fmt.Errorf("invalid product ID %d: %w", line.ProductID, domain.ErrInvalidArgument)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("quantity for product %d must be at least 1: %w", line.ProductID, domain.ErrInvalidArgument)
		}
	}

	// Quantities are summed per product so a duplicated line cannot pass a
	// per-line stock check while exceeding stock combined.
	required := make(map[int64]int)
	var productIDs []int64
	for _, line := range req.Lines {
		if _, seen := required[line.ProductID]; !seen {
			productIDs = append(productIDs, line.ProductID)
		}
		required[line.ProductID] += line.Quantity
	}

	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	if len(byID) < len(productIDs) {
		for _, id := range productIDs {
			if _, ok := byID[id]; !ok {
				return nil, fmt.Errorf("product %d: %w", id, domain.ErrProductUnavailable)
			}
		}
	}

	for _, id := range productIDs {
		product := byID[id]
		if required[id] > product.Stock {
			return nil, &domain.StockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   required[id],
				Available:   product.Stock,
			}
		}
	}

	subtotal := decimal.Zero
	lines := make([]domain.OrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		product := byID[line.ProductID]
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		lines = append(lines, domain.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
	}

	shipping := s.cfg.FlatShippingFee
	if subtotal.GreaterThanOrEqual(s.cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	total := subtotal.Add(shipping)

	if req.ClientTotal != nil && !req.ClientTotal.Equal(total) {
		s.logger.Warn("client-submitted total differs from computed total",
			"user_id", req.UserID, "client_total", req.ClientTotal.String(), "computed_total", total.String())
	}

	order := &domain.Order{
		UserID:          req.UserID,
		Total:           total,
		ShippingAddress: req.ShippingAddress,
		PhoneNumber:     req.PhoneNumber,
		Notes:           req.Notes,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		Lines:           lines,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.orders.CreateFromCheckout(ctx, order); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	if s.events != nil {
		event := domain.OrderEvent{
			Type:      domain.EventOrderCreated,
			OrderID:   order.ID,
			UserID:    order.UserID,
			Status:    order.Status,
			Timestamp: order.CreatedAt,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	s.logger.Info("order created",
		"order_id", order.ID, "user_id", order.UserID, "total", order.Total.String(), "lines", len(order.Lines))

	return order, nil
}

func checkoutResult(err error) string {
	switch {
	case err == nil:
		return telemetry.CheckoutResultOK
	case errors.Is(err, domain.ErrInvalidArgument):
		return telemetry.CheckoutResultInvalid
	case errors.Is(err, domain.ErrProductUnavailable):
		return telemetry.CheckoutResultUnavailable
	case errors.Is(err, domain.ErrConflict):
		return telemetry.CheckoutResultConflict
	case errors.Is(err, domain.ErrInsufficientStock):
		return telemetry.CheckoutResultInsufficientStock
	default:
		return telemetry.CheckoutResultError
	}
}
