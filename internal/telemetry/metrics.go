package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Checkout result values recorded on the attempts counter.
const (
	CheckoutResultOK                = "ok"
	CheckoutResultInvalid           = "invalid_argument"
	CheckoutResultUnavailable       = "product_unavailable"
	CheckoutResultInsufficientStock = "insufficient_stock"
	CheckoutResultConflict          = "conflict"
	CheckoutResultError             = "error"
)

// StoreMetrics holds the order-lifecycle instruments. All record methods
// are nil-receiver safe so callers need no metrics wiring in tests.
type StoreMetrics struct {
	checkoutAttempts metric.Int64Counter
	cancellations    metric.Int64Counter
	stockRestored    metric.Int64Counter
}

func NewStoreMetrics() (*StoreMetrics, error) {
	meter := otel.Meter("storefront/orders")

	checkoutAttempts, err := meter.Int64Counter("storefront.checkout.attempts",
		metric.WithDescription("Checkout attempts by result"))
	if err != nil {
		return nil, err
	}

	cancellations, err := meter.Int64Counter("storefront.orders.cancellations",
		metric.WithDescription("Orders cancelled"))
	if err != nil {
		return nil, err
	}

	stockRestored, err := meter.Int64Counter("storefront.stock.restored_units",
		metric.WithDescription("Stock units restored by cancellations"))
	if err != nil {
		return nil, err
	}

	return &StoreMetrics{
		checkoutAttempts: checkoutAttempts,
		cancellations:    cancellations,
		stockRestored:    stockRestored,
	}, nil
}

func (m *StoreMetrics) RecordCheckout(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.checkoutAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *StoreMetrics) RecordCancellation(ctx context.Context, restoredUnits int) {
	if m == nil {
		return
	}
	m.cancellations.Add(ctx, 1)
	m.stockRestored.Add(ctx, int64(restoredUnits))
}
