package messaging

import (
	"context"

	"github.com/roseline-shop/storefront/internal/domain"
)

// EventPublisher is what the orchestrators need from the broker. It stays
// nil when no broker is configured, which disables event publication
// without touching the order path.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

var _ EventPublisher = (*Producer)(nil)
