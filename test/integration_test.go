//go:build integration

package test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roseline-shop/storefront/internal/campaign"
	"github.com/roseline-shop/storefront/internal/cart"
	"github.com/roseline-shop/storefront/internal/catalog"
	"github.com/roseline-shop/storefront/internal/checkout"
	"github.com/roseline-shop/storefront/internal/domain"
	"github.com/roseline-shop/storefront/internal/messaging"
	"github.com/roseline-shop/storefront/internal/orders"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConcurrentCheckoutStockGuard(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	productID := SeedProduct(ctx, t, db, "Rose Bouquet", decimal.RequireFromString("20.00"), 5)

	svc := checkout.NewService(
		catalog.NewProductRepository(db),
		orders.NewOrderRepository(db),
		nil, nil,
		checkout.DefaultConfig(),
		testLogger(),
	)

	// Two buyers race for 3 units each out of 5. Exactly one transaction
	// may commit.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Checkout(ctx, checkout.Request{
				UserID:          "buyer-" + string(rune('a'+i)),
				ShippingAddress: "12 Rose St",
				Lines:           []checkout.Line{{ProductID: productID, Quantity: 3}},
			})
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range results {
		if err == nil {
			continue
		}
		failures++
		if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("expected insufficient stock error, got: %v", err)
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly 1 failed checkout, got %d", failures)
	}

	if stock := ProductStock(ctx, t, db, productID); stock != 2 {
		t.Fatalf("expected final stock 2, got %d", stock)
	}

	var orderCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("expected exactly 1 order, got %d", orderCount)
	}
}

func TestCheckoutFreezesPrices(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	productRepo := catalog.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	productID := SeedProduct(ctx, t, db, "Rose Bouquet", decimal.RequireFromString("19.99"), 10)

	svc := checkout.NewService(productRepo, orderRepo, nil, nil, checkout.DefaultConfig(), testLogger())

	order, err := svc.Checkout(ctx, checkout.Request{
		UserID:          "u1",
		ShippingAddress: "12 Rose St",
		Lines:           []checkout.Line{{ProductID: productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if err := productRepo.UpdatePrice(ctx, productID, decimal.RequireFromString("29.99")); err != nil {
		t.Fatalf("failed to update price: %v", err)
	}

	reloaded, err := orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	if reloaded == nil {
		t.Fatal("order not found after price change")
	}
	if len(reloaded.Lines) != 1 {
		t.Fatalf("expected 1 order line, got %d", len(reloaded.Lines))
	}
	if !reloaded.Lines[0].Price.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("expected frozen line price 19.99, got %s", reloaded.Lines[0].Price)
	}
	// 19.99 is below the free-shipping threshold, so the flat fee applies.
	if !reloaded.Total.Equal(decimal.RequireFromString("24.99")) {
		t.Fatalf("expected total 24.99, got %s", reloaded.Total)
	}
}

func TestCheckoutAtomicity(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	p1 := SeedProduct(ctx, t, db, "Rose Bouquet", decimal.RequireFromString("20.00"), 10)
	p2 := SeedProduct(ctx, t, db, "Tulip Mix", decimal.RequireFromString("10.00"), 1)

	cartRepo := cart.NewCartRepository(db)
	for _, line := range []domain.CartLine{
		{UserID: "u1", ProductID: p1, Quantity: 2},
		{UserID: "u1", ProductID: p2, Quantity: 5},
	} {
		if err := cartRepo.Insert(ctx, &line); err != nil {
			t.Fatalf("failed to seed cart line: %v", err)
		}
	}

	svc := checkout.NewService(
		catalog.NewProductRepository(db),
		orders.NewOrderRepository(db),
		nil, nil,
		checkout.DefaultConfig(),
		testLogger(),
	)

	_, err := svc.Checkout(ctx, checkout.Request{
		UserID:          "u1",
		ShippingAddress: "12 Rose St",
		Lines: []checkout.Line{
			{ProductID: p1, Quantity: 2},
			{ProductID: p2, Quantity: 5},
		},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got: %v", err)
	}

	// Nothing may have moved: stock, orders and the cart are untouched.
	if stock := ProductStock(ctx, t, db, p1); stock != 10 {
		t.Fatalf("expected product 1 stock unchanged at 10, got %d", stock)
	}
	if stock := ProductStock(ctx, t, db, p2); stock != 1 {
		t.Fatalf("expected product 2 stock unchanged at 1, got %d", stock)
	}

	var orderCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders, got %d", orderCount)
	}

	items, err := cartRepo.ListItems(ctx, "u1")
	if err != nil {
		t.Fatalf("failed to list cart: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected cart untouched with 2 lines, got %d", len(items))
	}
}

func TestCheckoutClearsCart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	productID := SeedProduct(ctx, t, db, "Rose Bouquet", decimal.RequireFromString("20.00"), 10)

	cartRepo := cart.NewCartRepository(db)
	if err := cartRepo.Insert(ctx, &domain.CartLine{UserID: "u1", ProductID: productID, Quantity: 2}); err != nil {
		t.Fatalf("failed to seed cart line: %v", err)
	}
	if err := cartRepo.Insert(ctx, &domain.CartLine{UserID: "u2", ProductID: productID, Quantity: 1}); err != nil {
		t.Fatalf("failed to seed cart line: %v", err)
	}

	svc := checkout.NewService(
		catalog.NewProductRepository(db),
		orders.NewOrderRepository(db),
		nil, nil,
		checkout.DefaultConfig(),
		testLogger(),
	)

	if _, err := svc.Checkout(ctx, checkout.Request{
		UserID:          "u1",
		ShippingAddress: "12 Rose St",
		Lines:           []checkout.Line{{ProductID: productID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	items, err := cartRepo.ListItems(ctx, "u1")
	if err != nil {
		t.Fatalf("failed to list cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected buyer's cart cleared, got %d lines", len(items))
	}

	// Another user's cart is not collateral damage.
	otherItems, err := cartRepo.ListItems(ctx, "u2")
	if err != nil {
		t.Fatalf("failed to list cart: %v", err)
	}
	if len(otherItems) != 1 {
		t.Fatalf("expected other user's cart untouched, got %d lines", len(otherItems))
	}
}

func TestCancelRestoresStock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	p1 := SeedProduct(ctx, t, db, "Rose Bouquet", decimal.RequireFromString("20.00"), 10)
	p2 := SeedProduct(ctx, t, db, "Tulip Mix", decimal.RequireFromString("10.00"), 8)

	orderRepo := orders.NewOrderRepository(db)
	checkoutSvc := checkout.NewService(
		catalog.NewProductRepository(db),
		orderRepo,
		nil, nil,
		checkout.DefaultConfig(),
		testLogger(),
	)
	orderSvc := orders.NewService(orderRepo, nil, nil, testLogger())

	order, err := checkoutSvc.Checkout(ctx, checkout.Request{
		UserID:          "u1",
		ShippingAddress: "12 Rose St",
		Lines: []checkout.Line{
			{ProductID: p1, Quantity: 3},
			{ProductID: p2, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if stock := ProductStock(ctx, t, db, p1); stock != 7 {
		t.Fatalf("expected stock 7 after checkout, got %d", stock)
	}

	cancelled, err := orderSvc.Cancel(ctx, order.ID, "u1", false)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected status CANCELLED, got %s", cancelled.Status)
	}

	if stock := ProductStock(ctx, t, db, p1); stock != 10 {
		t.Fatalf("expected product 1 stock restored to 10, got %d", stock)
	}
	if stock := ProductStock(ctx, t, db, p2); stock != 8 {
		t.Fatalf("expected product 2 stock restored to 8, got %d", stock)
	}

	// A second cancel must not restock again.
	if _, err := orderSvc.Cancel(ctx, order.ID, "u1", false); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state on second cancel, got: %v", err)
	}
	if stock := ProductStock(ctx, t, db, p1); stock != 10 {
		t.Fatalf("expected stock still 10 after repeated cancel, got %d", stock)
	}
}

func TestForgedClientTotalDiscarded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	productID := SeedProduct(ctx, t, db, "Rose Bouquet", decimal.RequireFromString("30.00"), 10)

	orderRepo := orders.NewOrderRepository(db)
	svc := checkout.NewService(
		catalog.NewProductRepository(db),
		orderRepo,
		nil, nil,
		checkout.DefaultConfig(),
		testLogger(),
	)

	forged := decimal.RequireFromString("0.01")
	order, err := svc.Checkout(ctx, checkout.Request{
		UserID:          "u1",
		ShippingAddress: "12 Rose St",
		Lines:           []checkout.Line{{ProductID: productID, Quantity: 2}},
		ClientTotal:     &forged,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	persisted, err := orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	// Subtotal 60 clears the free-shipping threshold.
	if !persisted.Total.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("expected persisted total 60.00, got %s", persisted.Total)
	}
}

func TestCampaignActivationSwap(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	repo := campaign.NewCampaignRepository(db)

	first := &domain.Campaign{Slug: "spring", Badge: "Spring", Title: "Spring Blooms", IsActive: true}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("failed to create first campaign: %v", err)
	}

	second := &domain.Campaign{Slug: "summer", Badge: "Summer", Title: "Summer Heat", IsActive: true}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("failed to create second campaign: %v", err)
	}

	active, err := repo.GetActive(ctx)
	if err != nil {
		t.Fatalf("failed to get active campaign: %v", err)
	}
	if active == nil || active.Slug != "summer" {
		t.Fatalf("expected summer campaign active, got %+v", active)
	}

	var activeCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seasonal_campaigns WHERE is_active`).Scan(&activeCount); err != nil {
		t.Fatalf("failed to count active campaigns: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly 1 active campaign, got %d", activeCount)
	}

	// Deactivating the only active campaign leaves the storefront on its
	// default theme.
	if _, err := repo.SetActive(ctx, second.ID, false); err != nil {
		t.Fatalf("failed to deactivate campaign: %v", err)
	}
	active, err = repo.GetActive(ctx)
	if err != nil {
		t.Fatalf("failed to get active campaign: %v", err)
	}
	if active != nil {
		t.Fatalf("expected no active campaign, got %+v", active)
	}
}

func TestStockConservation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	const initialStock = 20
	productID := SeedProduct(ctx, t, db, "Rose Bouquet", decimal.RequireFromString("20.00"), initialStock)

	orderRepo := orders.NewOrderRepository(db)
	checkoutSvc := checkout.NewService(
		catalog.NewProductRepository(db),
		orderRepo,
		nil, nil,
		checkout.DefaultConfig(),
		testLogger(),
	)
	orderSvc := orders.NewService(orderRepo, nil, nil, testLogger())

	// A run of checkouts with every other order cancelled. At any point,
	// stock plus the units held by live orders must equal the seed.
	var orderIDs []string
	for i := 0; i < 5; i++ {
		order, err := checkoutSvc.Checkout(ctx, checkout.Request{
			UserID:          "u1",
			ShippingAddress: "12 Rose St",
			Lines:           []checkout.Line{{ProductID: productID, Quantity: i + 1}},
		})
		if err != nil {
			t.Fatalf("checkout %d failed: %v", i, err)
		}
		orderIDs = append(orderIDs, order.ID)
	}

	for i := 0; i < len(orderIDs); i += 2 {
		if _, err := orderSvc.Cancel(ctx, orderIDs[i], "u1", false); err != nil {
			t.Fatalf("cancel %d failed: %v", i, err)
		}
	}

	var held int
	err := db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(l.quantity), 0)
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.status <> 'CANCELLED'
	`).Scan(&held)
	if err != nil {
		t.Fatalf("failed to sum held units: %v", err)
	}

	stock := ProductStock(ctx, t, db, productID)
	if stock+held != initialStock {
		t.Fatalf("stock not conserved: stock %d + held %d != %d", stock, held, initialStock)
	}
}

func TestOrderEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	sent := domain.OrderEvent{
		Type:      domain.EventOrderCreated,
		OrderID:   "order-1",
		UserID:    "u1",
		Status:    domain.OrderStatusPending,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	if err := producer.Publish(ctx, sent); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, "test-consumer")
	defer func() { _ = consumer.Close() }()

	received := make(chan domain.OrderEvent, 1)
	consumeCtx, stopConsume := context.WithCancel(ctx)
	defer stopConsume()

	go func() {
		_ = consumer.Consume(consumeCtx, func(_ context.Context, event domain.OrderEvent) error {
			received <- event
			return nil
		})
	}()

	select {
	case got := <-received:
		if got.Type != sent.Type || got.OrderID != sent.OrderID || got.UserID != sent.UserID {
			t.Fatalf("event mismatch: sent %+v, got %+v", sent, got)
		}
	case <-time.After(60 * time.Second):
		t.Fatal("timed out waiting for order event")
	}
}
