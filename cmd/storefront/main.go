package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/roseline-shop/storefront/internal/auth"
	"github.com/roseline-shop/storefront/internal/campaign"
	"github.com/roseline-shop/storefront/internal/cart"
	"github.com/roseline-shop/storefront/internal/catalog"
	"github.com/roseline-shop/storefront/internal/checkout"
	"github.com/roseline-shop/storefront/internal/messaging"
	"github.com/roseline-shop/storefront/internal/orders"
	"github.com/roseline-shop/storefront/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var events messaging.EventPublisher
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		producer := messaging.NewProducer(strings.Split(kafkaBrokers, ","))
		defer func() { _ = producer.Close() }()
		events = producer
	}

	storeMetrics, err := telemetry.NewStoreMetrics()
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	productRepo := catalog.NewProductRepository(db)
	cartRepo := cart.NewCartRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	campaignRepo := campaign.NewCampaignRepository(db)

	ledger := cart.NewLedger(cartRepo, productRepo)
	checkoutService := checkout.NewService(productRepo, orderRepo, events, storeMetrics, pricingConfig(logger), logger)
	orderService := orders.NewService(orderRepo, events, storeMetrics, logger)

	catalogHandler := catalog.NewHandler(productRepo, logger)
	cartHandler := cart.NewHandler(ledger, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, logger)
	orderHandler := orders.NewHandler(orderService, logger)
	campaignHandler := campaign.NewHandler(campaignRepo, logger)

	mux := http.NewServeMux()

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}

	route("GET /products", catalogHandler.HandleList)
	route("GET /products/{id}", catalogHandler.HandleGet)
	route("GET /campaign", campaignHandler.HandleGetActive)

	route("GET /cart", auth.RequireUser(cartHandler.HandleList))
	route("POST /cart", auth.RequireUser(cartHandler.HandleAdd))
	route("PATCH /cart", auth.RequireUser(cartHandler.HandleSetQuantity))
	route("DELETE /cart/{productId}", auth.RequireUser(cartHandler.HandleRemove))

	route("POST /checkout", auth.RequireUser(checkoutHandler.HandleCheckout))
	route("GET /orders", auth.RequireUser(orderHandler.HandleListMine))
	route("GET /orders/{id}", auth.RequireUser(orderHandler.HandleGet))
	route("PATCH /orders/{id}", auth.RequireUser(orderHandler.HandleCancel))

	route("GET /admin/orders", auth.RequireAdmin(orderHandler.HandleAdminList))
	route("PATCH /admin/orders/{id}", auth.RequireAdmin(orderHandler.HandleAdminSetStatus))
	route("PATCH /admin/orders/{id}/payment", auth.RequireAdmin(orderHandler.HandleAdminSetPaymentStatus))

	route("POST /admin/products", auth.RequireAdmin(catalogHandler.HandleCreate))
	route("PUT /admin/products/{id}", auth.RequireAdmin(catalogHandler.HandleUpdate))
	route("DELETE /admin/products/{id}", auth.RequireAdmin(catalogHandler.HandleDelete))

	route("GET /admin/campaigns", auth.RequireAdmin(campaignHandler.HandleList))
	route("POST /admin/campaigns", auth.RequireAdmin(campaignHandler.HandleCreate))
	route("PUT /admin/campaigns/{id}", auth.RequireAdmin(campaignHandler.HandleUpdate))
	route("PATCH /admin/campaigns/{id}", auth.RequireAdmin(campaignHandler.HandleSetActive))
	route("DELETE /admin/campaigns/{id}", auth.RequireAdmin(campaignHandler.HandleDelete))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(auth.Middleware(mux), "storefront",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// pricingConfig reads the shipping constants, falling back to the defaults
// (free shipping from 50, flat fee 5) when unset.
func pricingConfig(logger *slog.Logger) checkout.Config {
	cfg := checkout.DefaultConfig()

	if v := os.Getenv("FREE_SHIPPING_THRESHOLD"); v != "" {
		threshold, err := decimal.NewFromString(v)
		if err != nil {
			logger.Error("invalid FREE_SHIPPING_THRESHOLD", "error", err, "value", v)
			os.Exit(1)
		}
		cfg.FreeShippingThreshold = threshold
	}

	if v := os.Getenv("FLAT_SHIPPING_FEE"); v != "" {
		fee, err := decimal.NewFromString(v)
		if err != nil {
			logger.Error("invalid FLAT_SHIPPING_FEE", "error", err, "value", v)
			os.Exit(1)
		}
		cfg.FlatShippingFee = fee
	}

	return cfg
}
