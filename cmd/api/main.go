package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/telaprint/telaprint-backend/api/routes"
	"github.com/telaprint/telaprint-backend/internal/loyalty"
	"github.com/telaprint/telaprint-backend/internal/orders"
	"github.com/telaprint/telaprint-backend/internal/payments"
	"github.com/telaprint/telaprint-backend/internal/pricing"
	"github.com/telaprint/telaprint-backend/internal/products"
	"github.com/telaprint/telaprint-backend/internal/quotes"
	"github.com/telaprint/telaprint-backend/internal/reconcile"
	"github.com/telaprint/telaprint-backend/internal/settings"
	"github.com/telaprint/telaprint-backend/internal/vouchers"
	stripewebhook "github.com/telaprint/telaprint-backend/internal/webhooks/stripe"
	"github.com/telaprint/telaprint-backend/pkg/config"
	"github.com/telaprint/telaprint-backend/pkg/db"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/metrics"
	"github.com/telaprint/telaprint-backend/pkg/migrate"
	"github.com/telaprint/telaprint-backend/pkg/outbox"
	"github.com/telaprint/telaprint-backend/pkg/redis"
	"github.com/telaprint/telaprint-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	productsRepo := products.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	quotesRepo := quotes.NewRepository(gormDB)
	vouchersRepo := vouchers.NewRepository(gormDB)
	loyaltyRepo := loyalty.NewRepository(gormDB)
	settingsRepo := settings.NewRepository(gormDB)
	outboxRepo := outbox.NewRepository(gormDB)

	settingsService, err := settings.NewService(settingsRepo, redisClient, cfg.Settings.CacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}
	vouchersService, err := vouchers.NewService(vouchersRepo, cfg.Voucher.CodePrefix, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create vouchers service", err)
		os.Exit(1)
	}
	loyaltyService, err := loyalty.NewService(loyaltyRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty service", err)
		os.Exit(1)
	}
	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	pricingService, err := pricing.NewService(productsRepo, vouchersService)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}
	linker, err := payments.NewLinker(payments.NewStripeClient(stripeClient), cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment linker", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(ordersRepo, dbClient, pricingService, settingsService, linker, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	quotesService, err := quotes.NewService(quotesRepo, linker, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create quotes service", err)
		os.Exit(1)
	}

	reconcileMetrics := metrics.NewReconcileMetrics(prometheus.DefaultRegisterer)
	reconcileService, err := reconcile.NewService(
		dbClient,
		ordersRepo,
		quotesRepo,
		productsRepo,
		vouchersService,
		loyaltyService,
		settingsService,
		outbox.NewService(outboxRepo, logg),
		reconcileMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(reconcileService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.EventTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			productsService,
			ordersService,
			quotesService,
			vouchersService,
			settingsService,
			reconcileService,
			stripeClient,
			webhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
