package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telaprint/telaprint-backend/api/controllers"
	webhookcontrollers "github.com/telaprint/telaprint-backend/api/controllers/webhooks"
	"github.com/telaprint/telaprint-backend/api/middleware"
	"github.com/telaprint/telaprint-backend/internal/orders"
	"github.com/telaprint/telaprint-backend/internal/products"
	"github.com/telaprint/telaprint-backend/internal/quotes"
	"github.com/telaprint/telaprint-backend/internal/reconcile"
	"github.com/telaprint/telaprint-backend/internal/settings"
	"github.com/telaprint/telaprint-backend/internal/vouchers"
	stripewebhook "github.com/telaprint/telaprint-backend/internal/webhooks/stripe"
	"github.com/telaprint/telaprint-backend/pkg/config"
	"github.com/telaprint/telaprint-backend/pkg/db"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/redis"
	"github.com/telaprint/telaprint-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	productsService products.Service,
	ordersService orders.Service,
	quotesService quotes.Service,
	vouchersService vouchers.Service,
	settingsService settings.Service,
	reconcileService reconcile.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Catalog reads are public: the storefront renders prices pre-login.
	r.Route("/api/public/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(productsService, logg))
		r.Get("/products/{productId}", controllers.GetProduct(productsService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/cart/quote", controllers.CartQuote(ordersService, logg))
		r.Post("/checkout", controllers.Checkout(ordersService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
		})

		r.Route("/vouchers", func(r chi.Router) {
			r.Get("/", controllers.ListVouchers(vouchersService, logg))
			r.Get("/balance", controllers.VoucherBalance(vouchersService, logg))
		})

		r.Post("/quotes", controllers.SubmitQuote(quotesService, logg))
		r.Get("/quotes", controllers.ListQuotes(quotesService, logg))
		r.Get("/quotes/{quoteId}", controllers.GetQuote(quotesService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", controllers.AdminListQuotes(quotesService, logg))
			r.Post("/{quoteId}/quote", controllers.AdminAttachPricing(quotesService, logg))
			r.Post("/{quoteId}/payment-link", controllers.AdminSendPaymentLink(quotesService, logg))
			r.Post("/{quoteId}/bizum", controllers.AdminSetBizum(quotesService, logg))
			r.Put("/{quoteId}/notes", controllers.AdminUpdateQuoteNotes(quotesService, logg))
			r.Post("/{quoteId}/cancel", controllers.AdminCancelQuote(quotesService, logg))
			r.Post("/{quoteId}/expire", controllers.AdminExpireQuote(quotesService, logg))
			r.Post("/{quoteId}/mark-paid", controllers.AdminMarkQuotePaid(reconcileService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/{orderId}/mark-paid", controllers.AdminMarkOrderPaid(reconcileService, logg))
		})

		r.Get("/products", controllers.AdminListProducts(productsService, logg))
		r.Post("/products", controllers.AdminCreateProduct(productsService, logg))
		r.Put("/products/{productId}/tiers", controllers.AdminReplaceTiers(productsService, logg))

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.AdminListSettings(settingsService, logg))
			r.Put("/", controllers.AdminSetSetting(settingsService, logg))
		})
	})

	return r
}
