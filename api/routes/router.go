package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atelierdoce/storefront-backend/api/controllers"
	webhookcontrollers "github.com/atelierdoce/storefront-backend/api/controllers/webhooks"
	"github.com/atelierdoce/storefront-backend/api/middleware"
	"github.com/atelierdoce/storefront-backend/internal/catalog"
	checkoutsvc "github.com/atelierdoce/storefront-backend/internal/checkout"
	"github.com/atelierdoce/storefront-backend/internal/orders"
	"github.com/atelierdoce/storefront-backend/internal/settings"
	"github.com/atelierdoce/storefront-backend/internal/shipping"
	mercadopagowebhook "github.com/atelierdoce/storefront-backend/internal/webhooks/mercadopago"
	"github.com/atelierdoce/storefront-backend/pkg/config"
	"github.com/atelierdoce/storefront-backend/pkg/db"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
	"github.com/atelierdoce/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	catalogService catalog.Service,
	shippingService shipping.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	settingsService settings.Service,
	webhookService *mercadopagowebhook.Service,
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

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// The gateway calls back here; the handler itself answers 405 on
	// anything but POST, matching the notification contract.
	r.HandleFunc("/api/v1/webhooks/mercadopago", webhookcontrollers.MercadoPagoWebhook(webhookService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Get("/featured", controllers.GetFeaturedProduct(catalogService, logg))
			r.Get("/{productID}", controllers.GetProduct(catalogService, logg))
		})

		r.Post("/shipping/calculate", controllers.CalculateShipping(shippingService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Idempotency(redisClient, logg))
			r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.Admin.APIToken, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(catalogService, logg))
			r.Patch("/{productID}", controllers.AdminUpdateProduct(catalogService, logg))
			r.Delete("/{productID}", controllers.AdminDeleteProduct(catalogService, logg))
			r.Post("/{productID}/featured", controllers.AdminSetFeaturedProduct(catalogService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(ordersService, logg))
			r.Get("/{orderID}", controllers.AdminGetOrder(ordersService, logg))
			r.Delete("/{orderID}", controllers.AdminDeleteOrder(ordersService, logg))
		})

		r.Post("/payments/preferences", controllers.CreatePaymentPreference(checkoutService, logg))

		r.Route("/settings", func(r chi.Router) {
			r.Get("/uploader", controllers.AdminGetUploaderSettings(settingsService, logg))
			r.Put("/uploader", controllers.AdminPutUploaderSettings(settingsService, logg))
		})
	})

	return r
}
