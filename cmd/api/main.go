package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/atelierdoce/storefront-backend/api/routes"
	"github.com/atelierdoce/storefront-backend/internal/catalog"
	"github.com/atelierdoce/storefront-backend/internal/checkout"
	"github.com/atelierdoce/storefront-backend/internal/orders"
	"github.com/atelierdoce/storefront-backend/internal/settings"
	"github.com/atelierdoce/storefront-backend/internal/shipping"
	mercadopagowebhook "github.com/atelierdoce/storefront-backend/internal/webhooks/mercadopago"
	"github.com/atelierdoce/storefront-backend/pkg/config"
	"github.com/atelierdoce/storefront-backend/pkg/db"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
	"github.com/atelierdoce/storefront-backend/pkg/melhorenvio"
	"github.com/atelierdoce/storefront-backend/pkg/mercadopago"
	"github.com/atelierdoce/storefront-backend/pkg/metrics"
	"github.com/atelierdoce/storefront-backend/pkg/migrate"
	"github.com/atelierdoce/storefront-backend/pkg/redis"
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	accessToken, err := cfg.MercadoPago.AccessTokenFor(cfg.App)
	if err != nil {
		logg.Error(context.Background(), "failed to resolve gateway credential", err)
		os.Exit(1)
	}
	gatewayClient, err := mercadopago.NewClient(accessToken, logg,
		mercadopago.WithBaseURL(cfg.MercadoPago.BaseURL),
		mercadopago.WithTimeout(cfg.MercadoPago.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create mercado pago client", err)
		os.Exit(1)
	}

	carrierClient, err := melhorenvio.NewClient(cfg.MelhorEnvio.Token, logg,
		melhorenvio.WithBaseURL(cfg.MelhorEnvio.BaseURL),
		melhorenvio.WithUserAgent(cfg.MelhorEnvio.UserAgent),
		melhorenvio.WithTimeout(cfg.MelhorEnvio.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create melhor envio client", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	shippingService, err := shipping.NewService(carrierClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(catalogService, ordersRepo, gatewayClient, checkout.Config{
		NotificationURL: cfg.Checkout.NotificationURL,
	}, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	settingsService, err := settings.NewService(settings.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	webhookService, err := mercadopagowebhook.NewService(gatewayClient, ordersService, logg, webhookMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			catalogService,
			shippingService,
			checkoutService,
			ordersService,
			settingsService,
			webhookService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logg.Error(ctx, "api server stopped unexpectedly", multierr.Combine(err, redisClient.Close(), dbClient.Close()))
		os.Exit(1)
	case <-shutdownCtx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := multierr.Combine(server.Shutdown(timeoutCtx), redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "shutdown finished with errors", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
