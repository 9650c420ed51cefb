package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/she-travels/payments/internal/config"
	"github.com/she-travels/payments/internal/handler"
	"github.com/she-travels/payments/internal/logging"
	"github.com/she-travels/payments/internal/middleware"
	"github.com/she-travels/payments/internal/provider"
	"github.com/she-travels/payments/internal/repository"
	"github.com/she-travels/payments/internal/service/checkout"
	"github.com/she-travels/payments/internal/service/reconcile"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("payments-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	bookings := repository.NewBookingRepository(db)
	webhookEvents := repository.NewWebhookEventRepository(db)

	stripeClient := provider.NewClient(provider.ClientConfig{
		SecretKey: cfg.StripeSecretKey,
		APIURL:    cfg.StripeAPIURL,
		Timeout:   cfg.ProviderTimeout,
	})

	originators := checkout.NewService(stripeClient, bookings, checkout.Options{
		ProviderTimeout: cfg.ProviderTimeout,
		StoreTimeout:    cfg.StoreTimeout,
	})
	router := reconcile.NewRouter(bookings, reconcile.Options{StoreTimeout: cfg.StoreTimeout})

	checkoutHandler := handler.NewCheckoutHandler(originators, cfg)
	webhookHandler := handler.NewWebhookHandler(
		provider.NewVerifier(cfg.StripeWebhookSecret, cfg.WebhookTolerance),
		router,
		webhookEvents,
	)
	healthHandler := handler.NewHealthHandler(db, version)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Method checks happen in the handlers so wrong methods get a JSON 405.
	mux.HandleFunc("/createCheckoutSession", checkoutHandler.CreateCheckoutSession)
	mux.HandleFunc("/createPaymentIntent", checkoutHandler.CreatePaymentIntent)
	mux.HandleFunc("/stripeWebhook", webhookHandler.ReceiveStripeWebhook)

	var h http.Handler = mux
	h = middleware.CORS(cfg)(h)
	h = middleware.Metrics(h)
	h = middleware.Logging(h)
	h = middleware.Tracing(h)
	h = middleware.Recovery(h)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ProviderTimeout + cfg.StoreTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
