// Command webhook-replay signs Stripe event payloads with the webhook secret
// and posts them to a running payments API. Payloads come from JSON files, or
// from the webhook_events audit table when --event or --status is given.
//
//	STRIPE_WEBHOOK_SECRET=whsec_... webhook-replay event1.json [event2.json ...]
//	DATABASE_URL=... webhook-replay --status failed --limit 20
//	DATABASE_URL=... webhook-replay --event evt_123
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/she-travels/payments/internal/domain"
	"github.com/she-travels/payments/internal/logging"
	"github.com/she-travels/payments/internal/provider"
	"github.com/she-travels/payments/internal/repository"
)

type replayConfig struct {
	WebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET,required"`
	TargetURL     string        `env:"REPLAY_TARGET_URL" envDefault:"http://localhost:8080/stripeWebhook"`
	Timeout       time.Duration `env:"REPLAY_TIMEOUT" envDefault:"10s"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	AppEnv        string        `env:"APP_ENV" envDefault:"development"`
}

type storedEvents interface {
	GetByProviderEventID(ctx context.Context, providerEventID string) (*domain.WebhookEvent, error)
	ListByStatus(ctx context.Context, status domain.WebhookEventStatus, limit int) ([]domain.WebhookEvent, error)
}

type delivery struct {
	name    string
	payload []byte
}

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		eventID string
		status  string
		limit   int
	)

	cmd := &cobra.Command{
		Use:          "webhook-replay [event.json ...]",
		Short:        "Sign Stripe event payloads and post them to the payments API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.ParseAs[replayConfig]()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging.Init("webhook-replay", "info", cfg.AppEnv)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var deliveries []delivery
			if eventID != "" || status != "" {
				deliveries, err = loadStored(ctx, cfg, eventID, status, limit)
			} else {
				deliveries, err = fileDeliveries(args)
			}
			if err != nil {
				return err
			}
			if len(deliveries) == 0 {
				slog.Info("nothing to replay")
				return nil
			}

			return deliverAll(ctx, &http.Client{Timeout: cfg.Timeout}, cfg, deliveries)
		},
	}

	cmd.Flags().StringVarP(&eventID, "event", "e", "", "replay one stored event by provider event id")
	cmd.Flags().StringVarP(&status, "status", "s", "", "replay stored events whose last outcome is this status")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum stored events to replay with --status")

	return cmd
}

func deliverAll(ctx context.Context, client *http.Client, cfg replayConfig, deliveries []delivery) error {
	failed := 0
	for _, d := range deliveries {
		if err := deliver(ctx, client, cfg, d); err != nil {
			slog.Error("replay failed", "event", d.name, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deliveries failed", failed, len(deliveries))
	}
	return nil
}

func loadStored(ctx context.Context, cfg replayConfig, eventID, status string, limit int) ([]delivery, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required to replay stored events")
	}
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return storedDeliveries(ctx, repository.NewWebhookEventRepository(db), eventID, status, limit)
}

// storedDeliveries resolves --event or --status against the audit table. The
// payload is the raw body the provider originally signed.
func storedDeliveries(ctx context.Context, store storedEvents, eventID, status string, limit int) ([]delivery, error) {
	if eventID != "" {
		e, err := store.GetByProviderEventID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("storedDeliveries: %w", err)
		}
		return []delivery{{name: e.ProviderEventID, payload: e.Payload}}, nil
	}

	st := domain.WebhookEventStatus(status)
	switch st {
	case domain.WebhookEventStatusApplied, domain.WebhookEventStatusDropped,
		domain.WebhookEventStatusFailed, domain.WebhookEventStatusQuarantined:
	default:
		return nil, fmt.Errorf("storedDeliveries: unknown status %q", status)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("storedDeliveries: limit must be positive, got %d", limit)
	}

	events, err := store.ListByStatus(ctx, st, limit)
	if err != nil {
		return nil, fmt.Errorf("storedDeliveries: %w", err)
	}
	out := make([]delivery, 0, len(events))
	for _, e := range events {
		out = append(out, delivery{name: e.ProviderEventID, payload: e.Payload})
	}
	return out, nil
}

func fileDeliveries(paths []string) ([]delivery, error) {
	if len(paths) == 0 {
		return nil, errors.New("no event files given; pass paths, --event or --status")
	}
	out := make([]delivery, 0, len(paths))
	for _, path := range paths {
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("fileDeliveries: %w", err)
		}
		out = append(out, delivery{name: path, payload: payload})
	}
	return out, nil
}

func deliver(ctx context.Context, client *http.Client, cfg replayConfig, d delivery) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TargetURL, bytes.NewReader(d.payload))
	if err != nil {
		return fmt.Errorf("deliver: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(provider.SignatureHeader, provider.SignPayload(d.payload, cfg.WebhookSecret, time.Now()))

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver: post: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	slog.Info("event delivered", "event", d.name, "status", resp.StatusCode, "response", string(bytes.TrimSpace(body)))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("deliver: unexpected status %d", resp.StatusCode)
	}
	return nil
}
