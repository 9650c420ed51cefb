package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/she-travels/payments/internal/domain"
)

const webhookEventColumns = `id, provider_event_id, event_type, booking_id, payload, status,
	reason, attempts, last_attempt, created_at`

type WebhookEventRepository struct {
	db *sql.DB
}

func NewWebhookEventRepository(db *sql.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Record stores the outcome of one delivery. A redelivery of the same provider
// event updates the existing row and bumps its attempt counter.
func (r *WebhookEventRepository) Record(ctx context.Context, event *domain.WebhookEvent) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO webhook_events (
			id, provider_event_id, event_type, booking_id, payload, status, reason,
			attempts, last_attempt, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 1, now(), $8)
		ON CONFLICT (provider_event_id) DO UPDATE SET
			booking_id = COALESCE(EXCLUDED.booking_id, webhook_events.booking_id),
			status = EXCLUDED.status,
			reason = EXCLUDED.reason,
			attempts = webhook_events.attempts + 1,
			last_attempt = now()
		RETURNING id, attempts, last_attempt`,
		event.ID, event.ProviderEventID, event.EventType, event.BookingID, []byte(event.Payload),
		event.Status, event.Reason, event.CreatedAt,
	).Scan(&event.ID, &event.Attempts, &event.LastAttempt)
	if err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

func (r *WebhookEventRepository) GetByProviderEventID(ctx context.Context, providerEventID string) (*domain.WebhookEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+webhookEventColumns+` FROM webhook_events WHERE provider_event_id = $1`,
		providerEventID,
	)
	e, err := scanWebhookEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByProviderEventID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByProviderEventID: %w", err)
	}
	return e, nil
}

func (r *WebhookEventRepository) ListByStatus(ctx context.Context, status domain.WebhookEventStatus, limit int) ([]domain.WebhookEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+webhookEventColumns+` FROM webhook_events
		WHERE status = $1 ORDER BY created_at LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	defer rows.Close()

	var events []domain.WebhookEvent
	for rows.Next() {
		e, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByStatus: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByStatus: rows: %w", err)
	}
	return events, nil
}

func scanWebhookEvent(s scanner) (*domain.WebhookEvent, error) {
	var e domain.WebhookEvent
	var payload []byte
	err := s.Scan(
		&e.ID, &e.ProviderEventID, &e.EventType, &e.BookingID, &payload, &e.Status,
		&e.Reason, &e.Attempts, &e.LastAttempt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}
