package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/she-travels/payments/internal/domain"
)

const bookingColumns = `id, user_id, event_name, status, amount, currency,
	provider_checkout_session_id, provider_payment_intent_id, provider_status,
	paid_at, refunded_at, refund_amount, error, error_message,
	created_at, updated_at`

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (
			id, user_id, event_name, status, amount, currency,
			provider_checkout_session_id, provider_payment_intent_id, provider_status,
			paid_at, refunded_at, refund_amount, error, error_message,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		b.ID, b.UserID, b.EventName, b.Status, b.Amount, b.Currency,
		b.ProviderCheckoutSessionID, b.ProviderPaymentIntentID, b.ProviderStatus,
		b.PaidAt, b.RefundedAt, b.RefundAmount, b.Error, b.ErrorMessage,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id,
	)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return b, nil
}

// FindByPaymentIntentID resolves a booking from the provider payment intent it
// is linked to. The partial unique index guarantees at most one match.
func (r *BookingRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE provider_payment_intent_id = $1 LIMIT 1`,
		paymentIntentID,
	)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FindByPaymentIntentID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("FindByPaymentIntentID: %w", err)
	}
	return b, nil
}

// Update locks the booking row, lets mutate change it in memory and writes the
// result back in the same transaction. Nothing is written when mutate fails.
func (r *BookingRepository) Update(ctx context.Context, id string, mutate func(*domain.Booking) error) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Update: begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id,
	)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Update: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Update: lock: %w", err)
	}

	if err := mutate(b); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE bookings SET
			status = $1, amount = $2, currency = $3,
			provider_checkout_session_id = $4, provider_payment_intent_id = $5, provider_status = $6,
			paid_at = $7, refunded_at = $8, refund_amount = $9,
			error = $10, error_message = $11, updated_at = now()
		WHERE id = $12
		RETURNING updated_at`,
		b.Status, b.Amount, b.Currency,
		b.ProviderCheckoutSessionID, b.ProviderPaymentIntentID, b.ProviderStatus,
		b.PaidAt, b.RefundedAt, b.RefundAmount,
		b.Error, b.ErrorMessage, b.ID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("Update: %w: identifier linked to another booking", domain.ErrIntegrityMismatch)
		}
		return nil, fmt.Errorf("Update: write: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Update: commit: %w", err)
	}
	return b, nil
}

func scanBooking(s scanner) (*domain.Booking, error) {
	var b domain.Booking
	err := s.Scan(
		&b.ID, &b.UserID, &b.EventName, &b.Status, &b.Amount, &b.Currency,
		&b.ProviderCheckoutSessionID, &b.ProviderPaymentIntentID, &b.ProviderStatus,
		&b.PaidAt, &b.RefundedAt, &b.RefundAmount, &b.Error, &b.ErrorMessage,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
