package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/she-travels/payments/internal/domain"
)

// SeedBooking inserts a booking in the given status, as the upstream booking
// flow would before any payment starts.
func SeedBooking(t *testing.T, db *sql.DB, id string, status domain.BookingStatus, amount int64) *domain.Booking {
	t.Helper()

	now := time.Now().UTC()
	b := &domain.Booking{
		ID:        id,
		UserID:    "u-" + id,
		EventName: "Hike",
		Status:    status,
		Amount:    amount,
		Currency:  "cad",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.Exec(
		`INSERT INTO bookings (id, user_id, event_name, status, amount, currency, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.UserID, b.EventName, b.Status, b.Amount, b.Currency, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed booking %s: %v", id, err)
	}
	return b
}

// LinkPaymentIntent sets the provider payment intent id directly, bypassing
// the originators.
func LinkPaymentIntent(t *testing.T, db *sql.DB, bookingID, paymentIntentID string) {
	t.Helper()

	_, err := db.Exec(
		`UPDATE bookings SET provider_payment_intent_id = $1 WHERE id = $2`,
		paymentIntentID, bookingID,
	)
	if err != nil {
		t.Fatalf("link payment intent %s to %s: %v", paymentIntentID, bookingID, err)
	}
}

func GetBookingStatus(t *testing.T, db *sql.DB, bookingID string) domain.BookingStatus {
	t.Helper()

	var status domain.BookingStatus
	if err := db.QueryRow(`SELECT status FROM bookings WHERE id = $1`, bookingID).Scan(&status); err != nil {
		t.Fatalf("get booking status %s: %v", bookingID, err)
	}
	return status
}

func CountWebhookEvents(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM webhook_events`).Scan(&count); err != nil {
		t.Fatalf("count webhook events: %v", err)
	}
	return count
}
