package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest    = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed  = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrInvalidSignature  = &AppError{http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature is invalid"}
	ErrMethodNotAllowed  = &AppError{http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed"}
	ErrBookingNotFound   = &AppError{http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found"}
	ErrInvalidTransition = &AppError{http.StatusConflict, "INVALID_TRANSITION", "Booking cannot start a new payment in its current status"}
	ErrIntegrityMismatch = &AppError{http.StatusConflict, "INTEGRITY_MISMATCH", "Booking is already linked to a different payment"}
	ErrProviderFailure   = &AppError{http.StatusInternalServerError, "PROVIDER_ERROR", "Payment provider request failed"}
	ErrReconcileFailed   = &AppError{http.StatusInternalServerError, "RECONCILE_FAILED", "Event could not be applied"}
	ErrInternalError     = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
)
