package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrMalformedEvent    = errors.New("malformed provider event")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrIntegrityMismatch = errors.New("provider identifier mismatch")
	ErrProvider          = errors.New("payment provider error")
)
