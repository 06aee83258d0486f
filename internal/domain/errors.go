package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrMismatch     = errors.New("mismatch")
	ErrConflict     = errors.New("conflict")
	ErrDelivery     = errors.New("delivery failed")
	ErrUnauthorized = errors.New("unauthorized")
)
