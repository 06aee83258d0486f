package handler

import (
	"errors"
	"net/http"

	"github.com/otp-auth-api/internal/domain"
)

// httpError maps domain sentinel errors to HTTP status codes. Everything
// user-correctable is a 400; delivery failures are the one 500-class
// condition since the client has no remedy.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrExpired),
		errors.Is(err, domain.ErrAlreadyUsed),
		errors.Is(err, domain.ErrMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrDelivery):
		writeError(w, http.StatusInternalServerError, "failed to send OTP, please try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
