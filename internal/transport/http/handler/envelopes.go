package handler

import (
	"encoding/json"
	"net/http"

	"github.com/otp-auth-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// SendOTPEnvelope wraps send-otp responses.
type SendOTPEnvelope struct {
	Message          string `json:"message"`
	PhoneNumber      string `json:"phone_number"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// VerifyOTPEnvelope wraps verify-otp responses.
type VerifyOTPEnvelope struct {
	Message   string            `json:"message"`
	User      *domain.User      `json:"user"`
	Tokens    *domain.TokenPair `json:"tokens"`
	IsNewUser bool              `json:"is_new_user"`
}

// TokensEnvelope wraps refresh responses.
type TokensEnvelope struct {
	Tokens *domain.TokenPair `json:"tokens"`
}

// UserEnvelope wraps profile responses.
type UserEnvelope struct {
	User *domain.User `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
