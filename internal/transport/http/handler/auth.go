package handler

import (
	"encoding/json"
	"net/http"

	"github.com/otp-auth-api/internal/application/auth"
	"github.com/otp-auth-api/internal/application/otp"
	"github.com/otp-auth-api/internal/domain"
	"github.com/otp-auth-api/internal/pkg/validate"
)

// AuthHandler handles the OTP login/signup flow endpoints.
type AuthHandler struct {
	otpSvc  otp.Service
	authSvc auth.Service
}

func NewAuthHandler(otpSvc otp.Service, authSvc auth.Service) *AuthHandler {
	return &AuthHandler{otpSvc: otpSvc, authSvc: authSvc}
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	phone, expiresIn, err := h.otpSvc.Issue(r.Context(), req.PhoneNumber)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SendOTPEnvelope{
		Message:          "OTP sent successfully",
		PhoneNumber:      phone,
		ExpiresInMinutes: expiresIn,
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := h.otpSvc.Verify(r.Context(), req.PhoneNumber, req.OTPCode)
	if err != nil {
		httpError(w, err)
		return
	}
	result, err := h.authSvc.Authenticate(r.Context(), rec.Phone)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyOTPEnvelope{
		Message:   "Authentication successful",
		User:      result.User,
		Tokens:    result.Tokens,
		IsNewUser: result.IsNewUser,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeError(w, http.StatusBadRequest, "refresh token required")
		return
	}
	tokens, err := h.authSvc.Refresh(r.Context(), req.Refresh)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokensEnvelope{Tokens: tokens})
}
