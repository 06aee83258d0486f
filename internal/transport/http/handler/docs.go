package handler

import "net/http"

// DocsHandler serves a static JSON description of the auth API.
type DocsHandler struct{}

func NewDocsHandler() *DocsHandler { return &DocsHandler{} }

func (h *DocsHandler) Docs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"title":       "OTP Authentication API",
		"version":     "1.0.0",
		"description": "Phone-based authentication using One-Time Passwords (OTP)",
		"endpoints": map[string]interface{}{
			"send_otp": map[string]interface{}{
				"url":         "/v1/auth/send-otp",
				"method":      "POST",
				"description": "Send OTP code to phone number",
				"request_body": map[string]string{
					"phone_number": "string (required) - Phone number in international format",
				},
			},
			"verify_otp": map[string]interface{}{
				"url":         "/v1/auth/verify-otp",
				"method":      "POST",
				"description": "Verify OTP code and authenticate user",
				"request_body": map[string]string{
					"phone_number": "string (required) - Phone number",
					"otp_code":     "string (required) - 6-digit OTP code",
				},
			},
			"refresh": map[string]interface{}{
				"url":         "/v1/auth/refresh",
				"method":      "POST",
				"description": "Exchange a refresh token for a new token pair",
				"request_body": map[string]string{
					"refresh": "string (required) - Refresh JWT",
				},
			},
			"profile": map[string]interface{}{
				"url":         "/v1/auth/profile",
				"method":      "GET, PUT",
				"description": "Read or update the authenticated user's profile",
				"headers": map[string]string{
					"Authorization": "Bearer <access token>",
				},
			},
		},
	})
}
