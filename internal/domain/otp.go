package domain

import "time"

// OTPCode is the per-phone-number one-time code record.
// PK: phone_number — at most one row per phone, so issuing a new code
// replaces (and thereby invalidates) the previous one in a single write.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OTPCode struct {
	Phone     string    `json:"phone_number" dynamodbav:"phone_number"`
	Code      string    `json:"-" dynamodbav:"code"`
	Used      bool      `json:"used" dynamodbav:"used"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	OTPCode     string `json:"otp_code" validate:"required,numeric,len=6"`
}
