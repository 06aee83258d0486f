package domain

import "time"

type User struct {
	UserID              string    `json:"id" dynamodbav:"user_id"`
	Phone               string    `json:"phone_number" dynamodbav:"phone_number"`
	Username            string    `json:"username" dynamodbav:"username"`
	FirstName           string    `json:"first_name" dynamodbav:"first_name"`
	LastName            string    `json:"last_name" dynamodbav:"last_name"`
	PhoneVerified       bool      `json:"is_phone_verified" dynamodbav:"phone_verified"`
	CreatedAt           time.Time `json:"date_joined" dynamodbav:"created_at"`
	LastAuthenticatedAt time.Time `json:"last_authenticated_at" dynamodbav:"last_authenticated_at"`
	UpdatedAt           time.Time `json:"-" dynamodbav:"updated_at"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}
