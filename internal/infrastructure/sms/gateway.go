package sms

import "context"

// Gateway delivers a one-time code to a phone number.
type Gateway interface {
	Send(ctx context.Context, phone, code string) error
}
