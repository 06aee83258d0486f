package sms

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/otp-auth-api/internal/domain"
	"github.com/otp-auth-api/internal/pkg/phone"
)

// SimulatedGateway logs the code instead of sending a real SMS and fails a
// configurable fraction of calls at random, so the delivery-error path gets
// exercised in development.
type SimulatedGateway struct {
	failureRate float64
	roll        func() float64
}

// NewSimulated builds a simulated gateway. roll may be nil, in which case
// math/rand is used; tests inject a deterministic roll instead.
func NewSimulated(failureRate float64, roll func() float64) *SimulatedGateway {
	if roll == nil {
		roll = rand.Float64
	}
	return &SimulatedGateway{failureRate: failureRate, roll: roll}
}

func (g *SimulatedGateway) Send(_ context.Context, number, code string) error {
	if !phone.Valid(number) {
		return fmt.Errorf("invalid phone number format %q: %w", number, domain.ErrValidation)
	}
	if g.roll() < g.failureRate {
		slog.Warn("simulated SMS delivery failure", "phone", number)
		return fmt.Errorf("simulated SMS failure: %w", domain.ErrDelivery)
	}
	slog.Info("simulated SMS sent", "phone", number, "code", code)
	return nil
}
