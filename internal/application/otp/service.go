package otp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/otp-auth-api/internal/domain"
	"github.com/otp-auth-api/internal/infrastructure/sms"
	"github.com/otp-auth-api/internal/pkg/otpcode"
	"github.com/otp-auth-api/internal/pkg/phone"
)

type Service interface {
	// Issue generates and delivers a fresh code, invalidating any prior one.
	// Returns the normalized phone number and the code's lifetime in minutes.
	Issue(ctx context.Context, phoneNumber string) (string, int, error)
	// Verify checks a submitted code and consumes it on success.
	Verify(ctx context.Context, phoneNumber, code string) (*domain.OTPCode, error)
}

type codeStore interface {
	Replace(ctx context.Context, rec *domain.OTPCode) error
	Get(ctx context.Context, phone string) (*domain.OTPCode, error)
	Consume(ctx context.Context, phone, code string) error
	Delete(ctx context.Context, phone string) error
}

type service struct {
	repo       codeStore
	gateway    sms.Gateway
	generate   otpcode.Generator
	ttl        time.Duration
	codeLength int
}

type ServiceDeps struct {
	OTPRepo    codeStore
	Gateway    sms.Gateway
	Generate   otpcode.Generator // nil means crypto/rand
	TTL        time.Duration
	CodeLength int
}

func NewService(deps ServiceDeps) Service {
	gen := deps.Generate
	if gen == nil {
		gen = otpcode.Generate
	}
	return &service{
		repo:       deps.OTPRepo,
		gateway:    deps.Gateway,
		generate:   gen,
		ttl:        deps.TTL,
		codeLength: deps.CodeLength,
	}
}

func (s *service) Issue(ctx context.Context, phoneNumber string) (string, int, error) {
	normalized, ok := phone.Normalize(phoneNumber)
	if !ok {
		return "", 0, fmt.Errorf("field 'phone_number' is malformed: %w", domain.ErrValidation)
	}

	code, err := s.generate(s.codeLength)
	if err != nil {
		return "", 0, err
	}

	now := time.Now().UTC()
	rec := &domain.OTPCode{
		Phone:     normalized,
		Code:      code,
		Used:      false,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	// Replace overwrites the phone's previous row in one write, so the
	// old code is invalidated the instant the new one becomes active.
	if err := s.repo.Replace(ctx, rec); err != nil {
		return "", 0, err
	}

	// Exactly one delivery attempt, no retry. On failure the fresh row is
	// rolled back so no undelivered code is left active.
	if err := s.gateway.Send(ctx, normalized, code); err != nil {
		if delErr := s.repo.Delete(ctx, normalized); delErr != nil {
			slog.Warn("failed to roll back undelivered otp code", "phone", normalized, "err", delErr)
		}
		return "", 0, fmt.Errorf("deliver otp code: %w", domain.ErrDelivery)
	}

	return normalized, int(s.ttl.Minutes()), nil
}

func (s *service) Verify(ctx context.Context, phoneNumber, code string) (*domain.OTPCode, error) {
	normalized, ok := phone.Normalize(phoneNumber)
	if !ok {
		return nil, fmt.Errorf("field 'phone_number' is malformed: %w", domain.ErrValidation)
	}

	rec, err := s.repo.Get(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("no otp code issued for phone: %w", domain.ErrNotFound)
	}
	// Expiry is evaluated lazily against the stored timestamp; there is no
	// background sweeper.
	if time.Now().Unix() > rec.ExpiresAt {
		return nil, fmt.Errorf("otp code expired: %w", domain.ErrExpired)
	}
	if rec.Used {
		return nil, fmt.Errorf("otp code already used: %w", domain.ErrAlreadyUsed)
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return nil, fmt.Errorf("otp code does not match: %w", domain.ErrMismatch)
	}

	// Atomic check-and-set on the used flag; a lost race surfaces as
	// ErrAlreadyUsed so only the first verifier succeeds.
	if err := s.repo.Consume(ctx, normalized, code); err != nil {
		return nil, err
	}
	rec.Used = true
	return rec, nil
}
