package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/otp-auth-api/internal/domain"
	jwtinfra "github.com/otp-auth-api/internal/infrastructure/jwt"
	"github.com/otp-auth-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPhoneVerified       = "phone_verified"
	fieldLastAuthenticatedAt = "last_authenticated_at"
)

// Result is what a successful verification exchange yields.
type Result struct {
	User      *domain.User      `json:"user"`
	Tokens    *domain.TokenPair `json:"tokens"`
	IsNewUser bool              `json:"is_new_user"`
}

type Service interface {
	// Authenticate finds or creates the identity for a verified phone
	// number and mints a fresh token pair.
	Authenticate(ctx context.Context, phone string) (*Result, error)
	// Refresh exchanges a valid refresh token for a new pair.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

type userStore interface {
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, phone string, updates map[string]interface{}) error
}

type tokenMinter interface {
	MintPair(userID, phone string) (*domain.TokenPair, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

type service struct {
	users  userStore
	tokens tokenMinter
}

type ServiceDeps struct {
	UserRepo    userStore
	JWTProvider tokenMinter
}

func NewService(deps ServiceDeps) Service {
	return &service{users: deps.UserRepo, tokens: deps.JWTProvider}
}

func (s *service) Authenticate(ctx context.Context, phone string) (*Result, error) {
	u, err := s.users.GetByPhone(ctx, phone)
	isNew := false
	switch {
	case err == nil:
		now := time.Now().UTC()
		updates := map[string]interface{}{fieldLastAuthenticatedAt: now}
		if !u.PhoneVerified {
			updates[fieldPhoneVerified] = true
			u.PhoneVerified = true
		}
		if err := s.users.Update(ctx, u.Phone, updates); err != nil {
			return nil, err
		}
		u.LastAuthenticatedAt = now
	case errors.Is(err, domain.ErrNotFound):
		now := time.Now().UTC()
		u = &domain.User{
			UserID:              id.New(),
			Phone:               phone,
			Username:            phone, // username defaults to the phone number
			PhoneVerified:       true,
			CreatedAt:           now,
			LastAuthenticatedAt: now,
			UpdatedAt:           now,
		}
		switch createErr := s.users.Create(ctx, u); {
		case createErr == nil:
			isNew = true
		case errors.Is(createErr, domain.ErrConflict):
			// Lost a concurrent first-login race — the identity exists now.
			if u, err = s.users.GetByPhone(ctx, phone); err != nil {
				return nil, err
			}
		default:
			return nil, createErr
		}
	default:
		return nil, err
	}

	tokens, err := s.tokens.MintPair(u.UserID, u.Phone)
	if err != nil {
		return nil, err
	}
	return &Result{User: u, Tokens: tokens, IsNewUser: isNew}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if claims.TokenType != jwtinfra.TokenTypeRefresh {
		return nil, fmt.Errorf("token is not a refresh token: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.GetByPhone(ctx, claims.Phone)
	if err != nil {
		return nil, fmt.Errorf("unknown identity: %w", domain.ErrUnauthorized)
	}
	return s.tokens.MintPair(u.UserID, u.Phone)
}
