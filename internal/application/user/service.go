package user

import (
	"context"

	"github.com/otp-auth-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
}

type userStore interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, phone string, updates map[string]interface{}) error
}

type service struct {
	repo userStore
}

func NewService(repo userStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
		u.LastName = *req.LastName
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.repo.Update(ctx, u.Phone, updates); err != nil {
		return nil, err
	}
	return u, nil
}
