package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agrodesk/backoffice/internal/auth"
)

// Service fronts the users table for both the auth flow and the admin
// account screens. It satisfies auth.UserProvider.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var _ auth.UserProvider = (*Service)(nil)

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name, phone string,
) (*auth.UserInfo, error) {
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: &passwordHash,
		Name:         name,
		Phone:        phone,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := ToUserResponse(u)
	return &resp, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]UserResponse, int, error) {
	users, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	return ToUserResponseList(users), total, nil
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*UserResponse, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	resp := ToUserResponse(u)
	return &resp, nil
}

// Activate is the administrative unlock: it re-enables the account
// and zeroes the failure counter.
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.repo.Activate(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		IsVerified:   u.IsVerified,
		FailedLogins: u.FailedLoginAttempts,
		LastLoginAt:  u.LastLoginAt,
		DeletedAt:    u.DeletedAt,
	}
}
