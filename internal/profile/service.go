// Package profile はユーザープロフィールの参照・更新を提供する。
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/repository"
)

// UpdateInput はプロフィール更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Name        *string
	Preferences *model.Preferences
}

// Service はプロフィール操作を提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Get は自分のプロフィールを取得する。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Update は表示名と設定を部分更新し、更新後のプロフィールを返す。
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) (*model.User, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, model.NewValidationError("名前を入力してください")
		}
		input.Name = &name
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, input.Name, input.Preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
