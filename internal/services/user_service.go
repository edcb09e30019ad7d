package services

import (
	"context"

	"cycup_backend/internal/repositories"
	"cycup_backend/internal/services/dto"

	"gorm.io/gorm"
)

type UserService interface {
	GetProfile(ctx context.Context, db *gorm.DB, userID string) (*dto.UserResponse, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, db *gorm.DB, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(db.WithContext(ctx).Preload("City"), userID)
	if err != nil {
		return nil, handleAuthError(err)
	}
	return dto.NewUserResponse(user), nil
}
