package services

import (
	"context"
	"strings"

	"cycup_backend/internal/logger"
	"cycup_backend/internal/repositories"
	"cycup_backend/internal/services/dto"
	"cycup_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// AdminService - действия модератора над объявлениями и пользователями
type AdminService interface {
	DisableItem(ctx context.Context, db *gorm.DB, itemID string) (*dto.MessageResponse, error)
	HardDeleteItem(ctx context.Context, db *gorm.DB, itemID string) (*dto.MessageResponse, error)
	BlockUser(ctx context.Context, db *gorm.DB, userID string, req *dto.BlockUserRequest) (*dto.MessageResponse, error)
	UnblockUser(ctx context.Context, db *gorm.DB, userID string) (*dto.MessageResponse, error)
	IsAdmin(ctx context.Context, db *gorm.DB, userID string) (bool, error)
}

type adminService struct {
	itemRepo    repositories.ItemRepository
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
}

func NewAdminService(
	itemRepo repositories.ItemRepository,
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
) AdminService {
	return &adminService{
		itemRepo:    itemRepo,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

func (s *adminService) DisableItem(ctx context.Context, db *gorm.DB, itemID string) (*dto.MessageResponse, error) {
	if err := s.itemRepo.Disable(db.WithContext(ctx), itemID); err != nil {
		return nil, handleItemError(err)
	}
	logger.CtxInfo(ctx, "item disabled by admin", "item_id", itemID)
	return &dto.MessageResponse{Message: "Item disabled successfully"}, nil
}

func (s *adminService) HardDeleteItem(ctx context.Context, db *gorm.DB, itemID string) (*dto.MessageResponse, error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.itemRepo.HardDelete(tx, itemID); err != nil {
		return nil, handleItemError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "item hard-deleted by admin", "item_id", itemID)
	return &dto.MessageResponse{Message: "Item deleted permanently"}, nil
}

// BlockUser - заблокированный пользователь сразу теряет все сессии
func (s *adminService) BlockUser(ctx context.Context, db *gorm.DB, userID string, req *dto.BlockUserRequest) (*dto.MessageResponse, error) {
	reason := strings.TrimSpace(req.Reason)

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.userRepo.UpdateFields(tx, userID, map[string]interface{}{
		"is_blocked":   true,
		"block_reason": reason,
	}); err != nil {
		return nil, handleAuthError(err)
	}
	if err := s.sessionRepo.DeleteByUserID(tx, userID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "user blocked", "user_id", userID)
	return &dto.MessageResponse{Message: "User blocked successfully"}, nil
}

func (s *adminService) UnblockUser(ctx context.Context, db *gorm.DB, userID string) (*dto.MessageResponse, error) {
	if err := s.userRepo.UpdateFields(db.WithContext(ctx), userID, map[string]interface{}{
		"is_blocked":   false,
		"block_reason": nil,
	}); err != nil {
		return nil, handleAuthError(err)
	}
	logger.CtxInfo(ctx, "user unblocked", "user_id", userID)
	return &dto.MessageResponse{Message: "User unblocked successfully"}, nil
}

func (s *adminService) IsAdmin(ctx context.Context, db *gorm.DB, userID string) (bool, error) {
	user, err := s.userRepo.FindByID(db.WithContext(ctx), userID)
	if err != nil {
		return false, handleAuthError(err)
	}
	return user.IsAdmin, nil
}
