package repositories

import (
	"errors"
	"time"

	"cycup_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrResetTokenNotFound = errors.New("password reset token not found")
)

type PasswordResetRepository interface {
	Create(db *gorm.DB, token *models.PasswordResetToken) error
	FindByToken(db *gorm.DB, token string) (*models.PasswordResetToken, error)
	// MarkUsed помечает токен использованным, только если он еще не использован.
	// ErrResetTokenNotFound - токен уже потрачен параллельным запросом.
	MarkUsed(db *gorm.DB, id string) error
	DeleteByUserID(db *gorm.DB, userID string) error
	DeleteExpired(db *gorm.DB, now time.Time) (int64, error)
}

type passwordResetRepository struct{}

func NewPasswordResetRepository() PasswordResetRepository {
	return &passwordResetRepository{}
}

func (r *passwordResetRepository) Create(db *gorm.DB, token *models.PasswordResetToken) error {
	return db.Create(token).Error
}

func (r *passwordResetRepository) FindByToken(db *gorm.DB, token string) (*models.PasswordResetToken, error) {
	var resetToken models.PasswordResetToken
	if err := db.Where("token = ?", token).First(&resetToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResetTokenNotFound
		}
		return nil, err
	}
	return &resetToken, nil
}

func (r *passwordResetRepository) MarkUsed(db *gorm.DB, id string) error {
	result := db.Model(&models.PasswordResetToken{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResetTokenNotFound
	}
	return nil
}

func (r *passwordResetRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.PasswordResetToken{}).Error
}

func (r *passwordResetRepository) DeleteExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at < ?", now).Delete(&models.PasswordResetToken{})
	return result.RowsAffected, result.Error
}
