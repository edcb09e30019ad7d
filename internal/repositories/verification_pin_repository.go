package repositories

import (
	"errors"

	"cycup_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPinNotFound = errors.New("verification pin not found")
)

type VerificationPinRepository interface {
	Create(db *gorm.DB, pin *models.VerificationPin) error
	FindByUserID(db *gorm.DB, userID string) (*models.VerificationPin, error)
	// Consume удаляет конкретный PIN. ErrPinNotFound - его уже кто-то удалил.
	Consume(db *gorm.DB, pinID string) error
	DeleteByUserID(db *gorm.DB, userID string) error
}

type verificationPinRepository struct{}

func NewVerificationPinRepository() VerificationPinRepository {
	return &verificationPinRepository{}
}

func (r *verificationPinRepository) Create(db *gorm.DB, pin *models.VerificationPin) error {
	return db.Create(pin).Error
}

func (r *verificationPinRepository) FindByUserID(db *gorm.DB, userID string) (*models.VerificationPin, error) {
	var pin models.VerificationPin
	if err := db.Where("user_id = ?", userID).First(&pin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPinNotFound
		}
		return nil, err
	}
	return &pin, nil
}

func (r *verificationPinRepository) Consume(db *gorm.DB, pinID string) error {
	result := db.Where("id = ?", pinID).Delete(&models.VerificationPin{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPinNotFound
	}
	return nil
}

func (r *verificationPinRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.VerificationPin{}).Error
}
