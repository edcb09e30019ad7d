package repositories

import (
	"errors"
	"time"

	"cycup_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrItemNotFound = errors.New("item not found")
	// ErrItemNotTransitionable - условный апдейт статуса не затронул ни одной строки
	ErrItemNotTransitionable = errors.New("item status does not allow this transition")
)

type ItemRepository interface {
	// Create сохраняет товар вместе с фотографиями
	Create(db *gorm.DB, item *models.Item) error
	FindByID(db *gorm.DB, id string) (*models.Item, error)
	// FindWithRelations подгружает фото (по display_order), категорию и город
	FindWithRelations(db *gorm.DB, id string) (*models.Item, error)
	UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error
	ReplacePhotos(db *gorm.DB, itemID string, photos []models.ItemPhoto) error
	UpdateStatus(db *gorm.DB, id string, status models.ItemStatus) error
	MarkSold(db *gorm.DB, id, buyerID string, soldAt time.Time) error
	Disable(db *gorm.DB, id string) error
	HardDelete(db *gorm.DB, id string) error
}

type itemRepository struct{}

func NewItemRepository() ItemRepository {
	return &itemRepository{}
}

func (r *itemRepository) Create(db *gorm.DB, item *models.Item) error {
	return db.Create(item).Error
}

func (r *itemRepository) FindByID(db *gorm.DB, id string) (*models.Item, error) {
	var item models.Item
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindWithRelations(db *gorm.DB, id string) (*models.Item, error) {
	var item models.Item
	err := db.
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Preload("Category").
		Preload("City").
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := db.Model(&models.Item{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *itemRepository) ReplacePhotos(db *gorm.DB, itemID string, photos []models.ItemPhoto) error {
	if err := db.Where("item_id = ?", itemID).Delete(&models.ItemPhoto{}).Error; err != nil {
		return err
	}
	for i := range photos {
		photos[i].ItemID = itemID
	}
	if len(photos) == 0 {
		return nil
	}
	return db.Create(&photos).Error
}

func (r *itemRepository) UpdateStatus(db *gorm.DB, id string, status models.ItemStatus) error {
	return r.UpdateFields(db, id, map[string]interface{}{"status": status})
}

// MarkSold - переход в sold возможен только из не конечных статусов
func (r *itemRepository) MarkSold(db *gorm.DB, id, buyerID string, soldAt time.Time) error {
	result := db.Model(&models.Item{}).
		Where("id = ? AND status NOT IN ?", id, []string{string(models.ItemStatusSold), string(models.ItemStatusDeleted)}).
		Updates(map[string]interface{}{
			"status":   models.ItemStatusSold,
			"buyer_id": buyerID,
			"sold_at":  soldAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotTransitionable
	}
	return nil
}

func (r *itemRepository) Disable(db *gorm.DB, id string) error {
	return r.UpdateFields(db, id, map[string]interface{}{
		"status":               models.ItemStatusDisabled,
		"is_disabled_by_admin": true,
	})
}

func (r *itemRepository) HardDelete(db *gorm.DB, id string) error {
	if err := db.Where("item_id = ?", id).Delete(&models.ItemPhoto{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&models.Item{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}
