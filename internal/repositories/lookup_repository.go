package repositories

import (
	"errors"

	"cycup_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCityNotFound     = errors.New("city not found")
)

// LookupRepository - справочники категорий и городов
type LookupRepository interface {
	FindCategory(db *gorm.DB, id string) (*models.Category, error)
	FindCity(db *gorm.DB, id string) (*models.City, error)
}

type lookupRepository struct{}

func NewLookupRepository() LookupRepository {
	return &lookupRepository{}
}

func (r *lookupRepository) FindCategory(db *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *lookupRepository) FindCity(db *gorm.DB, id string) (*models.City, error) {
	var city models.City
	if err := db.Where("id = ?", id).First(&city).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCityNotFound
		}
		return nil, err
	}
	return &city, nil
}
