package database

import (
	"errors"
	"fmt"
	"strings"

	"cycup_backend/internal/config"
	"cycup_backend/internal/logger"
	"cycup_backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var defaultCities = []string{"Turku", "Helsinki", "Espoo", "Tampere", "Vaasa"}

var defaultCategories = []string{
	"Books", "Electronics", "Furniture", "Clothing", "Sports", "Kitchen", "Other",
}

// SeedLookups заполняет справочники городов и категорий, если они пусты
func SeedLookups(db *gorm.DB) error {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var count int64
	if err := tx.Model(&models.City{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		for _, name := range defaultCities {
			if err := tx.Create(&models.City{Name: name}).Error; err != nil {
				return fmt.Errorf("failed to seed city %s: %w", name, err)
			}
		}
		logger.Info("Seeded cities", "count", len(defaultCities))
	}

	if err := tx.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		for _, name := range defaultCategories {
			if err := tx.Create(&models.Category{Name: name}).Error; err != nil {
				return fmt.Errorf("failed to seed category %s: %w", name, err)
			}
		}
		logger.Info("Seeded categories", "count", len(defaultCategories))
	}

	return tx.Commit().Error
}

// SeedFirstAdmin создает первого администратора из конфига
func SeedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := strings.ToLower(strings.TrimSpace(cfg.Auth.FirstAdminEmail))
	adminPassword := cfg.Auth.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var existing models.User
	err := tx.Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", logger.MaskEmail(adminEmail))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hashed),
		IsVerified:   true,
		IsAdmin:      true,
		Name:         "CyCup Administration",
	}
	if err := tx.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created first admin user", "email", logger.MaskEmail(adminEmail))
	return tx.Commit().Error
}
