package testutil

import (
	"testing"

	"cycup_backend/internal/config"
	"cycup_backend/internal/database"
	"cycup_backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB - SQLite в памяти со всеми таблицами и справочниками.
// Одно соединение: внутри транзакции можно работать только через tx.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Не удалось открыть тестовую БД")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedLookups(db))
	return db
}

// NewTestConfig - конфиг без файла: значения по умолчанию, быстрый bcrypt,
// файлы во временной папке теста
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Server.Env = "test"
	cfg.Redis.Addr = ""
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Auth.TrustedDomains = []string{"abo.fi"}
	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = t.TempDir()
	cfg.Storage.BaseURL = "/uploads"
	cfg.Log.ErrorLogPath = ""
	return cfg
}

// UserOption меняет пользователя перед сохранением
type UserOption func(*models.User)

func Unverified() UserOption {
	return func(u *models.User) { u.IsVerified = false }
}

func Blocked(reason string) UserOption {
	return func(u *models.User) {
		u.IsBlocked = true
		u.BlockReason = &reason
	}
}

func Admin() UserOption {
	return func(u *models.User) { u.IsAdmin = true }
}

// CreateUser создает подтвержденного пользователя с захешированным паролем
func CreateUser(t *testing.T, db *gorm.DB, email, password string, opts ...UserOption) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err, "Не удалось хешировать пароль")

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		IsVerified:   true,
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, db.Create(user).Error, "Не удалось создать пользователя %s", email)
	return user
}

func FirstCity(t *testing.T, db *gorm.DB) *models.City {
	t.Helper()
	var city models.City
	require.NoError(t, db.Order("name").First(&city).Error)
	return &city
}

func FirstCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	var category models.Category
	require.NoError(t, db.Order("name").First(&category).Error)
	return &category
}

// CreateItem - опубликованное объявление на продажу с одним фото
func CreateItem(t *testing.T, db *gorm.DB, owner *models.User, mutate ...func(*models.Item)) *models.Item {
	t.Helper()

	price := 25.0
	item := &models.Item{
		OwnerID:      owner.ID,
		Title:        "Desk lamp",
		CategoryID:   FirstCategory(t, db).ID,
		Condition:    models.ItemConditionUsed,
		Description:  "Works fine",
		Address:      "Tuomiokirkontori 1",
		CityID:       FirstCity(t, db).ID,
		ItemType:     models.ItemTypeSelling,
		SellingPrice: &price,
		Status:       models.ItemStatusPublished,
	}
	for _, m := range mutate {
		m(item)
	}
	require.NoError(t, db.Create(item).Error)
	require.NoError(t, db.Create(&models.ItemPhoto{
		ItemID:   item.ID,
		PhotoURL: "/uploads/item-images/lamp.jpg",
		IsMain:   true,
	}).Error)
	return item
}
