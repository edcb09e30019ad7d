package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"cycup_backend/internal/models"
	"cycup_backend/internal/repositories"
	"cycup_backend/internal/services/dto"
	"cycup_backend/internal/testutil"
	"cycup_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestItemService() ItemService {
	return NewItemService(
		repositories.NewItemRepository(),
		repositories.NewUserRepository(),
		repositories.NewLookupRepository(),
	)
}

func lendingInput(t *testing.T, db *gorm.DB) *dto.CreateItemInput {
	t.Helper()
	return &dto.CreateItemInput{
		Title:          "  Camping tent ",
		CategoryID:     testutil.FirstCategory(t, db).ID,
		Condition:      models.ItemConditionUsed,
		Description:    "Two person tent",
		Address:        "Henrikinkatu 2",
		CityID:         testutil.FirstCity(t, db).ID,
		ItemType:       models.ItemTypeLending,
		LendingPrice:   price(5),
		RentUnit:       unit(models.RentUnitDay),
		PhotoURLs:      []string{"/uploads/item-images/a.jpg", "/uploads/item-images/b.jpg"},
		MainPhotoIndex: 1,
	}
}

func TestCreateItem_Success(t *testing.T) {
	// Arrange
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	svc := newTestItemService()

	// Act
	item, err := svc.CreateItem(context.Background(), db, owner.ID, lendingInput(t, db))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Camping tent", item.Title)
	assert.Equal(t, models.ItemStatusPublished, item.Status)
	assert.Nil(t, item.SellingPrice)
	require.NotNil(t, item.LendingPrice)
	assert.Equal(t, 5.0, *item.LendingPrice)
	require.NotNil(t, item.Category)
	require.NotNil(t, item.City)

	require.Len(t, item.Photos, 2)
	assert.False(t, item.Photos[0].IsMain)
	assert.True(t, item.Photos[1].IsMain)
	assert.Equal(t, "/uploads/item-images/b.jpg", item.Photos[1].PhotoURL)
}

func TestCreateItem_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		userOpts   []testutil.UserOption
		mutate     func(in *dto.CreateItemInput)
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "не подтвержден",
			userOpts:   []testutil.UserOption{testutil.Unverified()},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "заблокирован",
			userOpts:   []testutil.UserOption{testutil.Blocked("spam")},
			wantStatus: http.StatusForbidden,
			wantMsg:    "Not authorized to take this action.",
		},
		{
			name:       "неизвестная категория",
			mutate:     func(in *dto.CreateItemInput) { in.CategoryID = "11111111-1111-1111-1111-111111111111" },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid category: 11111111-1111-1111-1111-111111111111.",
		},
		{
			name:       "неизвестный город",
			mutate:     func(in *dto.CreateItemInput) { in.CityID = "22222222-2222-2222-2222-222222222222" },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid city: 22222222-2222-2222-2222-222222222222.",
		},
		{
			name:       "аренда без единицы",
			mutate:     func(in *dto.CreateItemInput) { in.RentUnit = nil },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Lending price and rent unit are required for lending items.",
		},
		{
			name:       "главное фото вне диапазона",
			mutate:     func(in *dto.CreateItemInput) { in.MainPhotoIndex = 2 },
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewTestDB(t)
			owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123", tt.userOpts...)
			in := lendingInput(t, db)
			if tt.mutate != nil {
				tt.mutate(in)
			}

			_, err := newTestItemService().CreateItem(context.Background(), db, owner.ID, in)

			appErr := requireAppError(t, err, tt.wantStatus)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, appErr.Message)
			}
			var count int64
			db.Model(&models.Item{}).Count(&count)
			assert.Zero(t, count)
		})
	}
}

func TestUpdateItem_ChangesMode(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	svc := newTestItemService()
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, db, owner.ID, lendingInput(t, db))
	require.NoError(t, err)

	selling := models.ItemTypeSelling

	t.Run("на продажу без цены", func(t *testing.T) {
		_, err := svc.UpdateItem(ctx, db, item.ID, owner.ID, &dto.UpdateItemInput{ItemType: &selling})
		appErr := requireAppError(t, err, http.StatusBadRequest)
		assert.Equal(t, "Selling price is required for selling items.", appErr.Message)
	})

	t.Run("на продажу с ценой", func(t *testing.T) {
		title := "Tent for sale"
		updated, err := svc.UpdateItem(ctx, db, item.ID, owner.ID, &dto.UpdateItemInput{
			Title:        &title,
			ItemType:     &selling,
			SellingPrice: price(40),
		})
		require.NoError(t, err)
		assert.Equal(t, models.ItemTypeSelling, updated.ItemType)
		assert.Equal(t, "Tent for sale", updated.Title)
		require.NotNil(t, updated.SellingPrice)
		assert.Equal(t, 40.0, *updated.SellingPrice)
		assert.Nil(t, updated.LendingPrice)
		assert.Nil(t, updated.RentUnit)
		assert.Len(t, updated.Photos, 2, "фото не менялись")
	})

	t.Run("замена фото", func(t *testing.T) {
		updated, err := svc.UpdateItem(ctx, db, item.ID, owner.ID, &dto.UpdateItemInput{
			PhotoURLs: []string{"/uploads/item-images/c.jpg"},
		})
		require.NoError(t, err)
		require.Len(t, updated.Photos, 1)
		assert.True(t, updated.Photos[0].IsMain)
	})
}

func TestUpdateItem_Rejections(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	other := testutil.CreateUser(t, db, "other@abo.fi", "password123")
	sold := testutil.CreateItem(t, db, owner, func(i *models.Item) { i.Status = models.ItemStatusSold })
	published := testutil.CreateItem(t, db, owner)
	svc := newTestItemService()
	ctx := context.Background()
	title := "New title"

	_, err := svc.UpdateItem(ctx, db, published.ID, other.ID, &dto.UpdateItemInput{Title: &title})
	requireAppError(t, err, http.StatusForbidden)

	_, err = svc.UpdateItem(ctx, db, sold.ID, owner.ID, &dto.UpdateItemInput{Title: &title})
	appErr := requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, apperrors.CodeInvalidStatus, appErr.Code)

	_, err = svc.UpdateItem(ctx, db, uuid.NewString(), owner.ID, &dto.UpdateItemInput{Title: &title})
	requireAppError(t, err, http.StatusNotFound)
}

func TestDeleteItem_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	item := testutil.CreateItem(t, db, owner)
	svc := newTestItemService()
	ctx := context.Background()

	first, err := svc.DeleteItem(ctx, db, item.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, first.Deleted)

	second, err := svc.DeleteItem(ctx, db, item.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, second.Deleted)
	assert.Equal(t, "Item already deleted", second.Message)

	_, err = svc.GetItem(ctx, db, item.ID)
	requireAppError(t, err, http.StatusNotFound)
}

func TestDeleteItem_NotOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	other := testutil.CreateUser(t, db, "other@abo.fi", "password123")
	item := testutil.CreateItem(t, db, owner)

	_, err := newTestItemService().DeleteItem(context.Background(), db, item.ID, other.ID)

	requireAppError(t, err, http.StatusForbidden)
}

func TestMarkItemAsSold(t *testing.T) {
	// Arrange
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	buyer := testutil.CreateUser(t, db, "buyer@abo.fi", "password123")
	item := testutil.CreateItem(t, db, owner)
	svc := newTestItemService().(*itemService)
	soldAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return soldAt }
	ctx := context.Background()

	// Act
	sold, err := svc.MarkItemAsSold(ctx, db, item.ID, owner.ID, "BUYER@abo.fi")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusSold, sold.Status)
	require.NotNil(t, sold.BuyerID)
	assert.Equal(t, buyer.ID, *sold.BuyerID)
	require.NotNil(t, sold.SoldAt)
	assert.True(t, soldAt.Equal(*sold.SoldAt))

	_, err = svc.MarkItemAsSold(ctx, db, item.ID, owner.ID, "buyer@abo.fi")
	appErr := requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, "This item has already been marked as sold.", appErr.Message)
}

func TestMarkItemAsSold_Rejections(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	other := testutil.CreateUser(t, db, "other@abo.fi", "password123")
	item := testutil.CreateItem(t, db, owner)
	deleted := testutil.CreateItem(t, db, owner, func(i *models.Item) { i.Status = models.ItemStatusDeleted })
	disabled := testutil.CreateItem(t, db, owner, func(i *models.Item) {
		i.Status = models.ItemStatusDisabled
		i.IsDisabledByAdmin = true
	})
	svc := newTestItemService()
	ctx := context.Background()

	tests := []struct {
		name       string
		itemID     string
		actorID    string
		buyerEmail string
		wantStatus int
		wantMsg    string
	}{
		{"не владелец", item.ID, other.ID, "owner@abo.fi", http.StatusForbidden, ""},
		{"покупатель не найден", item.ID, owner.ID, "ghost@abo.fi", http.StatusBadRequest, "Buyer with this email address not found in the system."},
		{"покупатель - сам владелец", item.ID, owner.ID, "owner@abo.fi", http.StatusBadRequest, "You cannot mark yourself as the buyer of your own item."},
		{"удалено", deleted.ID, owner.ID, "other@abo.fi", http.StatusNotFound, ""},
		{"отключено администратором", disabled.ID, owner.ID, "other@abo.fi", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.MarkItemAsSold(ctx, db, tt.itemID, tt.actorID, tt.buyerEmail)
			appErr := requireAppError(t, err, tt.wantStatus)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, appErr.Message)
			}
		})
	}
}

func TestGetItem_OnlyPublished(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	published := testutil.CreateItem(t, db, owner)
	sold := testutil.CreateItem(t, db, owner, func(i *models.Item) { i.Status = models.ItemStatusSold })
	svc := newTestItemService()
	ctx := context.Background()

	item, err := svc.GetItem(ctx, db, published.ID)
	require.NoError(t, err)
	assert.Equal(t, published.ID, item.ID)
	assert.Len(t, item.Photos, 1)

	_, err = svc.GetItem(ctx, db, sold.ID)
	requireAppError(t, err, http.StatusNotFound)
}
