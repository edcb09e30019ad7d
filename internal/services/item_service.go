package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"cycup_backend/internal/logger"
	"cycup_backend/internal/models"
	"cycup_backend/internal/repositories"
	"cycup_backend/internal/services/dto"
	"cycup_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type ItemService interface {
	CreateItem(ctx context.Context, db *gorm.DB, ownerID string, in *dto.CreateItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, db *gorm.DB, itemID, ownerID string, in *dto.UpdateItemInput) (*models.Item, error)
	DeleteItem(ctx context.Context, db *gorm.DB, itemID, ownerID string) (*dto.DeleteItemResponse, error)
	MarkItemAsSold(ctx context.Context, db *gorm.DB, itemID, ownerID, buyerEmail string) (*models.Item, error)
	GetItem(ctx context.Context, db *gorm.DB, itemID string) (*models.Item, error)
}

type itemService struct {
	itemRepo   repositories.ItemRepository
	userRepo   repositories.UserRepository
	lookupRepo repositories.LookupRepository
	now        func() time.Time
}

func NewItemService(
	itemRepo repositories.ItemRepository,
	userRepo repositories.UserRepository,
	lookupRepo repositories.LookupRepository,
) ItemService {
	return &itemService{
		itemRepo:   itemRepo,
		userRepo:   userRepo,
		lookupRepo: lookupRepo,
		now:        time.Now,
	}
}

func (s *itemService) CreateItem(ctx context.Context, db *gorm.DB, ownerID string, in *dto.CreateItemInput) (*models.Item, error) {
	db = db.WithContext(ctx)

	if err := s.checkActor(db, ownerID); err != nil {
		return nil, err
	}
	if err := s.checkLookups(db, &in.CategoryID, &in.CityID); err != nil {
		return nil, err
	}

	prices := pricing{
		ItemType:     in.ItemType,
		SellingPrice: in.SellingPrice,
		LendingPrice: in.LendingPrice,
		RentUnit:     in.RentUnit,
	}
	if err := prices.validate(); err != nil {
		return nil, err
	}
	prices = prices.normalize()

	photos, err := buildPhotos(in.PhotoURLs, in.MainPhotoIndex)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(in.Title),
		CategoryID:   in.CategoryID,
		BrandName:    trimOptional(in.BrandName),
		Condition:    in.Condition,
		Description:  strings.TrimSpace(in.Description),
		Address:      strings.TrimSpace(in.Address),
		CityID:       in.CityID,
		ItemType:     prices.ItemType,
		SellingPrice: prices.SellingPrice,
		LendingPrice: prices.LendingPrice,
		RentUnit:     prices.RentUnit,
		Status:       models.ItemStatusPublished,
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.itemRepo.Create(tx, item); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.itemRepo.ReplacePhotos(tx, item.ID, photos); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "item created", "item_id", item.ID, "item_type", item.ItemType)
	return s.reload(db, item.ID)
}

// UpdateItem - менять можно только опубликованные объявления
func (s *itemService) UpdateItem(ctx context.Context, db *gorm.DB, itemID, ownerID string, in *dto.UpdateItemInput) (*models.Item, error) {
	db = db.WithContext(ctx)

	if err := s.checkActor(db, ownerID); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByID(db, itemID)
	if err != nil {
		return nil, handleItemError(err)
	}
	if item.OwnerID != ownerID {
		return nil, apperrors.ErrNotPermitted()
	}
	if item.Status != models.ItemStatusPublished {
		return nil, apperrors.ErrItemNotUpdatable()
	}

	if err := s.checkLookups(db, in.CategoryID, in.CityID); err != nil {
		return nil, err
	}

	existing := pricing{
		ItemType:     item.ItemType,
		SellingPrice: item.SellingPrice,
		LendingPrice: item.LendingPrice,
		RentUnit:     item.RentUnit,
	}
	incoming := pricing{
		SellingPrice: in.SellingPrice,
		LendingPrice: in.LendingPrice,
		RentUnit:     in.RentUnit,
	}
	if in.ItemType != nil {
		incoming.ItemType = *in.ItemType
	}
	merged := mergePricing(existing, incoming, in.ItemType != nil)
	if err := merged.validate(); err != nil {
		return nil, err
	}
	merged = merged.normalize()

	fields := map[string]interface{}{
		"item_type":     merged.ItemType,
		"selling_price": nullableFloat(merged.SellingPrice),
		"lending_price": nullableFloat(merged.LendingPrice),
		"rent_unit":     nullableRentUnit(merged.RentUnit),
	}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.CategoryID != nil {
		fields["category_id"] = *in.CategoryID
	}
	if in.BrandName != nil {
		fields["brand_name"] = strings.TrimSpace(*in.BrandName)
	}
	if in.Condition != nil {
		fields["condition"] = *in.Condition
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Address != nil {
		fields["address"] = strings.TrimSpace(*in.Address)
	}
	if in.CityID != nil {
		fields["city_id"] = *in.CityID
	}

	var photos []models.ItemPhoto
	if len(in.PhotoURLs) > 0 {
		if photos, err = buildPhotos(in.PhotoURLs, in.MainPhotoIndex); err != nil {
			return nil, err
		}
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.itemRepo.UpdateFields(tx, item.ID, fields); err != nil {
		return nil, handleItemError(err)
	}
	if len(photos) > 0 {
		if err := s.itemRepo.ReplacePhotos(tx, item.ID, photos); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "item updated", "item_id", item.ID)
	return s.reload(db, item.ID)
}

// DeleteItem - мягкое удаление, повторный вызов ничего не меняет
func (s *itemService) DeleteItem(ctx context.Context, db *gorm.DB, itemID, ownerID string) (*dto.DeleteItemResponse, error) {
	db = db.WithContext(ctx)

	item, err := s.itemRepo.FindByID(db, itemID)
	if err != nil {
		return nil, handleItemError(err)
	}
	if item.OwnerID != ownerID {
		return nil, apperrors.ErrNotPermitted()
	}
	if item.Status == models.ItemStatusDeleted {
		return &dto.DeleteItemResponse{Message: "Item already deleted", Deleted: false}, nil
	}

	if err := s.itemRepo.UpdateStatus(db, item.ID, models.ItemStatusDeleted); err != nil {
		return nil, handleItemError(err)
	}

	logger.CtxInfo(ctx, "item deleted", "item_id", item.ID)
	return &dto.DeleteItemResponse{Message: "Item deleted successfully", Deleted: true}, nil
}

func (s *itemService) MarkItemAsSold(ctx context.Context, db *gorm.DB, itemID, ownerID, buyerEmail string) (*models.Item, error) {
	db = db.WithContext(ctx)

	item, err := s.itemRepo.FindByID(db, itemID)
	if err != nil {
		return nil, handleItemError(err)
	}
	if item.IsDisabledByAdmin {
		return nil, apperrors.ErrItemNotFound()
	}
	if item.OwnerID != ownerID {
		return nil, apperrors.ErrNotPermitted()
	}
	switch item.Status {
	case models.ItemStatusSold:
		return nil, apperrors.ErrItemAlreadySold()
	case models.ItemStatusDeleted:
		return nil, apperrors.ErrItemNotFound()
	}

	buyer, err := s.userRepo.FindByEmail(db, buyerEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrBuyerNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	if buyer.ID == ownerID {
		return nil, apperrors.ErrBuyerIsOwner()
	}

	if err := s.itemRepo.MarkSold(db, item.ID, buyer.ID, s.now()); err != nil {
		if errors.Is(err, repositories.ErrItemNotTransitionable) {
			return nil, apperrors.ErrItemAlreadySold()
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "item marked as sold", "item_id", item.ID, "buyer_id", buyer.ID)
	return s.reload(db, item.ID)
}

// GetItem отдает только опубликованные объявления
func (s *itemService) GetItem(ctx context.Context, db *gorm.DB, itemID string) (*models.Item, error) {
	item, err := s.itemRepo.FindWithRelations(db.WithContext(ctx), itemID)
	if err != nil {
		return nil, handleItemError(err)
	}
	if item.Status != models.ItemStatusPublished || item.IsDisabledByAdmin {
		return nil, apperrors.ErrItemNotFound()
	}
	return item, nil
}

// checkActor: существует -> подтвержден -> не заблокирован
func (s *itemService) checkActor(db *gorm.DB, userID string) error {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotAuthorized()
		}
		return apperrors.InternalError(err)
	}
	if !user.IsVerified {
		return apperrors.ErrNotVerified()
	}
	if user.IsBlocked {
		return apperrors.ErrUserBlocked()
	}
	return nil
}

func (s *itemService) checkLookups(db *gorm.DB, categoryID, cityID *string) error {
	if categoryID != nil {
		if _, err := s.lookupRepo.FindCategory(db, *categoryID); err != nil {
			if errors.Is(err, repositories.ErrCategoryNotFound) {
				return apperrors.ErrInvalidCategory(*categoryID)
			}
			return apperrors.InternalError(err)
		}
	}
	if cityID != nil {
		if _, err := s.lookupRepo.FindCity(db, *cityID); err != nil {
			if errors.Is(err, repositories.ErrCityNotFound) {
				return apperrors.ErrInvalidCity(*cityID)
			}
			return apperrors.InternalError(err)
		}
	}
	return nil
}

func (s *itemService) reload(db *gorm.DB, itemID string) (*models.Item, error) {
	item, err := s.itemRepo.FindWithRelations(db, itemID)
	if err != nil {
		return nil, handleItemError(err)
	}
	return item, nil
}

// buildPhotos сохраняет порядок, главным становится фото с индексом mainIndex
func buildPhotos(urls []string, mainIndex int) ([]models.ItemPhoto, error) {
	if len(urls) > 0 && (mainIndex < 0 || mainIndex >= len(urls)) {
		return nil, apperrors.ValidationError(map[string]string{
			"mainPhotoIndex": "Must point to one of the uploaded photos",
		})
	}
	photos := make([]models.ItemPhoto, 0, len(urls))
	for i, url := range urls {
		photos = append(photos, models.ItemPhoto{
			PhotoURL:     url,
			IsMain:       i == mainIndex,
			DisplayOrder: i,
		})
	}
	return photos, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableRentUnit(v *models.RentUnit) interface{} {
	if v == nil {
		return nil
	}
	return string(*v)
}

func handleItemError(err error) error {
	if errors.Is(err, repositories.ErrItemNotFound) {
		return apperrors.ErrItemNotFound()
	}
	return apperrors.InternalError(err)
}
