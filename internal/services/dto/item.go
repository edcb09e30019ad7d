package dto

import (
	"strconv"
	"strings"
	"time"

	"cycup_backend/internal/models"
)

// CreateItemForm - текстовые поля multipart формы создания товара
type CreateItemForm struct {
	Title          string `form:"title" validate:"required,max=100"`
	CategoryID     string `form:"categoryId" validate:"required,uuid"`
	BrandName      string `form:"brandName" validate:"omitempty,max=100"`
	Condition      string `form:"condition" validate:"required,is-item-condition"`
	Description    string `form:"description" validate:"required,max=1000"`
	Address        string `form:"address" validate:"required,max=255"`
	CityID         string `form:"cityId" validate:"required,uuid"`
	ItemType       string `form:"itemType" validate:"required,is-item-type"`
	SellingPrice   string `form:"sellingPrice" validate:"omitempty,numeric"`
	LendingPrice   string `form:"lendingPrice" validate:"omitempty,numeric"`
	RentUnit       string `form:"rentUnit" validate:"omitempty,is-rent-unit"`
	MainPhotoIndex string `form:"mainPhotoIndex" validate:"required,numeric"`
}

// UpdateItemForm - nil значит "поле не передано"
type UpdateItemForm struct {
	Title          *string `form:"title" validate:"omitempty,max=100"`
	CategoryID     *string `form:"categoryId" validate:"omitempty,uuid"`
	BrandName      *string `form:"brandName" validate:"omitempty,max=100"`
	Condition      *string `form:"condition" validate:"omitempty,is-item-condition"`
	Description    *string `form:"description" validate:"omitempty,max=1000"`
	Address        *string `form:"address" validate:"omitempty,max=255"`
	CityID         *string `form:"cityId" validate:"omitempty,uuid"`
	ItemType       *string `form:"itemType" validate:"omitempty,is-item-type"`
	SellingPrice   *string `form:"sellingPrice" validate:"omitempty,numeric"`
	LendingPrice   *string `form:"lendingPrice" validate:"omitempty,numeric"`
	RentUnit       *string `form:"rentUnit" validate:"omitempty,is-rent-unit"`
	MainPhotoIndex *string `form:"mainPhotoIndex" validate:"omitempty,numeric"`
}

type CreateItemInput struct {
	Title          string
	CategoryID     string
	BrandName      *string
	Condition      models.ItemCondition
	Description    string
	Address        string
	CityID         string
	ItemType       models.ItemType
	SellingPrice   *float64
	LendingPrice   *float64
	RentUnit       *models.RentUnit
	PhotoURLs      []string
	MainPhotoIndex int
}

// UpdateItemInput - пустой PhotoURLs оставляет фото как есть
type UpdateItemInput struct {
	Title          *string
	CategoryID     *string
	BrandName      *string
	Condition      *models.ItemCondition
	Description    *string
	Address        *string
	CityID         *string
	ItemType       *models.ItemType
	SellingPrice   *float64
	LendingPrice   *float64
	RentUnit       *models.RentUnit
	PhotoURLs      []string
	MainPhotoIndex int
}

// Normalize обрезает пробелы до валидации
func (f *CreateItemForm) Normalize() {
	for _, s := range []*string{
		&f.Title, &f.CategoryID, &f.BrandName, &f.Condition, &f.Description, &f.Address,
		&f.CityID, &f.ItemType, &f.SellingPrice, &f.LendingPrice, &f.RentUnit, &f.MainPhotoIndex,
	} {
		*s = strings.TrimSpace(*s)
	}
}

// Normalize обрезает пробелы; пустое значение считается непереданным
func (f *UpdateItemForm) Normalize() {
	for _, s := range []**string{
		&f.Title, &f.CategoryID, &f.BrandName, &f.Condition, &f.Description, &f.Address,
		&f.CityID, &f.ItemType, &f.SellingPrice, &f.LendingPrice, &f.RentUnit, &f.MainPhotoIndex,
	} {
		if *s == nil {
			continue
		}
		trimmed := strings.TrimSpace(**s)
		if trimmed == "" {
			*s = nil
			continue
		}
		*s = &trimmed
	}
}

// ToInput переводит провалидированную форму в вход сервиса.
// Второе значение - ошибки полей, которые не выразить тегами validate.
func (f *CreateItemForm) ToInput() (*CreateItemInput, map[string]string) {
	fieldErrors := map[string]string{}

	in := &CreateItemInput{
		Title:       f.Title,
		CategoryID:  f.CategoryID,
		BrandName:   optionalString(f.BrandName),
		Condition:   models.ItemCondition(f.Condition),
		Description: f.Description,
		Address:     f.Address,
		CityID:      f.CityID,
		ItemType:    models.ItemType(f.ItemType),
	}
	in.SellingPrice = parsePrice(f.SellingPrice, "sellingPrice", fieldErrors)
	in.LendingPrice = parsePrice(f.LendingPrice, "lendingPrice", fieldErrors)
	if f.RentUnit != "" {
		unit := models.RentUnit(f.RentUnit)
		in.RentUnit = &unit
	}
	in.MainPhotoIndex = parseIndex(f.MainPhotoIndex, fieldErrors)

	if len(fieldErrors) > 0 {
		return nil, fieldErrors
	}
	return in, nil
}

func (f *UpdateItemForm) ToInput() (*UpdateItemInput, map[string]string) {
	fieldErrors := map[string]string{}

	in := &UpdateItemInput{
		Title:       f.Title,
		CategoryID:  f.CategoryID,
		BrandName:   f.BrandName,
		Description: f.Description,
		Address:     f.Address,
		CityID:      f.CityID,
	}
	if f.Condition != nil {
		condition := models.ItemCondition(*f.Condition)
		in.Condition = &condition
	}
	if f.ItemType != nil {
		itemType := models.ItemType(*f.ItemType)
		in.ItemType = &itemType
	}
	if f.SellingPrice != nil {
		in.SellingPrice = parsePrice(*f.SellingPrice, "sellingPrice", fieldErrors)
	}
	if f.LendingPrice != nil {
		in.LendingPrice = parsePrice(*f.LendingPrice, "lendingPrice", fieldErrors)
	}
	if f.RentUnit != nil {
		unit := models.RentUnit(*f.RentUnit)
		in.RentUnit = &unit
	}
	if f.MainPhotoIndex != nil {
		in.MainPhotoIndex = parseIndex(*f.MainPhotoIndex, fieldErrors)
	}

	if len(fieldErrors) > 0 {
		return nil, fieldErrors
	}
	return in, nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parsePrice(raw, field string, fieldErrors map[string]string) *float64 {
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fieldErrors[field] = "Must be a number"
		return nil
	}
	if value <= 0 {
		fieldErrors[field] = "Must be greater than 0"
		return nil
	}
	return &value
}

func parseIndex(raw string, fieldErrors map[string]string) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		fieldErrors["mainPhotoIndex"] = "Must be a non-negative integer"
		return 0
	}
	return value
}

type MarkSoldRequest struct {
	BuyerEmail string `json:"buyerEmail" validate:"required,email"`
}

type ItemPhotoResponse struct {
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

type ItemResponse struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	CategoryID   string              `json:"categoryId"`
	Category     *string             `json:"category"`
	BrandName    *string             `json:"brandName"`
	Condition    string              `json:"condition"`
	Description  string              `json:"description"`
	Address      string              `json:"address"`
	CityID       string              `json:"cityId"`
	City         *string             `json:"city"`
	ItemType     string              `json:"itemType"`
	SellingPrice *float64            `json:"sellingPrice"`
	LendingPrice *float64            `json:"lendingPrice"`
	RentUnit     *string             `json:"rentUnit"`
	Photos       []ItemPhotoResponse `json:"photos"`
	Status       string              `json:"status"`
	SoldAt       *time.Time          `json:"soldAt"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// NewItemResponse; resolveURL превращает сохраненный путь в абсолютный URL (может быть nil)
func NewItemResponse(item *models.Item, resolveURL func(string) string) *ItemResponse {
	resp := &ItemResponse{
		ID:           item.ID,
		Title:        item.Title,
		CategoryID:   item.CategoryID,
		BrandName:    item.BrandName,
		Condition:    string(item.Condition),
		Description:  item.Description,
		Address:      item.Address,
		CityID:       item.CityID,
		ItemType:     string(item.ItemType),
		SellingPrice: item.SellingPrice,
		LendingPrice: item.LendingPrice,
		Photos:       make([]ItemPhotoResponse, 0, len(item.Photos)),
		Status:       string(item.Status),
		SoldAt:       item.SoldAt,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	if item.Category != nil {
		resp.Category = &item.Category.Name
	}
	if item.City != nil {
		resp.City = &item.City.Name
	}
	if item.RentUnit != nil {
		unit := string(*item.RentUnit)
		resp.RentUnit = &unit
	}
	for _, photo := range item.Photos {
		url := photo.PhotoURL
		if resolveURL != nil {
			url = resolveURL(url)
		}
		resp.Photos = append(resp.Photos, ItemPhotoResponse{URL: url, IsMain: photo.IsMain})
	}
	return resp
}

type DeleteItemResponse struct {
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}
