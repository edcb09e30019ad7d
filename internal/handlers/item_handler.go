package handlers

import (
	"mime/multipart"
	"net/http"

	"cycup_backend/internal/models"
	"cycup_backend/internal/services"
	"cycup_backend/internal/services/dto"
	"cycup_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const photosField = "photos"

type ItemHandler struct {
	*BaseHandler
	itemService  services.ItemService
	photoService services.PhotoService
}

func NewItemHandler(base *BaseHandler, itemService services.ItemService, photoService services.PhotoService) *ItemHandler {
	return &ItemHandler{
		BaseHandler:  base,
		itemService:  itemService,
		photoService: photoService,
	}
}

// RegisterRoutes: чтение и запись живут в разных группах из-за разных лимитов
func (h *ItemHandler) RegisterRoutes(read, write *gin.RouterGroup) {
	read.GET("/items/:itemId", h.GetItem)

	write.POST("/items", h.CreateItem)
	write.PUT("/items/:itemId", h.UpdateItem)
	write.DELETE("/items/:itemId", h.DeleteItem)
	write.POST("/items/:itemId/mark-sold", h.MarkAsSold)
}

func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, ok := h.ParseUUIDParam(c, "itemId", apperrors.ErrItemNotFound)
	if !ok {
		return
	}

	item, err := h.itemService.GetItem(c.Request.Context(), h.GetDB(c), itemID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(c, item))
}

// CreateItem godoc
// @Summary Создать объявление
// @Tags items
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Название"
// @Param categoryId formData string true "Категория"
// @Param condition formData string true "new | used"
// @Param itemType formData string true "selling | lending | giveaway"
// @Param photos formData file true "1-3 фото (jpeg/png)"
// @Success 201 {object} dto.ItemResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/items [post]
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var form dto.CreateItemForm
	if !h.BindAndValidate_Form(c, &form) {
		return
	}
	input, fieldErrors := form.ToInput()
	if fieldErrors != nil {
		apperrors.HandleError(c, apperrors.ValidationError(fieldErrors))
		return
	}

	ctx := c.Request.Context()
	photos, err := h.photoService.StorePhotos(ctx, h.photoFiles(c), 1)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	input.PhotoURLs = photoURLs(photos)

	item, err := h.itemService.CreateItem(ctx, h.GetDB(c), userID, input)
	if err != nil {
		h.photoService.DiscardPhotos(ctx, photos)
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toResponse(c, item))
}

// UpdateItem - без новых фото старые остаются
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	itemID, ok := h.ParseUUIDParam(c, "itemId", apperrors.ErrItemNotFound)
	if !ok {
		return
	}

	var form dto.UpdateItemForm
	if !h.BindAndValidate_Form(c, &form) {
		return
	}
	input, fieldErrors := form.ToInput()
	if fieldErrors != nil {
		apperrors.HandleError(c, apperrors.ValidationError(fieldErrors))
		return
	}

	ctx := c.Request.Context()
	photos, err := h.photoService.StorePhotos(ctx, h.photoFiles(c), 0)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	input.PhotoURLs = photoURLs(photos)

	item, err := h.itemService.UpdateItem(ctx, h.GetDB(c), itemID, userID, input)
	if err != nil {
		h.photoService.DiscardPhotos(ctx, photos)
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(c, item))
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	itemID, ok := h.ParseUUIDParam(c, "itemId", apperrors.ErrItemNotFound)
	if !ok {
		return
	}

	resp, err := h.itemService.DeleteItem(c.Request.Context(), h.GetDB(c), itemID, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) MarkAsSold(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	itemID, ok := h.ParseUUIDParam(c, "itemId", apperrors.ErrItemNotFound)
	if !ok {
		return
	}

	var req dto.MarkSoldRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	item, err := h.itemService.MarkItemAsSold(c.Request.Context(), h.GetDB(c), itemID, userID, req.BuyerEmail)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(c, item))
}

func (h *ItemHandler) photoFiles(c *gin.Context) []*multipart.FileHeader {
	if c.Request.MultipartForm == nil {
		return nil
	}
	return c.Request.MultipartForm.File[photosField]
}

func (h *ItemHandler) toResponse(c *gin.Context, item *models.Item) *dto.ItemResponse {
	return dto.NewItemResponse(item, func(raw string) string {
		return AbsoluteURL(c, raw)
	})
}

func photoURLs(photos []services.StoredPhoto) []string {
	urls := make([]string, 0, len(photos))
	for _, photo := range photos {
		urls = append(urls, photo.URL)
	}
	return urls
}
