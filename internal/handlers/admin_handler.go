package handlers

import (
	"net/http"

	"cycup_backend/internal/services"
	"cycup_backend/internal/services/dto"
	"cycup_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	*BaseHandler
	adminService services.AdminService
}

func NewAdminHandler(base *BaseHandler, adminService services.AdminService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  base,
		adminService: adminService,
	}
}

// RegisterRoutes ожидает группу /admin, уже закрытую AdminOnly
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/items/:itemId/disable", h.DisableItem)
	rg.DELETE("/items/:itemId", h.HardDeleteItem)
	rg.POST("/users/:userId/block", h.BlockUser)
	rg.POST("/users/:userId/unblock", h.UnblockUser)
}

func (h *AdminHandler) DisableItem(c *gin.Context) {
	itemID, ok := h.ParseUUIDParam(c, "itemId", apperrors.ErrItemNotFound)
	if !ok {
		return
	}

	resp, err := h.adminService.DisableItem(c.Request.Context(), h.GetDB(c), itemID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) HardDeleteItem(c *gin.Context) {
	itemID, ok := h.ParseUUIDParam(c, "itemId", apperrors.ErrItemNotFound)
	if !ok {
		return
	}

	resp, err := h.adminService.HardDeleteItem(c.Request.Context(), h.GetDB(c), itemID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) BlockUser(c *gin.Context) {
	userID, ok := h.ParseUUIDParam(c, "userId", apperrors.ErrUserNotFound)
	if !ok {
		return
	}

	var req dto.BlockUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.adminService.BlockUser(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) UnblockUser(c *gin.Context) {
	userID, ok := h.ParseUUIDParam(c, "userId", apperrors.ErrUserNotFound)
	if !ok {
		return
	}

	resp, err := h.adminService.UnblockUser(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
