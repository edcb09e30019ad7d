package middleware

import (
	"net/http"
	"strings"
	"time"

	"cycup_backend/internal/logger"
	"cycup_backend/internal/services"
	"cycup_backend/pkg/apperrors"
	"cycup_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const apiPrefix = "/api/v1"

// Пути (относительно /api/v1), доступные без сессии
var publicPaths = map[string]bool{
	"/health":                      true,
	"/auth/register":               true,
	"/auth/verify":                 true,
	"/auth/verify/resend":          true,
	"/auth/login":                  true,
	"/auth/logout":                 true,
	"/auth/password/reset":         true,
	"/auth/password/reset/confirm": true,
}

// IsPublicPath принимает полный путь запроса
func IsPublicPath(path string) bool {
	rel := strings.TrimPrefix(path, apiPrefix)
	if rel != "/" {
		rel = strings.TrimRight(rel, "/")
	}
	return publicPaths[rel]
}

// SessionGuard пускает дальше только запросы с живой сессией в cookie
func SessionGuard(authService services.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || IsPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := ParseCookies(c.GetHeader("Cookie"))[cookieName]
		if token == "" {
			apperrors.HandleError(c, apperrors.ErrNotAuthorized())
			return
		}

		identity, err := authService.ResolveSession(c.Request.Context(), dbFromContext(c), token, time.Now())
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.Set(contextkeys.UserIDKey, identity.UserID)
		c.Set(contextkeys.SessionTokenKey, identity.SessionToken)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), identity.UserID))
		c.Next()
	}
}

// AdminOnly ставится после SessionGuard
func AdminOnly(adminService services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(contextkeys.UserIDKey)
		if userID == "" {
			apperrors.HandleError(c, apperrors.ErrNotAuthorized())
			return
		}

		isAdmin, err := adminService.IsAdmin(c.Request.Context(), dbFromContext(c), userID)
		if err != nil {
			if apperrors.HasCode(err, apperrors.CodeNotFound) {
				apperrors.HandleError(c, apperrors.ErrNotAuthorized())
				return
			}
			apperrors.HandleError(c, err)
			return
		}
		if !isAdmin {
			logger.CtxWarn(c.Request.Context(), "non-admin tried to access admin route", "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ErrNotPermitted())
			return
		}
		c.Next()
	}
}

func dbFromContext(c *gin.Context) *gorm.DB {
	val, _ := c.Get(string(contextkeys.DBContextKey))
	db, ok := val.(*gorm.DB)
	if !ok {
		panic("critical error: DBMiddleware did not set the db key")
	}
	return db
}
