package routes

import (
	"cycup_backend/internal/handlers"
	"cycup_backend/internal/logger"

	_ "cycup_backend/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RateLimits - middleware лимитов по группам маршрутов
type RateLimits struct {
	Auth  gin.HandlerFunc
	Read  gin.HandlerFunc
	Write gin.HandlerFunc
	Admin gin.HandlerFunc
}

type Options struct {
	SessionGuard gin.HandlerFunc
	AdminOnly    gin.HandlerFunc
	Limits       RateLimits
	Swagger      bool
}

// RegisterRoutes регистрирует все HTTP маршруты.
// Порядок в каждой группе: лимит -> сессия -> (админ) -> хэндлер.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers, opts Options) {
	guard := orPass(opts.SessionGuard)

	api := ginRouter.Group("/api/v1", guard)
	appHandlers.HealthHandler.RegisterRoutes(api)

	authAPI := ginRouter.Group("/api/v1", orPass(opts.Limits.Auth), guard)
	appHandlers.AuthHandler.RegisterRoutes(authAPI)

	readAPI := ginRouter.Group("/api/v1", orPass(opts.Limits.Read), guard)
	writeAPI := ginRouter.Group("/api/v1", orPass(opts.Limits.Write), guard)
	appHandlers.ProfileHandler.RegisterRoutes(readAPI)
	appHandlers.ItemHandler.RegisterRoutes(readAPI, writeAPI)

	adminAPI := ginRouter.Group("/api/v1/admin", orPass(opts.Limits.Admin), guard, orPass(opts.AdminOnly))
	appHandlers.AdminHandler.RegisterRoutes(adminAPI)

	if opts.Swagger {
		ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		logger.Info("Swagger UI registered", "path", "/swagger/index.html")
	}
}

func orPass(h gin.HandlerFunc) gin.HandlerFunc {
	if h != nil {
		return h
	}
	return func(c *gin.Context) { c.Next() }
}
