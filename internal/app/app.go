package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cycup_backend/internal/config"
	"cycup_backend/internal/database"
	"cycup_backend/internal/email"
	"cycup_backend/internal/handlers"
	"cycup_backend/internal/logger"
	"cycup_backend/internal/middleware"
	"cycup_backend/internal/queue"
	"cycup_backend/internal/repositories"
	"cycup_backend/internal/routes"
	"cycup_backend/internal/services"
	"cycup_backend/internal/storage"
	"cycup_backend/internal/validator"
	"cycup_backend/internal/workers"
	"cycup_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Deps - внешние ресурсы, которые открываются при старте и закрываются при остановке
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *database.Redis // nil - без лимитов и очереди
	Storage    storage.Storage
	Dispatcher services.EmailDispatcher
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	errorLog, errorLogCloser, err := logger.OpenErrorLog(cfg.Log.ErrorLogPath)
	if err != nil {
		logger.Fatal("Failed to open error log", "path", cfg.Log.ErrorLogPath, "error", err)
	}
	defer errorLogCloser.Close()
	apperrors.SetDefaultHandler(&apperrors.GinErrorHandler{
		Debug:    !cfg.IsProduction(),
		ErrorLog: errorLog,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB := openDatabase(cfg)
	defer func() {
		if err := database.Close(gormDB); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	rdb := openRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	storageInstance, err := storage.NewStorage(storage.ConfigFrom(cfg))
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	var dispatcher services.EmailDispatcher
	if rdb != nil {
		dispatcher = newEmailQueue(cfg, rdb)
	} else {
		logger.Warn("Redis is not configured: emails are sent inline and rate limiting is disabled")
		mailer, provider := newMailer(cfg)
		defer provider.Close()
		dispatcher = &inlineDispatcher{mailer: mailer}
	}

	ginRouter := SetupRouter(Deps{
		Config:     cfg,
		DB:         gormDB,
		Redis:      rdb,
		Storage:    storageInstance,
		Dispatcher: dispatcher,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	newCleanupWorker(gormDB).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	logger.Info("Server stopped")
}

// RunWorker - отдельный процесс доставки писем из очереди
func RunWorker() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)

	rdb := openRedis(cfg)
	if rdb == nil {
		logger.Fatal("Email worker requires Redis (REDIS_ADDR)")
	}
	defer rdb.Close()

	mailer, provider := newMailer(cfg)
	defer provider.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	newEmailQueueWorker(cfg, rdb, mailer).Run(ctx)
}

// SetupRouter собирает репозитории, сервисы, хэндлеры и маршруты.
// Используется и в Run, и в тестах.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config

	// 1. Инициализируем сервисы
	serviceContainer := initializeServices(deps)

	// 2. Инициализируем хэндлеры
	appHandlers := initializeHandlers(cfg, serviceContainer, deps.Redis)

	// 3. Инициализируем Gin
	ginRouter := initializeGinRouter(cfg, deps.DB)

	if local, ok := deps.Storage.(*storage.LocalStorage); ok && local.BaseURL() != "" {
		ginRouter.Static(local.BaseURL(), local.BasePath())
	}

	// 4. Регистрация маршрутов
	routes.RegisterRoutes(ginRouter, appHandlers, routes.Options{
		SessionGuard: middleware.SessionGuard(serviceContainer.AuthService, cfg.Auth.CookieName),
		AdminOnly:    middleware.AdminOnly(serviceContainer.AdminService),
		Limits: routes.RateLimits{
			Auth:  middleware.RateLimit(deps.Redis, "auth", cfg.RateLimit.Auth),
			Read:  middleware.RateLimit(deps.Redis, "read", cfg.RateLimit.Read),
			Write: middleware.RateLimit(deps.Redis, "write", cfg.RateLimit.Write),
			Admin: middleware.RateLimit(deps.Redis, "admin", cfg.RateLimit.Admin),
		},
		Swagger: !cfg.IsProduction(),
	})

	return ginRouter
}

func initializeServices(deps Deps) *services.ServiceContainer {
	cfg := deps.Config

	// --- Инициализация репозиториев ---
	userRepo := repositories.NewUserRepository()
	pinRepo := repositories.NewVerificationPinRepository()
	sessionRepo := repositories.NewSessionRepository()
	resetRepo := repositories.NewPasswordResetRepository()
	itemRepo := repositories.NewItemRepository()
	lookupRepo := repositories.NewLookupRepository()

	// --- Инициализация сервисов ---
	return &services.ServiceContainer{
		AuthService: services.NewAuthService(
			services.AuthConfigFrom(cfg),
			userRepo, pinRepo, sessionRepo, resetRepo,
			deps.Dispatcher,
		),
		ItemService:  services.NewItemService(itemRepo, userRepo, lookupRepo),
		PhotoService: services.NewPhotoService(deps.Storage, services.PhotoConfigFrom(cfg)),
		UserService:  services.NewUserService(userRepo),
		AdminService: services.NewAdminService(itemRepo, userRepo, sessionRepo),
	}
}

func initializeHandlers(cfg *config.Config, svc *services.ServiceContainer, rdb *database.Redis) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, svc.AuthService, handlers.CookieConfigFrom(cfg)),
		ItemHandler:    handlers.NewItemHandler(baseHandler, svc.ItemService, svc.PhotoService),
		ProfileHandler: handlers.NewProfileHandler(baseHandler, svc.UserService),
		AdminHandler:   handlers.NewAdminHandler(baseHandler, svc.AdminService),
		HealthHandler:  handlers.NewHealthHandler(baseHandler, rdb),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxSize * int64(cfg.Upload.MaxFiles+1)
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.DBMiddleware(db))
	return router
}

func openDatabase(cfg *config.Config) *gorm.DB {
	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(gormDB); err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}
	}
	if err := database.SeedLookups(gormDB); err != nil {
		logger.Fatal("Failed to seed lookup tables", "error", err)
	}
	if err := database.SeedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}
	return gormDB
}

func openRedis(cfg *config.Config) *database.Redis {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb, err := database.NewRedis(cfg)
	if err != nil {
		logger.Fatal("Redis unavailable", "addr", cfg.Redis.Addr, "error", err)
	}
	logger.Info("Redis connected", "addr", cfg.Redis.Addr)
	return rdb
}

func newEmailQueue(cfg *config.Config, rdb *database.Redis) *queue.EmailQueue {
	return queue.NewEmailQueue(rdb.Client(), queue.Options{
		MaxAttempts: cfg.Email.MaxAttempts,
		Backoff:     time.Duration(cfg.Email.BackoffSec) * time.Second,
	})
}

func newEmailQueueWorker(cfg *config.Config, rdb *database.Redis, mailer *email.Mailer) *workers.EmailWorker {
	return workers.NewEmailWorker(newEmailQueue(cfg, rdb), mailer)
}

func newCleanupWorker(db *gorm.DB) *workers.CleanupWorker {
	return workers.NewCleanupWorker(db, repositories.NewSessionRepository(), repositories.NewPasswordResetRepository(), time.Hour)
}

func newMailer(cfg *config.Config) (*email.Mailer, email.Provider) {
	var provider email.Provider = &LogEmailProvider{}

	smtpCfg := email.SMTPConfigFrom(cfg)
	if smtpCfg.Configured() {
		smtpProvider, err := email.NewSMTPProvider(smtpCfg)
		if err != nil {
			logger.Fatal("Invalid SMTP configuration", "error", err)
		}
		provider = smtpProvider
	} else {
		logger.Warn("SMTP is not configured, emails will only be logged")
	}

	mailer := email.NewMailer(
		provider,
		cfg.Frontend.URL,
		time.Duration(cfg.Auth.PinTTLMinutes)*time.Minute,
		time.Duration(cfg.Auth.ResetTokenTTLMins)*time.Minute,
	)
	return mailer, provider
}
