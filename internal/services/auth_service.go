package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"cycup_backend/internal/config"
	"cycup_backend/internal/logger"
	"cycup_backend/internal/models"
	"cycup_backend/internal/repositories"
	"cycup_backend/internal/services/dto"
	"cycup_backend/pkg/apperrors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EmailDispatcher - очередь писем; сервис только ставит задачи
type EmailDispatcher interface {
	EnqueueVerificationEmail(ctx context.Context, email, pinCode string) error
	EnqueuePasswordResetEmail(ctx context.Context, email, resetToken string) error
}

type AuthConfig struct {
	TrustedDomains []string
	PinTTL         time.Duration
	SessionTTL     time.Duration
	ResetTokenTTL  time.Duration
	BcryptCost     int
	CookieName     string
}

func AuthConfigFrom(cfg *config.Config) AuthConfig {
	return AuthConfig{
		TrustedDomains: cfg.Auth.TrustedDomains,
		PinTTL:         time.Duration(cfg.Auth.PinTTLMinutes) * time.Minute,
		SessionTTL:     time.Duration(cfg.Auth.SessionTTLDays) * 24 * time.Hour,
		ResetTokenTTL:  time.Duration(cfg.Auth.ResetTokenTTLMins) * time.Minute,
		BcryptCost:     cfg.Auth.BcryptCost,
		CookieName:     cfg.Auth.CookieName,
	}
}

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Verify(ctx context.Context, db *gorm.DB, req *dto.VerifyRequest) (*dto.VerifyResponse, error)
	ResendVerificationPin(ctx context.Context, db *gorm.DB, req *dto.ResendPinRequest) (*dto.MessageResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResult, error)
	Logout(ctx context.Context, db *gorm.DB, sessionToken string) error
	RequestPasswordReset(ctx context.Context, db *gorm.DB, req *dto.PasswordResetRequest) (*dto.MessageResponse, error)
	ConfirmPasswordReset(ctx context.Context, db *gorm.DB, req *dto.PasswordResetConfirmRequest) (*dto.MessageResponse, error)
	ResolveSession(ctx context.Context, db *gorm.DB, token string, now time.Time) (*dto.SessionIdentity, error)
}

type authService struct {
	cfg         AuthConfig
	userRepo    repositories.UserRepository
	pinRepo     repositories.VerificationPinRepository
	sessionRepo repositories.SessionRepository
	resetRepo   repositories.PasswordResetRepository
	dispatcher  EmailDispatcher
	now         func() time.Time
}

func NewAuthService(
	cfg AuthConfig,
	userRepo repositories.UserRepository,
	pinRepo repositories.VerificationPinRepository,
	sessionRepo repositories.SessionRepository,
	resetRepo repositories.PasswordResetRepository,
	dispatcher EmailDispatcher,
) AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	return &authService{
		cfg:         cfg,
		userRepo:    userRepo,
		pinRepo:     pinRepo,
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// Register - новый пользователь с паролем PENDING и PIN для подтверждения
func (s *authService) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	db = db.WithContext(ctx)
	email := repositories.NormalizeEmail(req.Email)

	if !s.isTrustedDomain(email) {
		return nil, apperrors.ErrInvalidDomain()
	}

	exists, err := s.userRepo.ExistsByEmail(db, email)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if exists {
		return nil, apperrors.ErrUserAlreadyExists()
	}

	pinCode, err := generatePin()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: models.PendingPasswordHash,
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.userRepo.Create(tx, user); err != nil {
		return nil, apperrors.InternalError(err)
	}
	pin := &models.VerificationPin{
		UserID:    user.ID,
		PinCode:   pinCode,
		ExpiresAt: s.now().Add(s.cfg.PinTTL),
	}
	if err := s.pinRepo.Create(tx, pin); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Пользователь уже сохранен, ошибка очереди его не откатывает
	if err := s.dispatcher.EnqueueVerificationEmail(ctx, email, pinCode); err != nil {
		logger.CtxWithError(ctx, "failed to queue verification email", err, "email", logger.MaskEmail(email))
		return nil, apperrors.ErrEmailDispatchFailed(err, "Failed to queue verification email.")
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID)
	return &dto.RegisterResponse{
		Message: "Registration successful. Please check your email for verification PIN.",
		UserID:  user.ID,
	}, nil
}

// Verify подтверждает email и задает пароль
func (s *authService) Verify(ctx context.Context, db *gorm.DB, req *dto.VerifyRequest) (*dto.VerifyResponse, error) {
	db = db.WithContext(ctx)

	if req.Password != req.PasswordConfirmation {
		return nil, apperrors.ErrPasswordMismatch()
	}

	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		return nil, handleAuthError(err)
	}

	pin, err := s.pinRepo.FindByUserID(db, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrPinNotFound) {
			return nil, apperrors.ErrInvalidPin()
		}
		return nil, apperrors.InternalError(err)
	}
	if pin.ExpiresAt.Before(s.now()) || !pinMatches(pin.PinCode, req.PinCode) {
		return nil, apperrors.ErrInvalidPin()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	// Проигравший гонку параллельный verify не найдет PIN
	if err := s.pinRepo.Consume(tx, pin.ID); err != nil {
		if errors.Is(err, repositories.ErrPinNotFound) {
			return nil, apperrors.ErrInvalidPin()
		}
		return nil, apperrors.InternalError(err)
	}
	if err := s.userRepo.UpdateFields(tx, user.ID, map[string]interface{}{
		"password_hash": string(hash),
		"is_verified":   true,
	}); err != nil {
		return nil, handleAuthError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "user verified", "user_id", user.ID)
	return &dto.VerifyResponse{Message: "Email verified successfully", Verified: true}, nil
}

// ResendVerificationPin заменяет PIN ожидающего подтверждения пользователя
func (s *authService) ResendVerificationPin(ctx context.Context, db *gorm.DB, req *dto.ResendPinRequest) (*dto.MessageResponse, error) {
	db = db.WithContext(ctx)

	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		return nil, handleAuthError(err)
	}
	if user.IsVerified {
		return nil, apperrors.ErrAlreadyVerified()
	}

	pinCode, err := generatePin()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.pinRepo.DeleteByUserID(tx, user.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.pinRepo.Create(tx, &models.VerificationPin{
		UserID:    user.ID,
		PinCode:   pinCode,
		ExpiresAt: s.now().Add(s.cfg.PinTTL),
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.dispatcher.EnqueueVerificationEmail(ctx, user.Email, pinCode); err != nil {
		logger.CtxWithError(ctx, "failed to queue verification email", err, "email", logger.MaskEmail(user.Email))
		return nil, apperrors.ErrEmailDispatchFailed(err, "Failed to queue verification email.")
	}

	return &dto.MessageResponse{Message: "A new verification PIN has been sent to your email"}, nil
}

// Login: у пользователя остается ровно одна сессия
func (s *authService) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResult, error) {
	db = db.WithContext(ctx)

	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials()
		}
		return nil, apperrors.InternalError(err)
	}

	// Порядок важен: сначала верификация, потом пароль
	if !user.IsVerified {
		return nil, apperrors.ErrNotVerified()
	}
	if user.HasPendingPassword() {
		return nil, apperrors.ErrInvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials()
	}

	token, err := generateSecureToken()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	session := &models.Session{
		UserID:       user.ID,
		SessionToken: token,
		ExpiresAt:    s.now().Add(s.cfg.SessionTTL),
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.sessionRepo.DeleteByUserID(tx, user.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.sessionRepo.Create(tx, session); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "user logged in", "user_id", user.ID)
	return &dto.LoginResult{
		UserID:       user.ID,
		SessionToken: session.SessionToken,
		ExpiresAt:    session.ExpiresAt,
		CookieName:   s.cfg.CookieName,
	}, nil
}

// Logout идемпотентен: пустой или неизвестный токен не ошибка
func (s *authService) Logout(ctx context.Context, db *gorm.DB, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByToken(db.WithContext(ctx), sessionToken); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, db *gorm.DB, req *dto.PasswordResetRequest) (*dto.MessageResponse, error) {
	db = db.WithContext(ctx)

	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		return nil, handleAuthError(err)
	}

	token, err := generateSecureToken()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.resetRepo.DeleteByUserID(tx, user.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.resetRepo.Create(tx, &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: s.now().Add(s.cfg.ResetTokenTTL),
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.dispatcher.EnqueuePasswordResetEmail(ctx, user.Email, token); err != nil {
		logger.CtxWithError(ctx, "failed to queue password reset email", err, "email", logger.MaskEmail(user.Email))
		return nil, apperrors.ErrEmailDispatchFailed(err, "Failed to queue password reset email.")
	}

	return &dto.MessageResponse{Message: "Password reset link has been sent to your email"}, nil
}

// ConfirmPasswordReset - токен одноразовый, все сессии пользователя сбрасываются
func (s *authService) ConfirmPasswordReset(ctx context.Context, db *gorm.DB, req *dto.PasswordResetConfirmRequest) (*dto.MessageResponse, error) {
	db = db.WithContext(ctx)

	if req.NewPassword != req.PasswordConfirmation {
		return nil, apperrors.ErrPasswordMismatch()
	}

	resetToken, err := s.resetRepo.FindByToken(db, req.Token)
	if err != nil {
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			return nil, apperrors.ErrInvalidOrExpiredToken()
		}
		return nil, apperrors.InternalError(err)
	}
	if resetToken.Used || resetToken.ExpiresAt.Before(s.now()) {
		return nil, apperrors.ErrInvalidOrExpiredToken()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.resetRepo.MarkUsed(tx, resetToken.ID); err != nil {
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			return nil, apperrors.ErrInvalidOrExpiredToken()
		}
		return nil, apperrors.InternalError(err)
	}
	if err := s.userRepo.UpdateFields(tx, resetToken.UserID, map[string]interface{}{
		"password_hash": string(hash),
		"is_verified":   true,
	}); err != nil {
		return nil, handleAuthError(err)
	}
	if err := s.pinRepo.DeleteByUserID(tx, resetToken.UserID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.sessionRepo.DeleteByUserID(tx, resetToken.UserID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "password reset confirmed", "user_id", resetToken.UserID)
	return &dto.MessageResponse{Message: "Password reset successful"}, nil
}

// ResolveSession - просроченная сессия удаляется при первом обращении
func (s *authService) ResolveSession(ctx context.Context, db *gorm.DB, token string, now time.Time) (*dto.SessionIdentity, error) {
	if token == "" {
		return nil, apperrors.ErrNotAuthorized()
	}
	db = db.WithContext(ctx)

	session, err := s.sessionRepo.FindByToken(db, token)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, apperrors.ErrNotAuthorized()
		}
		return nil, apperrors.InternalError(err)
	}

	if session.IsExpired(now) {
		if err := s.sessionRepo.DeleteByToken(db, token); err != nil {
			logger.CtxWithError(ctx, "failed to delete expired session", err)
		}
		return nil, apperrors.ErrNotAuthorized()
	}

	return &dto.SessionIdentity{
		UserID:       session.UserID,
		SessionToken: session.SessionToken,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

func (s *authService) isTrustedDomain(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, trusted := range s.cfg.TrustedDomains {
		if domain == strings.ToLower(trusted) {
			return true
		}
	}
	return false
}

func pinMatches(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

func handleAuthError(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.ErrUserNotFound()
	}
	return apperrors.InternalError(err)
}
