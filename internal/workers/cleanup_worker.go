package workers

import (
	"context"
	"time"

	"cycup_backend/internal/logger"
	"cycup_backend/internal/repositories"

	"gorm.io/gorm"
)

const cleanupWorkerName = "cleanup"

// CleanupWorker удаляет просроченные сессии и токены сброса пароля.
// SessionGuard и так удаляет просроченную сессию при обращении,
// воркер убирает те, к которым больше никто не обращается.
type CleanupWorker struct {
	db          *gorm.DB
	sessionRepo repositories.SessionRepository
	resetRepo   repositories.PasswordResetRepository
	interval    time.Duration
	now         func() time.Time
}

func NewCleanupWorker(
	db *gorm.DB,
	sessionRepo repositories.SessionRepository,
	resetRepo repositories.PasswordResetRepository,
	interval time.Duration,
) *CleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupWorker{
		db:          db,
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		interval:    interval,
		now:         time.Now,
	}
}

// Start запускает фоновую очистку
func (w *CleanupWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *CleanupWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce возвращает число удаленных сессий и токенов
func (w *CleanupWorker) RunOnce(ctx context.Context) (int64, int64) {
	db := w.db.WithContext(ctx)
	now := w.now()

	sessions, err := w.sessionRepo.DeleteExpired(db, now)
	if err != nil {
		logger.WorkerLog(cleanupWorkerName, "expired_sessions", err)
	}
	tokens, err := w.resetRepo.DeleteExpired(db, now)
	if err != nil {
		logger.WorkerLog(cleanupWorkerName, "expired_reset_tokens", err)
	}

	if sessions > 0 || tokens > 0 {
		logger.WorkerLog(cleanupWorkerName, "purge", nil, "sessions", sessions, "reset_tokens", tokens)
	}
	return sessions, tokens
}
