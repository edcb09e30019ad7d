package workers

import (
	"context"
	"testing"
	"time"

	"cycup_backend/internal/models"
	"cycup_backend/internal/repositories"
	"cycup_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupWorker_RunOnce(t *testing.T) {
	// Arrange
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "me@abo.fi", "password123")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.Session{UserID: user.ID, SessionToken: "old", ExpiresAt: now.Add(-48 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Session{UserID: user.ID, SessionToken: "live", ExpiresAt: now.Add(48 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.PasswordResetToken{UserID: user.ID, Token: "stale", ExpiresAt: now.Add(-48 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.PasswordResetToken{UserID: user.ID, Token: "fresh", ExpiresAt: now.Add(48 * time.Hour)}).Error)

	w := NewCleanupWorker(db, repositories.NewSessionRepository(), repositories.NewPasswordResetRepository(), 0)
	w.now = func() time.Time { return now }

	// Act
	sessions, tokens := w.RunOnce(context.Background())

	// Assert
	assert.Equal(t, int64(1), sessions)
	assert.Equal(t, int64(1), tokens)

	var left []models.Session
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "live", left[0].SessionToken)

	again, _ := w.RunOnce(context.Background())
	assert.Zero(t, again)
}
