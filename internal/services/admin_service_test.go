package services

import (
	"context"
	"net/http"
	"testing"

	"cycup_backend/internal/models"
	"cycup_backend/internal/repositories"
	"cycup_backend/internal/services/dto"
	"cycup_backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdminService() AdminService {
	return NewAdminService(
		repositories.NewItemRepository(),
		repositories.NewUserRepository(),
		repositories.NewSessionRepository(),
	)
}

func TestBlockUser_PurgesSessions(t *testing.T) {
	// Arrange
	db := testutil.NewTestDB(t)
	auth := newTestAuthService(testutil.NewFakeDispatcher())
	admin := newTestAdminService()
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "spammer@abo.fi", "password123")
	login, err := auth.Login(ctx, db, &dto.LoginRequest{Email: "spammer@abo.fi", Password: "password123"})
	require.NoError(t, err)

	// Act
	resp, err := admin.BlockUser(ctx, db, user.ID, &dto.BlockUserRequest{Reason: "  spam  "})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "User blocked successfully", resp.Message)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.True(t, stored.IsBlocked)
	require.NotNil(t, stored.BlockReason)
	assert.Equal(t, "spam", *stored.BlockReason)

	_, err = auth.ResolveSession(ctx, db, login.SessionToken, login.ExpiresAt.Add(-1))
	requireAppError(t, err, http.StatusUnauthorized)

	// разблокировка
	_, err = admin.UnblockUser(ctx, db, user.ID)
	require.NoError(t, err)
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.False(t, stored.IsBlocked)
	assert.Nil(t, stored.BlockReason)
}

func TestBlockUser_UnknownUser(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := newTestAdminService().BlockUser(context.Background(), db, uuid.NewString(), &dto.BlockUserRequest{Reason: "spam"})

	requireAppError(t, err, http.StatusNotFound)
}

func TestDisableItem(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	item := testutil.CreateItem(t, db, owner)
	ctx := context.Background()

	_, err := newTestAdminService().DisableItem(ctx, db, item.ID)
	require.NoError(t, err)

	var stored models.Item
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, models.ItemStatusDisabled, stored.Status)
	assert.True(t, stored.IsDisabledByAdmin)

	_, err = newTestItemService().GetItem(ctx, db, item.ID)
	requireAppError(t, err, http.StatusNotFound)
}

func TestHardDeleteItem(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@abo.fi", "password123")
	item := testutil.CreateItem(t, db, owner)
	admin := newTestAdminService()
	ctx := context.Background()

	_, err := admin.HardDeleteItem(ctx, db, item.ID)
	require.NoError(t, err)

	var items, photos int64
	db.Model(&models.Item{}).Count(&items)
	db.Model(&models.ItemPhoto{}).Count(&photos)
	assert.Zero(t, items)
	assert.Zero(t, photos)

	_, err = admin.HardDeleteItem(ctx, db, item.ID)
	requireAppError(t, err, http.StatusNotFound)
}

func TestIsAdmin(t *testing.T) {
	db := testutil.NewTestDB(t)
	admin := testutil.CreateUser(t, db, "admin@abo.fi", "password123", testutil.Admin())
	user := testutil.CreateUser(t, db, "user@abo.fi", "password123")
	svc := newTestAdminService()
	ctx := context.Background()

	isAdmin, err := svc.IsAdmin(ctx, db, admin.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = svc.IsAdmin(ctx, db, user.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestGetProfile(t *testing.T) {
	db := testutil.NewTestDB(t)
	city := testutil.FirstCity(t, db)
	user := testutil.CreateUser(t, db, "me@abo.fi", "password123", func(u *models.User) {
		u.Name = "Aino"
		u.CityID = &city.ID
	})
	svc := NewUserService(repositories.NewUserRepository())

	profile, err := svc.GetProfile(context.Background(), db, user.ID)

	require.NoError(t, err)
	assert.Equal(t, "me@abo.fi", profile.Email)
	assert.Equal(t, "Aino", profile.Name)
	require.NotNil(t, profile.City)
	assert.Equal(t, city.Name, *profile.City)

	_, err = svc.GetProfile(context.Background(), db, uuid.NewString())
	requireAppError(t, err, http.StatusNotFound)
}
