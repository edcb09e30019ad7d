package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cycup_backend/internal/repositories"
	"cycup_backend/internal/services"
	"cycup_backend/internal/services/dto"
	"cycup_backend/internal/testutil"
	"cycup_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type guardFixture struct {
	db     *gorm.DB
	auth   services.AuthService
	router *gin.Engine
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	userRepo := repositories.NewUserRepository()
	sessionRepo := repositories.NewSessionRepository()
	auth := services.NewAuthService(
		services.AuthConfig{TrustedDomains: []string{"abo.fi"}, SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost, CookieName: "session"},
		userRepo,
		repositories.NewVerificationPinRepository(),
		sessionRepo,
		repositories.NewPasswordResetRepository(),
		testutil.NewFakeDispatcher(),
	)
	admin := services.NewAdminService(repositories.NewItemRepository(), userRepo, sessionRepo)

	r := gin.New()
	r.Use(DBMiddleware(db))
	api := r.Group("/api/v1", SessionGuard(auth, "session"))
	api.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/profile/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(contextkeys.UserIDKey))
	})
	api.GET("/admin/ping", AdminOnly(admin), func(c *gin.Context) { c.Status(http.StatusOK) })

	return &guardFixture{db: db, auth: auth, router: r}
}

func (f *guardFixture) login(t *testing.T, email string) *dto.LoginResult {
	t.Helper()
	res, err := f.auth.Login(context.Background(), f.db, &dto.LoginRequest{Email: email, Password: "password123"})
	require.NoError(t, err)
	return res
}

func (f *guardFixture) get(path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestSessionGuard(t *testing.T) {
	f := newGuardFixture(t)
	user := testutil.CreateUser(t, f.db, "me@abo.fi", "password123")
	login := f.login(t, "me@abo.fi")

	t.Run("публичный путь без cookie", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, f.get("/api/v1/health", "").Code)
	})

	t.Run("без cookie", func(t *testing.T) {
		w := f.get("/api/v1/profile/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Not authorized to take this action.")
	})

	t.Run("неизвестный токен", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, f.get("/api/v1/profile/me", "session=garbage").Code)
	})

	t.Run("живая сессия среди других cookie", func(t *testing.T) {
		w := f.get("/api/v1/profile/me", "theme=dark; session="+login.SessionToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, user.ID, w.Body.String())
	})
}

func TestAdminOnly(t *testing.T) {
	f := newGuardFixture(t)
	testutil.CreateUser(t, f.db, "admin@abo.fi", "password123", testutil.Admin())
	testutil.CreateUser(t, f.db, "user@abo.fi", "password123")

	adminLogin := f.login(t, "admin@abo.fi")
	userLogin := f.login(t, "user@abo.fi")

	assert.Equal(t, http.StatusOK, f.get("/api/v1/admin/ping", "session="+adminLogin.SessionToken).Code)
	assert.Equal(t, http.StatusForbidden, f.get("/api/v1/admin/ping", "session="+userLogin.SessionToken).Code)
	assert.Equal(t, http.StatusUnauthorized, f.get("/api/v1/admin/ping", "").Code)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := httptest.NewRequest(http.MethodOptions, "/x", nil)
	preflight.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, preflight)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	foreign := httptest.NewRequest(http.MethodGet, "/x", nil)
	foreign.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, foreign)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
