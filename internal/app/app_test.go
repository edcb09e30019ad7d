package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cycup_backend/internal/storage"
	"cycup_backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testServer - роутер приложения поверх SQLite и фейковой очереди писем
type testServer struct {
	router     *gin.Engine
	db         *gorm.DB
	dispatcher *testutil.FakeDispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testutil.NewTestConfig(t)
	db := testutil.NewTestDB(t)
	dispatcher := testutil.NewFakeDispatcher()
	store, err := storage.NewStorage(storage.ConfigFrom(cfg))
	require.NoError(t, err)

	router := SetupRouter(Deps{
		Config:     cfg,
		DB:         db,
		Storage:    store,
		Dispatcher: dispatcher,
	})
	return &testServer{router: router, db: db, dispatcher: dispatcher}
}

type response struct {
	status  int
	body    string
	cookies []*http.Cookie
}

func (r response) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(r.body), v), "Ответ: %s", r.body)
}

func (ts *testServer) do(t *testing.T, req *http.Request, session string) response {
	t.Helper()
	if session != "" {
		req.Header.Set("Cookie", "session="+session)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return response{status: res.StatusCode, body: string(body), cookies: res.Cookies()}
}

// sendJSON - аналог SendRequest, но сессия передается через cookie
func (ts *testServer) sendJSON(t *testing.T, method, path, session string, body interface{}) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.do(t, req, session)
}

func (ts *testServer) sendForm(t *testing.T, method, path, session string, fields map[string]string, files ...testutil.File) response {
	t.Helper()
	body, contentType := testutil.MultipartBody(t, fields, files...)
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	return ts.do(t, req, session)
}

func sessionCookie(t *testing.T, res response) *http.Cookie {
	t.Helper()
	for _, c := range res.cookies {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatalf("cookie session не выставлена. Ответ: %s", res.body)
	return nil
}

// registerAndLogin проходит регистрацию, подтверждение и вход через API
func (ts *testServer) registerAndLogin(t *testing.T, email, password string) string {
	t.Helper()

	res := ts.sendJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": email})
	require.Equal(t, http.StatusCreated, res.status, res.body)

	res = ts.sendJSON(t, http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"email":                email,
		"pinCode":              ts.dispatcher.Pin(email),
		"password":             password,
		"passwordConfirmation": password,
	})
	require.Equal(t, http.StatusOK, res.status, res.body)

	return ts.login(t, email, password)
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	res := ts.sendJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.status, res.body)
	return sessionCookie(t, res).Value
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	res := ts.sendJSON(t, http.MethodGet, "/api/v1/health", "", nil)

	assert.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"status":"ok","database":"connected","redis":"disabled"}`, res.body)
}

func TestAuthFlow(t *testing.T) {
	// 1. Подготовка (Arrange)
	ts := newTestServer(t)

	// --- Регистрация ---
	res := ts.sendJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "Student@abo.fi"})
	require.Equal(t, http.StatusCreated, res.status, res.body)
	assert.Contains(t, res.body, "Registration successful")

	// --- Вход до подтверждения ---
	res = ts.sendJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "student@abo.fi", "password": "whatever1"})
	assert.Equal(t, http.StatusForbidden, res.status)

	// --- Подтверждение ---
	res = ts.sendJSON(t, http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"email":                "student@abo.fi",
		"pinCode":              ts.dispatcher.Pin("student@abo.fi"),
		"password":             "password123",
		"passwordConfirmation": "password123",
	})
	require.Equal(t, http.StatusOK, res.status, res.body)

	// --- Вход ---
	res = ts.sendJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "student@abo.fi", "password": "password123"})
	require.Equal(t, http.StatusOK, res.status, res.body)
	cookie := sessionCookie(t, res)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Positive(t, cookie.MaxAge)
	assert.NotContains(t, res.body, cookie.Value, "токен не должен попадать в тело ответа")

	// --- Профиль ---
	res = ts.sendJSON(t, http.MethodGet, "/api/v1/profile/me", cookie.Value, nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `"email":"student@abo.fi"`)

	// --- Повторный вход делает старую cookie недействительной ---
	newSession := ts.login(t, "student@abo.fi", "password123")
	assert.Equal(t, http.StatusUnauthorized, ts.sendJSON(t, http.MethodGet, "/api/v1/profile/me", cookie.Value, nil).status)
	assert.Equal(t, http.StatusOK, ts.sendJSON(t, http.MethodGet, "/api/v1/profile/me", newSession, nil).status)

	// --- Выход ---
	res = ts.sendJSON(t, http.MethodPost, "/api/v1/auth/logout", newSession, nil)
	assert.Equal(t, http.StatusOK, res.status)
	cleared := sessionCookie(t, res)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, http.StatusUnauthorized, ts.sendJSON(t, http.MethodGet, "/api/v1/profile/me", newSession, nil).status)
}

func TestLogout_WithoutValidSession(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.sendJSON(t, http.MethodPost, "/api/v1/auth/logout", "", nil).status)
	assert.Equal(t, http.StatusOK, ts.sendJSON(t, http.MethodPost, "/api/v1/auth/logout", "garbage", nil).status)
}

func TestRegister_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	res := ts.sendJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Must be a valid email address")

	res = ts.sendJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "someone@gmail.com"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Email must be a valid university email address.")
}

func TestPasswordResetFlow(t *testing.T) {
	ts := newTestServer(t)
	session := ts.registerAndLogin(t, "forgot@abo.fi", "old-password")

	res := ts.sendJSON(t, http.MethodPost, "/api/v1/auth/password/reset", "", map[string]string{"email": "forgot@abo.fi"})
	require.Equal(t, http.StatusOK, res.status, res.body)

	res = ts.sendJSON(t, http.MethodPost, "/api/v1/auth/password/reset/confirm", "", map[string]string{
		"token":                ts.dispatcher.ResetToken("forgot@abo.fi"),
		"newPassword":          "new-password",
		"passwordConfirmation": "new-password",
	})
	require.Equal(t, http.StatusOK, res.status, res.body)

	assert.Equal(t, http.StatusUnauthorized, ts.sendJSON(t, http.MethodGet, "/api/v1/profile/me", session, nil).status)
	ts.login(t, "forgot@abo.fi", "new-password")
}

func lendingForm(t *testing.T, ts *testServer) map[string]string {
	t.Helper()
	return map[string]string{
		"title":          "Camping tent",
		"categoryId":     testutil.FirstCategory(t, ts.db).ID,
		"condition":      "used",
		"description":    "Two person tent",
		"address":        "Henrikinkatu 2",
		"cityId":         testutil.FirstCity(t, ts.db).ID,
		"itemType":       "lending",
		"lendingPrice":   "5.50",
		"rentUnit":       "day",
		"mainPhotoIndex": "0",
	}
}

func TestItemLifecycle(t *testing.T) {
	// Arrange
	ts := newTestServer(t)
	session := ts.registerAndLogin(t, "owner@abo.fi", "password123")
	testutil.CreateUser(t, ts.db, "buyer@abo.fi", "password123")
	photo := testutil.File{Field: "photos", Name: "tent.png", Content: testutil.PNGBytes}

	// --- Создание ---
	res := ts.sendForm(t, http.MethodPost, "/api/v1/items", session, lendingForm(t, ts), photo)
	require.Equal(t, http.StatusCreated, res.status, res.body)

	var created struct {
		ID           string   `json:"id"`
		ItemType     string   `json:"itemType"`
		LendingPrice *float64 `json:"lendingPrice"`
		RentUnit     *string  `json:"rentUnit"`
		Status       string   `json:"status"`
		Photos       []struct {
			URL    string `json:"url"`
			IsMain bool   `json:"isMain"`
		} `json:"photos"`
	}
	res.decode(t, &created)
	assert.Equal(t, "lending", created.ItemType)
	assert.Equal(t, "published", created.Status)
	require.NotNil(t, created.LendingPrice)
	assert.Equal(t, 5.5, *created.LendingPrice)
	require.Len(t, created.Photos, 1)
	assert.True(t, created.Photos[0].IsMain)
	assert.True(t, strings.HasPrefix(created.Photos[0].URL, "http://example.com/uploads/item-images/"), created.Photos[0].URL)

	// --- Просмотр ---
	assert.Equal(t, http.StatusOK, ts.sendJSON(t, http.MethodGet, "/api/v1/items/"+created.ID, session, nil).status)
	assert.Equal(t, http.StatusNotFound, ts.sendJSON(t, http.MethodGet, "/api/v1/items/not-a-uuid", session, nil).status)
	assert.Equal(t, http.StatusUnauthorized, ts.sendJSON(t, http.MethodGet, "/api/v1/items/"+created.ID, "", nil).status)

	// --- Смена режима без цены ---
	res = ts.sendForm(t, http.MethodPut, "/api/v1/items/"+created.ID, session, map[string]string{"itemType": "selling"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Selling price is required for selling items.")

	// --- Смена режима с ценой ---
	res = ts.sendForm(t, http.MethodPut, "/api/v1/items/"+created.ID, session, map[string]string{"itemType": "selling", "sellingPrice": "30"})
	require.Equal(t, http.StatusOK, res.status, res.body)
	assert.Contains(t, res.body, `"lendingPrice":null`)
	assert.Contains(t, res.body, `"rentUnit":null`)

	// --- Продажа ---
	res = ts.sendJSON(t, http.MethodPost, "/api/v1/items/"+created.ID+"/mark-sold", session, map[string]string{"buyerEmail": "buyer@abo.fi"})
	require.Equal(t, http.StatusOK, res.status, res.body)
	assert.Contains(t, res.body, `"status":"sold"`)

	res = ts.sendJSON(t, http.MethodPost, "/api/v1/items/"+created.ID+"/mark-sold", session, map[string]string{"buyerEmail": "buyer@abo.fi"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "This item has already been marked as sold.")

	// --- Проданное не редактируется, но удаляется ---
	res = ts.sendForm(t, http.MethodPut, "/api/v1/items/"+created.ID, session, map[string]string{"title": "Changed"})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = ts.sendJSON(t, http.MethodDelete, "/api/v1/items/"+created.ID, session, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"message":"Item deleted successfully","deleted":true}`, res.body)
}

func TestCreateItem_Validation(t *testing.T) {
	ts := newTestServer(t)
	session := ts.registerAndLogin(t, "owner@abo.fi", "password123")

	t.Run("без фото", func(t *testing.T) {
		res := ts.sendForm(t, http.MethodPost, "/api/v1/items", session, lendingForm(t, ts))
		assert.Equal(t, http.StatusBadRequest, res.status)
		assert.Contains(t, res.body, "Between 1 and 3 photos are required")
	})

	t.Run("не изображение", func(t *testing.T) {
		res := ts.sendForm(t, http.MethodPost, "/api/v1/items", session, lendingForm(t, ts),
			testutil.File{Field: "photos", Name: "fake.png", Content: testutil.TextBytes})
		assert.Equal(t, http.StatusBadRequest, res.status)
	})

	t.Run("цена не число", func(t *testing.T) {
		form := lendingForm(t, ts)
		form["lendingPrice"] = "cheap"
		res := ts.sendForm(t, http.MethodPost, "/api/v1/items", session, form,
			testutil.File{Field: "photos", Name: "a.png", Content: testutil.PNGBytes})
		assert.Equal(t, http.StatusBadRequest, res.status)
		assert.Contains(t, res.body, "lendingPrice")
	})

	t.Run("JSON вместо формы", func(t *testing.T) {
		res := ts.sendJSON(t, http.MethodPost, "/api/v1/items", session, lendingForm(t, ts))
		assert.Equal(t, http.StatusBadRequest, res.status)
	})
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)
	userSession := ts.registerAndLogin(t, "user@abo.fi", "password123")
	testutil.CreateUser(t, ts.db, "admin@abo.fi", "admin-password", testutil.Admin())
	adminSession := ts.login(t, "admin@abo.fi", "admin-password")

	res := ts.sendForm(t, http.MethodPost, "/api/v1/items", userSession, lendingForm(t, ts),
		testutil.File{Field: "photos", Name: "a.png", Content: testutil.PNGBytes})
	require.Equal(t, http.StatusCreated, res.status, res.body)
	var item struct {
		ID string `json:"id"`
	}
	res.decode(t, &item)

	// обычный пользователь
	res = ts.sendJSON(t, http.MethodPost, "/api/v1/admin/items/"+item.ID+"/disable", userSession, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	// администратор
	res = ts.sendJSON(t, http.MethodPost, "/api/v1/admin/items/"+item.ID+"/disable", adminSession, nil)
	require.Equal(t, http.StatusOK, res.status, res.body)
	assert.Equal(t, http.StatusNotFound, ts.sendJSON(t, http.MethodGet, "/api/v1/items/"+item.ID, userSession, nil).status)

	// блокировка сбрасывает сессию пользователя
	var user struct {
		ID string `json:"id"`
	}
	profile := ts.sendJSON(t, http.MethodGet, "/api/v1/profile/me", userSession, nil)
	profile.decode(t, &user)

	res = ts.sendJSON(t, http.MethodPost, "/api/v1/admin/users/"+user.ID+"/block", adminSession, map[string]string{"reason": "spam"})
	require.Equal(t, http.StatusOK, res.status, res.body)
	assert.Equal(t, http.StatusUnauthorized, ts.sendJSON(t, http.MethodGet, "/api/v1/profile/me", userSession, nil).status)

	// заблокированный может войти, но не может публиковать
	blockedSession := ts.login(t, "user@abo.fi", "password123")
	res = ts.sendForm(t, http.MethodPost, "/api/v1/items", blockedSession, lendingForm(t, ts),
		testutil.File{Field: "photos", Name: "a.png", Content: testutil.PNGBytes})
	assert.Equal(t, http.StatusForbidden, res.status)
}
