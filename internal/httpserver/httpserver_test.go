package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jsalmeida/ecommerce-api/internal/middleware"
	"github.com/jsalmeida/ecommerce-api/internal/models"
	"github.com/jsalmeida/ecommerce-api/internal/repo"
	"github.com/jsalmeida/ecommerce-api/internal/service"
	"github.com/jsalmeida/ecommerce-api/internal/tokens"
)

type testEnv struct {
	T    *testing.T
	E    *echo.Echo
	Repo *repo.GormRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}, &models.Session{}))

	gormRepo := &repo.GormRepo{DB: db}
	secret := []byte("test-session-secret")

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: &service.AuthService{Repo: gormRepo, Secret: secret}},
		UserHandler:    &UserHTTP{Svc: &service.UserService{Repo: gormRepo}},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: gormRepo}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: gormRepo}},
		SessionAuth:    middleware.NewSessionAuth(gormRepo, secret),
	})

	return &testEnv{T: t, E: e, Repo: gormRepo}
}

// do drives a request through the full router, middleware included.
func (env *testEnv) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) message(rec *httptest.ResponseRecorder) string {
	env.T.Helper()

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

// signupAndLogin registers the user and returns the session cookie.
func (env *testEnv) signupAndLogin(username, password string) *http.Cookie {
	env.T.Helper()

	creds := map[string]string{"username": username, "password": password}

	rec := env.do(http.MethodPost, "/api/user/add", creds)
	require.Equal(env.T, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/login", creds)
	require.Equal(env.T, http.StatusOK, rec.Code)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == tokens.SessionCookie && ck.Value != "" {
			return ck
		}
	}
	env.T.Fatalf("login response carried no session cookie")
	return nil
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "API up", rec.Body.String())

	rec = env.do(http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/user/add", map[string]string{"username": "a", "password": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "User added successfully", env.message(rec))

	rec = env.do(http.MethodPost, "/login", map[string]string{"username": "a", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized. Invalid credentials", env.message(rec))

	rec = env.do(http.MethodPost, "/login", map[string]string{"username": "nobody", "password": "1"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized. Invalid credentials", env.message(rec))
}

func TestLogout_InvalidatesSession(t *testing.T) {
	env := newTestEnv(t)

	// no session at all
	rec := env.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	session := env.signupAndLogin("a", "1")

	rec = env.do(http.MethodPost, "/logout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Logout successfully", env.message(rec))

	// the revoked session no longer authenticates
	rec = env.do(http.MethodGet, "/api/cart", nil, session)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddUser_InvalidData(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/user/add", map[string]string{"username": "a"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid user data", env.message(rec))

	// duplicate username is rejected the same way
	rec = env.do(http.MethodPost, "/api/user/add", map[string]string{"username": "a", "password": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodPost, "/api/user/add", map[string]string{"username": "a", "password": "2"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid user data", env.message(rec))
}

func TestUpdateUser_NotFoundBeforeForbidden(t *testing.T) {
	env := newTestEnv(t)

	aliceSession := env.signupAndLogin("alice", "1")
	env.signupAndLogin("bob", "2")

	var bob models.User
	require.NoError(t, env.Repo.DB.Where("username = ?", "bob").First(&bob).Error)

	// missing id: 404 even though alice could never own it
	rec := env.do(http.MethodPut, "/api/user/update/9999", map[string]string{"username": "x"}, aliceSession)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found", env.message(rec))

	// existing foreign id: distinct 403
	rec = env.do(http.MethodPut, "/api/user/update/"+itoa(bob.ID), map[string]string{"username": "x"}, aliceSession)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "insufficient permission", env.message(rec))
}

func TestDeleteUser_ForeignIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	aliceSession := env.signupAndLogin("alice", "1")
	env.signupAndLogin("bob", "2")

	var bob models.User
	require.NoError(t, env.Repo.DB.Where("username = ?", "bob").First(&bob).Error)

	rec := env.do(http.MethodDelete, "/api/user/delete/"+itoa(bob.ID), nil, aliceSession)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found", env.message(rec))

	var count int64
	require.NoError(t, env.Repo.DB.Model(&models.User{}).Where("id = ?", bob.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var alice models.User
	require.NoError(t, env.Repo.DB.Where("username = ?", "alice").First(&alice).Error)

	rec = env.do(http.MethodDelete, "/api/user/delete/"+itoa(alice.ID), nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "User deleted successfully", env.message(rec))

	// the session no longer resolves to an existing user
	rec = env.do(http.MethodGet, "/api/cart", nil, aliceSession)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProducts_RequireSessionForMutation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/products/add", map[string]any{"name": "Phone", "price": 100})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	session := env.signupAndLogin("a", "1")

	rec = env.do(http.MethodPost, "/api/products/add", map[string]any{"name": "Phone"}, session)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid product data", env.message(rec))

	rec = env.do(http.MethodPost, "/api/products/add", map[string]any{"name": "Phone", "price": 100}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Product added successfully", env.message(rec))

	// reads stay public
	rec = env.do(http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var products []models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	require.Equal(t, "Phone", products[0].Name)
	require.Equal(t, "", products[0].Description)

	rec = env.do(http.MethodGet, "/api/products/"+itoa(products[0].ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/products/9999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Product not found", env.message(rec))
}

func TestUpdateProduct_PartialPatch(t *testing.T) {
	env := newTestEnv(t)
	session := env.signupAndLogin("a", "1")

	rec := env.do(http.MethodPost, "/api/products/add", map[string]any{"name": "Phone", "price": 100, "description": "old"}, session)
	require.Equal(t, http.StatusOK, rec.Code)

	var prod models.Product
	require.NoError(t, env.Repo.DB.Where("name = ?", "Phone").First(&prod).Error)

	rec = env.do(http.MethodPut, "/api/products/update/"+itoa(prod.ID), map[string]any{"price": 80}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Product updated successfully", env.message(rec))

	rec = env.do(http.MethodGet, "/api/products/"+itoa(prod.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Phone", got.Name)
	require.Equal(t, 80.0, got.Price)
	require.Equal(t, "old", got.Description)

	rec = env.do(http.MethodPut, "/api/products/update/9999", map[string]any{"price": 80}, session)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Product not found", env.message(rec))
}

func TestCart_AddUnknownProductFails(t *testing.T) {
	env := newTestEnv(t)
	session := env.signupAndLogin("a", "1")

	rec := env.do(http.MethodPost, "/api/cart/add/9999", nil, session)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Failed to add item to the cart", env.message(rec))

	rec = env.do(http.MethodDelete, "/api/cart/remove/9999", nil, session)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Failed to remove item from the cart", env.message(rec))
}

// TestCheckoutScenario walks the whole happy path: signup, login, create a
// product, add it to the cart, view the enriched cart, checkout, verify the
// cart is empty.
func TestCheckoutScenario(t *testing.T) {
	env := newTestEnv(t)
	session := env.signupAndLogin("a", "1")

	rec := env.do(http.MethodPost, "/api/products/add", map[string]any{"name": "Phone", "price": 100}, session)
	require.Equal(t, http.StatusOK, rec.Code)

	var prod models.Product
	require.NoError(t, env.Repo.DB.Where("name = ?", "Phone").First(&prod).Error)

	rec = env.do(http.MethodPost, "/api/cart/add/"+itoa(prod.ID), nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Item added to the cart successfully", env.message(rec))

	rec = env.do(http.MethodGet, "/api/cart", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	var lines []models.CartLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 1)
	require.Equal(t, prod.ID, lines[0].ProductID)
	require.Equal(t, "Phone", lines[0].ProductName)
	require.Equal(t, 100.0, lines[0].ProductPrice)

	rec = env.do(http.MethodPost, "/api/cart/checkout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Checkout successful. Cart has been cleared.", env.message(rec))

	rec = env.do(http.MethodGet, "/api/cart", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	lines = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Empty(t, lines)
}

func TestCart_RemoveOneOfTwoDuplicates(t *testing.T) {
	env := newTestEnv(t)
	session := env.signupAndLogin("a", "1")

	rec := env.do(http.MethodPost, "/api/products/add", map[string]any{"name": "Phone", "price": 100}, session)
	require.Equal(t, http.StatusOK, rec.Code)

	var prod models.Product
	require.NoError(t, env.Repo.DB.Where("name = ?", "Phone").First(&prod).Error)

	rec = env.do(http.MethodPost, "/api/cart/add/"+itoa(prod.ID), nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodPost, "/api/cart/add/"+itoa(prod.ID), nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/api/cart/remove/"+itoa(prod.ID), nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Item removed from the cart successfully", env.message(rec))

	rec = env.do(http.MethodGet, "/api/cart", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	var lines []models.CartLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 1)
}

func TestSearch_UnavailableWithoutES(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/products/search?q=phone", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
