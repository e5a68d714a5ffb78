package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eshop/internal/app"
	"eshop/internal/config"
	"eshop/internal/logging"
	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	app  *app.App
	t    *testing.T
	auth *services.AuthService
}

type response struct {
	status int
	body   map[string]interface{}
}

// setupApp builds the full application on a private in-memory SQLite database.
func setupApp(t *testing.T) *testEnv {
	ctx := context.Background()
	store, err := repositories.Open(ctx, repositories.Options{
		Driver: repositories.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		Logger: logging.Discard(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	cfg := &config.Config{
		AppPort:     ":0",
		StoreDriver: repositories.DriverSQLite,
		JWTSecret:   "test_jwt_secret",
		JWTExpire:   time.Hour,
		BcryptCost:  bcrypt.MinCost,
	}
	a, err := app.NewApp(app.Deps{Config: cfg, Store: store, Logger: logging.Discard()})
	require.NoError(t, err)
	return &testEnv{app: a, t: t, auth: a.AuthService}
}

func (e *testEnv) do(method, path, token string, payload interface{}) response {
	e.t.Helper()
	var body io.Reader
	if payload != nil {
		switch p := payload.(type) {
		case string:
			body = bytes.NewBufferString(p)
		default:
			raw, err := json.Marshal(p)
			require.NoError(e.t, err)
			body = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Fiber.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	require.NoError(e.t, json.Unmarshal(raw, &out.body), string(raw))
	return out
}

func (e *testEnv) provision(name, email, password string, role models.Role) string {
	e.t.Helper()
	_, err := e.auth.Provision(context.Background(), services.RegisterInput{Name: name, Email: email, Password: password}, role)
	require.NoError(e.t, err)
	res := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(e.t, http.StatusOK, res.status)
	return res.body["token"].(string)
}

func zelda() map[string]interface{} {
	return map[string]interface{}{
		"name":          "The Legend of Zelda: Breath of the Wild",
		"description":   "Step into a world of discovery and adventure.",
		"price":         59.99,
		"originalPrice": 69.99,
		"category":      "Games",
		"images":        []string{"https://images.example.com/zelda.jpg"},
		"stock":         50,
		"specifications": map[string]string{
			"Players": "1",
			"Genre":   "Adventure",
		},
	}
}

func TestAuthRegisterLoginAndProfile(t *testing.T) {
	env := setupApp(t)

	res := env.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Link",
		"email":    "Link@Hyrule.com",
		"password": "triforce",
	})
	require.Equal(t, http.StatusCreated, res.status)
	assert.Equal(t, true, res.body["success"])
	assert.NotEmpty(t, res.body["token"])
	user := res.body["data"].(map[string]interface{})
	assert.Equal(t, "link@hyrule.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password")

	res = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Link Again",
		"email":    "link@hyrule.com",
		"password": "triforce",
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, false, res.body["success"])
	assert.Contains(t, res.body["errors"], "email")

	res = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "link@hyrule.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, "Invalid credentials", res.body["message"])

	res = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "link@hyrule.com", "password": "triforce"})
	require.Equal(t, http.StatusOK, res.status)
	token := res.body["token"].(string)

	res = env.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Link", res.body["data"].(map[string]interface{})["name"])

	res = env.do(http.MethodPut, "/api/auth/updatedetails", token, map[string]interface{}{
		"name":    "Link of Hyrule",
		"address": map[string]string{"city": "Kakariko"},
	})
	require.Equal(t, http.StatusOK, res.status)
	updated := res.body["data"].(map[string]interface{})
	assert.Equal(t, "Link of Hyrule", updated["name"])
	assert.Equal(t, "Kakariko", updated["address"].(map[string]interface{})["city"])
	assert.Equal(t, "user", updated["role"])
}

func TestRegister_ValidationErrors(t *testing.T) {
	env := setupApp(t)

	res := env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	errs := res.body["errors"].(map[string]interface{})
	assert.Equal(t, "Please provide a valid email", errs["email"])
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "password")

	res = env.do(http.MethodPost, "/api/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Invalid request body", res.body["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupApp(t)

	res := env.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, "Not authorized to access this route", res.body["message"])

	res = env.do(http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = env.do(http.MethodPost, "/api/products", "", zelda())
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = env.do(http.MethodGet, "/api/admin/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestCatalogScenario(t *testing.T) {
	env := setupApp(t)
	adminToken := env.provision("Admin", "admin@nintendo.com", "admin123", models.RoleAdmin)
	userToken := env.provision("Player", "user@nintendo.com", "user123", models.RoleUser)

	res := env.do(http.MethodPost, "/api/products", adminToken, zelda())
	require.Equal(t, http.StatusCreated, res.status, res.body)
	product := res.body["data"].(map[string]interface{})
	id := product["id"].(string)
	assert.Equal(t, "Nintendo", product["brand"])
	assert.EqualValues(t, 0, product["rating"])
	assert.EqualValues(t, 0, product["numReviews"])

	cheap := zelda()
	cheap["name"] = "Nintendo Switch Carrying Case"
	cheap["category"] = "Cases & Protection"
	cheap["price"] = 19.99
	delete(cheap, "originalPrice")
	res = env.do(http.MethodPost, "/api/products", adminToken, cheap)
	require.Equal(t, http.StatusCreated, res.status)

	res = env.do(http.MethodPost, "/api/products", userToken, zelda())
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "Not authorized to perform this action", res.body["message"])

	res = env.do(http.MethodGet, "/api/products?category=Games&minPrice=50", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 1, res.body["total"])
	assert.EqualValues(t, 1, res.body["count"])
	items := res.body["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].(map[string]interface{})["id"])

	res = env.do(http.MethodPost, "/api/products/"+id+"/reviews", userToken, map[string]interface{}{"rating": 5, "comment": "Masterpiece!"})
	require.Equal(t, http.StatusCreated, res.status)
	res = env.do(http.MethodPost, "/api/products/"+id+"/reviews", userToken, map[string]interface{}{"rating": 3, "comment": "Weapons break."})
	require.Equal(t, http.StatusCreated, res.status)
	reviewed := res.body["data"].(map[string]interface{})
	assert.EqualValues(t, 4.0, reviewed["rating"])
	assert.EqualValues(t, 2, reviewed["numReviews"])

	res = env.do(http.MethodGet, "/api/products/"+id, "", nil)
	require.Equal(t, http.StatusOK, res.status)
	detail := res.body["data"].(map[string]interface{})
	reviews := detail["reviews"].([]interface{})
	require.Len(t, reviews, 2)
	assert.Equal(t, "Player", reviews[0].(map[string]interface{})["name"])
	assert.Equal(t, map[string]interface{}{"Players": "1", "Genre": "Adventure"}, detail["specifications"])

	res = env.do(http.MethodGet, "/api/products?page=5&limit=1", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 2, res.body["total"])
	assert.EqualValues(t, 0, res.body["count"])
	assert.Empty(t, res.body["data"])
	pagination := res.body["pagination"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"page": float64(2), "limit": float64(1)}, pagination["prev"])
	assert.NotContains(t, pagination, "next")

	res = env.do(http.MethodGet, "/api/products?page=4611686018427387904", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 2, res.body["total"])
	assert.EqualValues(t, 0, res.body["count"])
	assert.Empty(t, res.body["data"])

	res = env.do(http.MethodGet, "/api/products?limit=1", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	pagination = res.body["pagination"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"page": float64(2), "limit": float64(1)}, pagination["next"])
	assert.NotContains(t, pagination, "prev")

	res = env.do(http.MethodGet, "/api/products?minPrice=cheap", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = env.do(http.MethodGet, "/api/admin/products", userToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
	res = env.do(http.MethodGet, "/api/admin/products", adminToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 2, res.body["total"])
}

func TestProductUpdateAndDelete(t *testing.T) {
	env := setupApp(t)
	adminToken := env.provision("Admin", "admin@nintendo.com", "admin123", models.RoleAdmin)

	res := env.do(http.MethodPost, "/api/products", adminToken, zelda())
	require.Equal(t, http.StatusCreated, res.status)
	id := res.body["data"].(map[string]interface{})["id"].(string)

	res = env.do(http.MethodPut, "/api/products/"+id, adminToken, map[string]interface{}{"price": 49.99, "onSale": true})
	require.Equal(t, http.StatusOK, res.status)
	updated := res.body["data"].(map[string]interface{})
	assert.EqualValues(t, 49.99, updated["price"])
	assert.Equal(t, true, updated["onSale"])
	assert.Equal(t, "The Legend of Zelda: Breath of the Wild", updated["name"])

	res = env.do(http.MethodPut, "/api/products/"+id, adminToken, map[string]interface{}{"category": "Toys"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Please select a valid category", res.body["errors"].(map[string]interface{})["category"])

	res = env.do(http.MethodDelete, "/api/products/"+id, adminToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, map[string]interface{}{}, res.body["data"])

	res = env.do(http.MethodGet, "/api/products/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "Resource not found", res.body["message"])

	res = env.do(http.MethodDelete, "/api/products/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestUnknownRoute(t *testing.T) {
	env := setupApp(t)
	res := env.do(http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "Route not found", res.body["message"])
}
