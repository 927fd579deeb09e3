package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"wanderlust/internal/config"
	"wanderlust/internal/models"
	"wanderlust/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type harness struct {
	t     *testing.T
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	redis *miniredis.Miniredis
	host  *testutil.ImageHostStub
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           testSecret,
		Env:                 "test",
		Port:                "0",
		AllowedOrigins:      "http://localhost:5173",
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key-123",
		CloudinaryAPISecret: "shh",
	}
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	host := &testutil.ImageHostStub{}
	srv, err := NewServerWithDeps(cfg, db, rdb, WithImageHost(host))
	require.NoError(t, err)

	return &harness{t: t, srv: srv, app: srv.NewApp(), db: db, redis: mr, host: host}
}

// do sends a JSON request and decodes the envelope.
func (h *harness) do(method, path string, body any, token string) (*http.Response, envelope) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return h.send(req)
}

func (h *harness) send(req *http.Request) (*http.Response, envelope) {
	h.t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if len(raw) > 0 {
		require.NoError(h.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type authData struct {
	User  models.Summary `json:"user"`
	Token string         `json:"token"`
}

// signup registers a user and returns its id and bearer token.
func (h *harness) signup(email, name string) (uint, string) {
	h.t.Helper()
	resp, env := h.do(http.MethodPost, "/api/signup", fiber.Map{
		"email": email, "password": "Abc12345", "name": name,
	}, "")
	require.Equal(h.t, http.StatusCreated, resp.StatusCode, env.Message)
	var data authData
	require.NoError(h.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(h.t, data.Token)
	return data.User.UserID, data.Token
}

type listingData struct {
	ID      uint     `json:"_id"`
	Title   string   `json:"title"`
	Price   int64    `json:"price"`
	Country string   `json:"country"`
	Tags    []string `json:"tags"`
	Image   struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	} `json:"image"`
	Owner *struct {
		ID   uint   `json:"_id"`
		Name string `json:"name"`
	} `json:"owner"`
	Reviews []struct {
		ID     uint `json:"_id"`
		Rating int  `json:"rating"`
	} `json:"reviews"`
}

func (h *harness) createListing(token string, body fiber.Map) listingData {
	h.t.Helper()
	payload := fiber.Map{
		"title":       "Cozy Cabin",
		"description": "A warm cabin by the lake",
		"price":       120,
		"location":    "Reykjavik",
		"country":     "Iceland",
		"image":       "https://img.test/cabin.jpg",
		"tagsArray":   []string{"cabin", "arctic"},
	}
	for k, v := range body {
		payload[k] = v
	}
	resp, env := h.do(http.MethodPost, "/api/listings", payload, token)
	require.Equal(h.t, http.StatusCreated, resp.StatusCode, env.Message)
	var l listingData
	require.NoError(h.t, json.Unmarshal(env.Data, &l))
	return l
}

func (h *harness) makeAdmin(userID uint) {
	h.t.Helper()
	require.NoError(h.t, h.db.Model(&models.User{}).Where("id = ?", userID).
		Update("role", models.RoleAdmin).Error)
}

// TestEndToEnd_SignupLoginCreateReadForbidDelete walks the core flow.
func TestEndToEnd_SignupLoginCreateReadForbidDelete(t *testing.T) {
	h := newHarness(t)

	resp, env := h.do(http.MethodPost, "/signup", fiber.Map{
		"email": "a@b.com", "password": "Abc12345", "name": "A",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "User registered successfully", env.Message)
	var signup authData
	require.NoError(t, json.Unmarshal(env.Data, &signup))
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "a@b.com", signup.User.Email)

	resp, env = h.do(http.MethodPost, "/login", fiber.Map{"email": "a@b.com", "password": "Abc12345"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful", env.Message)
	var login authData
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	created := h.createListing(login.Token, nil)
	require.NotNil(t, created.Owner)
	assert.Equal(t, signup.User.UserID, created.Owner.ID)

	resp, env = h.do(http.MethodGet, "/listings/"+itoa(created.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched listingData
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Cozy Cabin", fetched.Title)

	_, otherToken := h.signup("other@b.com", "Other")
	resp, env = h.do(http.MethodDelete, "/listings/"+itoa(created.ID), nil, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "You are not the owner of this listing", env.Message)

	resp, _ = h.do(http.MethodGet, "/listings/"+itoa(created.ID), nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	r, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = r.Body.Close() }()
	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&ready))
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "healthy", ready.Checks["database"])
	assert.Equal(t, "healthy", ready.Checks["redis"])
	assert.Equal(t, "memory", ready.Checks["sessions"])

	resp, env := h.do(http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "Route not found", env.Message)

	// The readiness check degrades when Redis goes away.
	h.redis.Close()
	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	r2, err := h.app.Test(req, -1)
	require.NoError(t, err)
	_ = r2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, r2.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("secret detail") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "bad input") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", env.Message)
	assert.NotContains(t, env.Error, "secret detail")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	env = envelope{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad input", env.Message)
	assert.Equal(t, models.CodeValidation, env.Code)
}

func TestAdminRequired(t *testing.T) {
	h := newHarness(t)
	userID, token := h.signup("plain@b.com", "Plain")

	resp, env := h.do(http.MethodGet, "/api/admin/feature-flags", nil, token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Admin access required", env.Message)

	h.makeAdmin(userID)
	resp, env = h.do(http.MethodGet, "/api/admin/feature-flags", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var flags struct {
		Evaluated map[string]bool `json:"evaluated"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &flags))
	assert.True(t, flags.Evaluated["signed_uploads"])
}
