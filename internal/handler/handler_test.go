package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ckd_auth_service/internal/models"
	"ckd_auth_service/internal/service"
	"ckd_auth_service/internal/storage/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAdminCode = "open-sesame"

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	router       *gin.Engine
	clock        *testClock
	userSessions *memstore.Sessions
}

func newTestEnv(t *testing.T, pingErr error) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	users := memstore.NewAccounts().WithClock(clock.Now)
	userSessions := memstore.NewSessions()
	userManager := service.NewSessionManager(userSessions, service.DefaultSessionTTL, log).WithClock(clock.Now)
	userSvc := service.NewAuthService(users, userManager, log).WithHashCost(bcrypt.MinCost)

	adminManager := service.NewSessionManager(memstore.NewSessions(), service.DefaultSessionTTL, log).WithClock(clock.Now)
	adminAuth := service.NewAuthService(memstore.NewAccounts(), adminManager, log).WithHashCost(bcrypt.MinCost)
	adminSvc := service.NewAdminService(adminAuth, testAdminCode, users, userManager, memstore.Predictions(3))

	h := NewHandler(userSvc, adminSvc, fakePinger{err: pingErr}, log)

	return &testEnv{router: h.InitRoutes(), clock: clock, userSessions: userSessions}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}

	return w, out
}

func signupBody(name, email, password string) gin.H {
	return gin.H{"name": name, "email": email, "password": password}
}

func TestAliceSignupVerifyLogout(t *testing.T) {
	e := newTestEnv(t, nil)

	w, body := e.do(t, http.MethodPost, "/api/signup", "", signupBody("Alice", "a@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User registered successfully", body["message"])

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	user := body["user"].(map[string]any)
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotEmpty(t, user["id"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "password_hash")

	w, body = e.do(t, http.MethodGet, "/api/verify", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user, body["user"])

	w, body = e.do(t, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logout successful", body["message"])

	w, body = e.do(t, http.MethodGet, "/api/verify", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", body["message"])

	w, _ = e.do(t, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBobDuplicateSignup(t *testing.T) {
	e := newTestEnv(t, nil)

	w, _ := e.do(t, http.MethodPost, "/api/signup", "", signupBody("Bob", "b@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := e.do(t, http.MethodPost, "/api/signup", "", signupBody("Bob2", "B@X.com", "other12"))
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already registered", body["message"])
}

func TestSignupValidation(t *testing.T) {
	e := newTestEnv(t, nil)

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"missing name", gin.H{"email": "a@x.com", "password": "secret1"}, "All fields are required"},
		{"short password", signupBody("A", "a@x.com", "12345"), "Password must be at least 6 characters"},
		{"malformed json", `{"name": "A",`, "All fields are required"},
		{"no body", nil, "All fields are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := e.do(t, http.MethodPost, "/api/signup", "", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t, nil)

	w, _ := e.do(t, http.MethodPost, "/api/signup", "", signupBody("Alice", "a@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := e.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "A@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["token"])

	w, wrongPassword := e.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "a@x.com", "password": "nope!!"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, unknownEmail := e.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "z@x.com", "password": "secret1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongPassword, unknownEmail)
	assert.Equal(t, "Invalid email or password", unknownEmail["message"])

	w, body = e.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "a@x.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email and password are required", body["message"])
}

func TestVerifyMessages(t *testing.T) {
	e := newTestEnv(t, nil)

	w, body := e.do(t, http.MethodGet, "/api/verify", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", body["message"])

	w, body = e.do(t, http.MethodGet, "/api/verify", "bogus", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", body["message"])

	_, body = e.do(t, http.MethodPost, "/api/signup", "", signupBody("Alice", "a@x.com", "secret1"))
	token := body["token"].(string)

	e.clock.Advance(service.DefaultSessionTTL + time.Second)

	w, body = e.do(t, http.MethodGet, "/api/verify", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token expired", body["message"])
	assert.False(t, e.userSessions.Has(token))
}

func TestMalformedTokenIsUnauthorized(t *testing.T) {
	e := newTestEnv(t, nil)

	for _, path := range []string{"/api/verify", "/api/admin/verify", "/api/admin/stats", "/api/admin/users"} {
		w, body := e.do(t, http.MethodGet, path, "\xff", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "Invalid token", body["message"], path)
	}
}

func TestLongPasswordSignupAndLogin(t *testing.T) {
	e := newTestEnv(t, nil)
	password := strings.Repeat("p", 100)

	w, _ := e.do(t, http.MethodPost, "/api/signup", "", signupBody("Carol", "c@x.com", password))
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := e.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "c@x.com", "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Login successful", body["message"])
}

func TestAdminFlow(t *testing.T) {
	e := newTestEnv(t, nil)

	w, body := e.do(t, http.MethodPost, "/api/admin/signup", "", gin.H{
		"name": "Root", "email": "root@x.com", "password": "secret1", "adminCode": "wrong",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Invalid admin code", body["message"])

	w, _ = e.do(t, http.MethodPost, "/api/admin/login", "", gin.H{"email": "root@x.com", "password": "secret1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = e.do(t, http.MethodPost, "/api/admin/signup", "", gin.H{
		"name": "Root", "email": "root@x.com", "password": "secret1", "adminCode": testAdminCode,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Root", body["admin"].(map[string]any)["name"])

	w, body = e.do(t, http.MethodPost, "/api/admin/login", "", gin.H{"email": "root@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	adminToken := body["token"].(string)

	_, body = e.do(t, http.MethodPost, "/api/signup", "", signupBody("Alice", "a@x.com", "secret1"))
	userToken := body["token"].(string)

	w, body = e.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["totalUsers"])
	assert.Equal(t, float64(3), body["totalPredictions"])
	assert.Equal(t, float64(1), body["activeSessions"])

	w, body = e.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	listed := users[0].(map[string]any)
	assert.Equal(t, "a@x.com", listed["email"])
	assert.Contains(t, listed, "created_at")
	assert.NotContains(t, listed, "password_hash")

	w, body = e.do(t, http.MethodGet, "/api/admin/verify", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "root@x.com", body["admin"].(map[string]any)["email"])

	w, _ = e.do(t, http.MethodPost, "/api/admin/logout", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = e.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", body["message"])

	// A user token never opens the admin realm, and the reverse.
	w, _ = e.do(t, http.MethodGet, "/api/admin/users", userToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	_, body = e.do(t, http.MethodPost, "/api/admin/login", "", gin.H{"email": "root@x.com", "password": "secret1"})
	w, _ = e.do(t, http.MethodGet, "/api/verify", body["token"].(string), nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminDashboardRequiresToken(t *testing.T) {
	e := newTestEnv(t, nil)

	for _, path := range []string{"/api/admin/stats", "/api/admin/users"} {
		w, body := e.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "No token provided", body["message"])
	}
}

func TestHealth(t *testing.T) {
	w, body := newTestEnv(t, nil).do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "API and database are running", body["message"])

	w, body = newTestEnv(t, errors.New("connection refused")).do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "connection refused", body["message"])
}

func TestRequestIDAndCORS(t *testing.T) {
	e := newTestEnv(t, nil)

	w, _ := e.do(t, http.MethodGet, "/api/health", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodOptions, "/api/signup", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type brokenAdmins struct {
	AdminAuthenticator
}

func (brokenAdmins) Verify(context.Context, string) (models.Profile, error) {
	return models.Profile{}, nil
}

func (brokenAdmins) Stats(context.Context) (models.Stats, error) {
	return models.Stats{}, errors.New("db down")
}

func TestServerErrorMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewHandler(nil, brokenAdmins{}, fakePinger{}, log).InitRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Server error: db down", body.Message)
}
