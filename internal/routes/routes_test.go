package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/baymabruno/loopback-4-base-project/internal/config"
	"github.com/baymabruno/loopback-4-base-project/internal/handlers"
	"github.com/baymabruno/loopback-4-base-project/internal/models"
	"github.com/baymabruno/loopback-4-base-project/internal/ratelimit"
	"github.com/baymabruno/loopback-4-base-project/internal/repository"
	"github.com/baymabruno/loopback-4-base-project/internal/service"
)

// setupTestServer wires the whole stack against sqlite and miniredis.
func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	tokens, err := service.NewTokenService("test-secret-key-at-least-32-chars-long", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	hasher := service.NewPasswordHasher(bcrypt.MinCost)
	limiter := ratelimit.NewLoginLimiter(redisClient, time.Minute, 100)
	authService := service.NewAuthService(userRepo, hasher, tokens, limiter)

	router := gin.New()
	Setup(router, handlers.NewUserHandler(authService), handlers.NewHealthHandler("auth-service"), tokens, &config.Config{})
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, r)
	return w
}

func putJSON(t *testing.T, router *gin.Engine, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, r)
	return w
}

func getWithToken(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, r)
	return w
}

func TestEndToEnd_CreateLoginAccess(t *testing.T) {
	router := setupTestServer(t)

	newUser := map[string]interface{}{
		"email":    "a@b.com",
		"username": "alice",
		"name":     "Alice",
		"password": "password1",
		"roles":    []string{"customer"},
	}

	// Create succeeds and the response carries no password material.
	w := postJSON(t, router, "/user/create", newUser)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("create response leaks password: %s", w.Body.String())
	}
	var created models.User
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to parse create response: %v", err)
	}

	// A second create with the same email conflicts.
	if w := postJSON(t, router, "/user/create", newUser); w.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want %d", w.Code, http.StatusConflict)
	}

	// Correct credentials yield a token.
	w = postJSON(t, router, "/user/login", map[string]string{
		"email": "a@b.com", "password": "password1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var loginResp handlers.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("failed to parse login response: %v", err)
	}
	if loginResp.Token == "" {
		t.Fatal("login returned empty token")
	}

	// Wrong password is rejected with the generic message.
	w = postJSON(t, router, "/user/login", map[string]string{
		"email": "a@b.com", "password": "wrongpass",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(w.Body.String(), "Invalid email or password.") {
		t.Errorf("bad login body = %s, want generic message", w.Body.String())
	}

	// The token reaches /users/me.
	if w := getWithToken(router, "/users/me", loginResp.Token); w.Code != http.StatusOK {
		t.Errorf("/users/me status = %d, body = %s", w.Code, w.Body.String())
	}

	// A customer can read their own record but not list all users.
	if w := getWithToken(router, "/users/"+created.ID, loginResp.Token); w.Code != http.StatusOK {
		t.Errorf("own record status = %d", w.Code)
	}
	if w := getWithToken(router, "/users", loginResp.Token); w.Code != http.StatusForbidden {
		t.Errorf("list status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// Unauthenticated access is rejected outright.
	if w := getWithToken(router, "/users/me", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /users/me status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestEndToEnd_SelfServiceBoundary(t *testing.T) {
	router := setupTestServer(t)

	for _, email := range []string{"a@b.com", "c@d.com"} {
		w := postJSON(t, router, "/user/create", map[string]interface{}{
			"email":    email,
			"username": "user_" + email[:1],
			"password": "password1",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %s status = %d", email, w.Code)
		}
	}

	w := postJSON(t, router, "/user/login", map[string]string{
		"email": "a@b.com", "password": "password1",
	})
	var loginResp handlers.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("failed to parse login response: %v", err)
	}

	// Find the other user's id through the first user's own login.
	// Customers cannot read foreign records, so fetch it directly.
	var otherID string
	{
		w := postJSON(t, router, "/user/login", map[string]string{
			"email": "c@d.com", "password": "password1",
		})
		var other handlers.TokenResponse
		if err := json.Unmarshal(w.Body.Bytes(), &other); err != nil {
			t.Fatalf("failed to parse login response: %v", err)
		}
		me := getWithToken(router, "/users/me", other.Token)
		var record models.User
		if err := json.Unmarshal(me.Body.Bytes(), &record); err != nil {
			t.Fatalf("failed to parse /users/me response: %v", err)
		}
		otherID = record.ID
	}

	if w := getWithToken(router, "/users/"+otherID, loginResp.Token); w.Code != http.StatusForbidden {
		t.Errorf("foreign record status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// createAndLogin registers a user and returns its id and a fresh token.
func createAndLogin(t *testing.T, router *gin.Engine, email, username, password string, roles ...string) (string, string) {
	t.Helper()

	payload := map[string]interface{}{
		"email":    email,
		"username": username,
		"password": password,
	}
	if len(roles) > 0 {
		payload["roles"] = roles
	}
	w := postJSON(t, router, "/user/create", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s status = %d, body = %s", email, w.Code, w.Body.String())
	}
	var created models.User
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to parse create response: %v", err)
	}

	w = postJSON(t, router, "/user/login", map[string]string{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s status = %d, body = %s", email, w.Code, w.Body.String())
	}
	var loginResp handlers.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("failed to parse login response: %v", err)
	}
	return created.ID, loginResp.Token
}

// A customer must not be able to grant themselves admin through a
// self-targeted update; the roles field is admin-only.
func TestEndToEnd_RoleEscalationBlocked(t *testing.T) {
	router := setupTestServer(t)
	id, token := createAndLogin(t, router, "a@b.com", "alice77", "password1")

	// An ordinary self-update still goes through.
	if w := putJSON(t, router, "/users/"+id, token, map[string]interface{}{"name": "Alice B"}); w.Code != http.StatusNoContent {
		t.Fatalf("self update status = %d, body = %s", w.Code, w.Body.String())
	}

	// Granting oneself admin is refused.
	w := putJSON(t, router, "/users/"+id, token, map[string]interface{}{"roles": []string{"admin"}})
	if w.Code != http.StatusForbidden {
		t.Fatalf("role change status = %d, want %d, body = %s", w.Code, http.StatusForbidden, w.Body.String())
	}

	// A fresh token must still carry customer privileges only.
	w = postJSON(t, router, "/user/login", map[string]string{"email": "a@b.com", "password": "password1"})
	var loginResp handlers.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("failed to parse login response: %v", err)
	}
	if w := getWithToken(router, "/users", loginResp.Token); w.Code != http.StatusForbidden {
		t.Errorf("list status after refused role change = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// An admin remains the only role that can change roles or touch
// foreign records; support may update their own record.
func TestEndToEnd_UpdateAccessByRole(t *testing.T) {
	router := setupTestServer(t)
	customerID, _ := createAndLogin(t, router, "a@b.com", "alice77", "password1")
	supportID, supportToken := createAndLogin(t, router, "s@b.com", "sammy77", "password1", "support")
	_, adminToken := createAndLogin(t, router, "root@b.com", "rooty77", "password1", "admin")

	// Support may update their own record.
	if w := putJSON(t, router, "/users/"+supportID, supportToken, map[string]interface{}{"name": "Sam"}); w.Code != http.StatusNoContent {
		t.Errorf("support self update status = %d, body = %s", w.Code, w.Body.String())
	}

	// Support may not touch a foreign record.
	if w := putJSON(t, router, "/users/"+customerID, supportToken, map[string]interface{}{"name": "Mallory"}); w.Code != http.StatusForbidden {
		t.Errorf("support foreign update status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// An admin may change anyone's roles.
	if w := putJSON(t, router, "/users/"+customerID, adminToken, map[string]interface{}{"roles": []string{"support"}}); w.Code != http.StatusNoContent {
		t.Errorf("admin role change status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestEndToEnd_ValidationAndHealth(t *testing.T) {
	router := setupTestServer(t)

	// Username shorter than five characters is rejected with the rule.
	w := postJSON(t, router, "/user/create", map[string]interface{}{
		"email":    "a@b.com",
		"username": "bob",
		"password": "password1",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("create status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(w.Body.String(), "InvalidUsername") {
		t.Errorf("body = %s, want InvalidUsername rule", w.Body.String())
	}

	hw := httptest.NewRecorder()
	router.ServeHTTP(hw, httptest.NewRequest(http.MethodGet, "/health", nil))
	if hw.Code != http.StatusOK {
		t.Errorf("/health status = %d", hw.Code)
	}

	mw := httptest.NewRecorder()
	router.ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mw.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", mw.Code)
	}
}
