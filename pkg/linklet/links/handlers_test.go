package links

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/linklet/linklet/pkg/linklet/auth"
	"github.com/linklet/linklet/pkg/linklet/models"
	"github.com/linklet/linklet/pkg/linklet/ratelimit"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		SystemRole:   models.SystemRoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	service := NewService(NewRepository(db), ratelimit.New(), NewListingCache(), zerolog.Nop())
	handler := NewHandler(service)

	api := r.Group("/api")
	api.Use(auth.AuthMiddleware())
	handler.RegisterRoutes(api)

	return r
}

func getAuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.Email, string(user.SystemRole))
	return "Bearer " + token
}

// envelope mirrors the {success, data|error} response shape
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(router *gin.Engine, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateLinkEndpoint(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")

	resp := doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "https://example.com", Slug: "abc"}, getAuthHeader(user))

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	if !env.Success {
		t.Fatalf("Expected success envelope, got %s", resp.Body.String())
	}

	var link LinkResponse
	json.Unmarshal(env.Data, &link)
	if link.Slug != "abc" || link.URL != "https://example.com" {
		t.Errorf("Unexpected link in response: %+v", link)
	}
	if link.OwnerID != fmt.Sprint(user.ID) {
		t.Errorf("Expected owner %d, got %s", user.ID, link.OwnerID)
	}
}

func TestCreateLinkRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	resp := doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "https://example.com", Slug: "abc"}, "")

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestCreateLinkDuplicateSlug(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	userA := createTestUser(t, db, "a@example.com")
	userB := createTestUser(t, db, "b@example.com")

	resp := doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "https://example.com", Slug: "abc"}, getAuthHeader(userA))
	if resp.Code != http.StatusCreated {
		t.Fatalf("First create failed: %d %s", resp.Code, resp.Body.String())
	}

	// Slug uniqueness is global, so a different user collides too
	resp = doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "http://x.com", Slug: "abc"}, getAuthHeader(userB))
	if resp.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d: %s", resp.Code, resp.Body.String())
	}

	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	if env.Success || env.Error != "This slug is already taken" {
		t.Errorf("Unexpected envelope: %s", resp.Body.String())
	}
}

func TestCreateLinkInvalidSlug(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")

	resp := doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "https://example.com", Slug: "ab"}, getAuthHeader(user))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.Code)
	}

	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	if env.Error != "Slug must be at least 3 characters" {
		t.Errorf("Unexpected error message: %q", env.Error)
	}
}

func TestCreateLinkUnsafeURL(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")

	resp := doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "javascript:alert(1)", Slug: "abc"}, getAuthHeader(user))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}

	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	if env.Error != "Invalid URL protocol" {
		t.Errorf("Unexpected error message: %q", env.Error)
	}

	// Nothing was persisted
	var count int64
	db.Model(&models.Link{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no links persisted, got %d", count)
	}
}

func TestCreateLinkRateLimit(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")
	header := getAuthHeader(user)

	for i := 0; i < createLimit; i++ {
		resp := doJSON(router, "POST", "/api/links",
			CreateLinkRequest{URL: "https://example.com", Slug: fmt.Sprintf("slug-%d", i)}, header)
		if resp.Code != http.StatusCreated {
			t.Fatalf("Create %d failed: %d %s", i+1, resp.Code, resp.Body.String())
		}
	}

	resp := doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "https://example.com", Slug: "one-more"}, header)
	if resp.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateLinkByNonOwner(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	resp := doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "https://example.com", Slug: "abc"}, getAuthHeader(owner))
	if resp.Code != http.StatusCreated {
		t.Fatalf("Create failed: %d", resp.Code)
	}
	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var created LinkResponse
	json.Unmarshal(env.Data, &created)

	resp = doJSON(router, "PUT", fmt.Sprintf("/api/links/%d", created.ID),
		UpdateLinkRequest{URL: "https://evil.test", Slug: "abc"}, getAuthHeader(other))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}

	// The stored link is untouched
	var link models.Link
	db.First(&link, created.ID)
	if link.OriginalURL != "https://example.com" {
		t.Errorf("Link was modified by a non-owner: %q", link.OriginalURL)
	}
}

func TestUpdateLinkEndpoint(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")

	resp := doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "https://example.com", Slug: "abc"}, getAuthHeader(user))
	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var created LinkResponse
	json.Unmarshal(env.Data, &created)

	resp = doJSON(router, "PUT", fmt.Sprintf("/api/links/%d", created.ID),
		UpdateLinkRequest{URL: "https://example.org", Slug: "new-slug"}, getAuthHeader(user))
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	json.Unmarshal(resp.Body.Bytes(), &env)
	var updated LinkResponse
	json.Unmarshal(env.Data, &updated)
	if updated.Slug != "new-slug" || updated.URL != "https://example.org" {
		t.Errorf("Unexpected link after update: %+v", updated)
	}
}

func TestDeleteLinkEndpoint(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")

	resp := doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "https://example.com", Slug: "abc"}, getAuthHeader(user))
	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var created LinkResponse
	json.Unmarshal(env.Data, &created)

	resp = doJSON(router, "DELETE", fmt.Sprintf("/api/links/%d", created.ID), nil, getAuthHeader(user))
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var count int64
	db.Model(&models.Link{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected hard delete, %d rows remain", count)
	}
}

func TestDeleteLinkInvalidID(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")

	resp := doJSON(router, "DELETE", "/api/links/not-a-number", nil, getAuthHeader(user))
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

func TestListLinks(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com")
	other := createTestUser(t, db, "other@example.com")
	header := getAuthHeader(user)

	for i := 0; i < 3; i++ {
		doJSON(router, "POST", "/api/links",
			CreateLinkRequest{URL: "https://example.com", Slug: fmt.Sprintf("mine-%d", i)}, header)
	}
	doJSON(router, "POST", "/api/links",
		CreateLinkRequest{URL: "https://example.com", Slug: "theirs"}, getAuthHeader(other))

	resp := doJSON(router, "GET", "/api/links", nil, header)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var listed []LinkResponse
	json.Unmarshal(env.Data, &listed)

	if len(listed) != 3 {
		t.Fatalf("Expected 3 links, got %d", len(listed))
	}
	for _, l := range listed {
		if l.OwnerID != fmt.Sprint(user.ID) {
			t.Errorf("Listing leaked a foreign link: %+v", l)
		}
	}
}
