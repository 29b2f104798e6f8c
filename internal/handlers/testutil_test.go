package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bugbridge-dev/bugbridge/db"
	"github.com/bugbridge-dev/bugbridge/internal/auth"
	"github.com/bugbridge-dev/bugbridge/internal/models"
	"github.com/bugbridge-dev/bugbridge/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setupTestDB points the package-level connection at a throwaway sqlite
// database and runs the migrations. A file under t.TempDir() rather than
// :memory: so every pooled connection sees the same database.
func setupTestDB(t *testing.T) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("Failed to init JWT secret: %v", err)
	}

	dbPath := filepath.Join(t.TempDir(), "bugbridge-test.db")

	conn, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	db.DB = conn

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
}

func createTestUser(t *testing.T, name, email string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()

	token, err := auth.GenerateJWT(user.ID, user.Email)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	return token
}

// doRequest hits the full router so middleware and routing are exercised,
// not just the handler body.
func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}

	decodeJSON(t, w, &body)
	return body.Code
}

func newTestRouter() *gin.Engine {
	return router.NewRouter()
}

func seedProject(t *testing.T, owner models.User, title string) models.Project {
	t.Helper()

	project := models.Project{
		Title:       title,
		Description: "seeded",
		OwnerID:     owner.ID,
	}

	if err := db.DB.Create(&project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}

	return project
}

func seedMembership(t *testing.T, project models.Project, user models.User) {
	t.Helper()

	membership := models.ProjectMembership{
		UserID:    user.ID,
		ProjectID: project.ID,
	}

	if err := db.DB.Create(&membership).Error; err != nil {
		t.Fatalf("Failed to seed membership: %v", err)
	}
}

func seedTask(t *testing.T, project models.Project, title, priority string) models.Task {
	t.Helper()

	task := models.Task{
		Title:     title,
		ProjectID: project.ID,
		Status:    "Todo",
		Priority:  priority,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}

	return task
}

func seedComment(t *testing.T, task models.Task, user models.User, text string) models.Comment {
	t.Helper()

	comment := models.Comment{
		Text:   text,
		TaskID: task.ID,
		UserID: user.ID,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		t.Fatalf("Failed to seed comment: %v", err)
	}

	return comment
}
