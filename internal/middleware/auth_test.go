package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret")

	r := gin.New()
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		actor := GetActor(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":  actor.UserID,
			"username": actor.Username,
			"role":     string(actor.Role),
		})
	})
	r.GET("/admin", AuthRequired(), AdminRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func request(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := newAuthRouter(t)

	token, err := utils.GenerateToken(7, "agent1", string(models.RoleAgent), 1)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc123", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := request(r, "/me", tc.header)
			if w.Code != tc.status {
				t.Errorf("status = %d, expected %d (body %s)", w.Code, tc.status, w.Body.String())
			}
		})
	}
}

func TestAdminRequired(t *testing.T) {
	r := newAuthRouter(t)

	agentToken, err := utils.GenerateToken(7, "agent1", string(models.RoleAgent), 1)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	adminToken, err := utils.GenerateToken(1, "admin", string(models.RoleAdmin), 1)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if w := request(r, "/admin", "Bearer "+agentToken); w.Code != http.StatusForbidden {
		t.Errorf("agent on admin route: status = %d, expected 403", w.Code)
	}
	if w := request(r, "/admin", "Bearer "+adminToken); w.Code != http.StatusOK {
		t.Errorf("admin on admin route: status = %d, expected 200", w.Code)
	}
}

func TestUserActive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	active := models.User{Username: "alive", Role: models.RoleAgent, AuthType: "local", IsActive: true}
	disabled := models.User{Username: "disabled", Role: models.RoleAgent, AuthType: "local", IsActive: true}
	db.Create(&active)
	db.Create(&disabled)
	// Create then flip: the column default would swallow a zero-value false
	// on insert.
	db.Model(&disabled).Update("is_active", false)

	r := gin.New()
	r.GET("/ping", AuthRequired(), UserActive(db), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	cases := []struct {
		name   string
		userID uint
		status int
	}{
		{"active user", active.ID, http.StatusOK},
		{"disabled user", disabled.ID, http.StatusUnauthorized},
		{"deleted user", 9999, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := utils.GenerateToken(tc.userID, "x", string(models.RoleAgent), 1)
			if err != nil {
				t.Fatalf("generate token: %v", err)
			}
			if w := request(r, "/ping", "Bearer "+token); w.Code != tc.status {
				t.Errorf("status = %d, expected %d", w.Code, tc.status)
			}
		})
	}
}
