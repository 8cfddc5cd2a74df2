package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"exam-service/configs"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	configs.AppConfig = &configs.Config{JWTSecret: "test-secret"}
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("user id = %q, want user-1", claims.UserID)
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	if _, err := ValidateJWT(""); err == nil {
		t.Error("empty token should be rejected")
	}
	if _, err := ValidateJWT("not-a-token"); err == nil {
		t.Error("malformed token should be rejected")
	}
}

func TestGetUserIDFromTokenUnwrapsObjectID(t *testing.T) {
	token, err := GenerateJWT(`ObjectID("507f1f77bcf86cd799439011")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer "+token)

	userID, err := GetUserIDFromToken(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "507f1f77bcf86cd799439011" {
		t.Errorf("user id = %q, want the unwrapped hex id", userID)
	}
}

func TestAuthRequired(t *testing.T) {
	router := gin.New()
	router.GET("/protected", AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", w.Code)
	}

	token, err := GenerateJWT("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status with token = %d, want 200", w.Code)
	}
}
