package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newAuthRouter() (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)

	var captured uuid.UUID
	engine := gin.New()
	engine.GET("/protected", Auth(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		captured = userID
		c.Status(http.StatusOK)
	})
	return engine, &captured
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	engine, _ := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("WWW-Authenticate header must be set")
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "wrong scheme", header: "Basic abc"},
		{name: "no token", header: "Bearer "},
		{name: "not a uuid", header: "Bearer not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newAuthRouter()

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuthAcceptsValidToken(t *testing.T) {
	engine, captured := newAuthRouter()
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+userID.String())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if *captured != userID {
		t.Errorf("user id = %s, want %s", *captured, userID)
	}
}
