package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/auth"
	"github.com/workdeck/backend/pkg/response"
)

func newTestRouter(svc *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(svc), func(c *gin.Context) {
		response.OK(c, gin.H{"user_id": UserID(c).String()})
	})
	return r
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	r := newTestRouter(auth.NewJWTService("secret", 1))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	r := newTestRouter(auth.NewJWTService("secret", 1))

	for _, header := range []string{"Bearer", "Basic abc", "garbage"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, w.Code)
		}
	}
}

func TestJWTAcceptsValidToken(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := newTestRouter(svc)

	token, err := svc.Generate(uuid.New(), "user@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}
