package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/response"
)

type stubAuthzStore struct {
	admins map[uuid.UUID]bool
	grants map[uuid.UUID]bool
	perm   *models.Permission
}

func (s *stubAuthzStore) IsPlatformAdmin(_ context.Context, userID uuid.UUID) (bool, error) {
	return s.admins[userID], nil
}

func (s *stubAuthzStore) PermissionByKey(_ context.Context, _ string) (*models.Permission, error) {
	return s.perm, nil
}

func (s *stubAuthzStore) HasGlobalGrant(_ context.Context, userID, _ uuid.UUID) (bool, error) {
	return s.grants[userID], nil
}

func (s *stubAuthzStore) ActiveMembership(_ context.Context, _, _ uuid.UUID) (*models.Membership, error) {
	return nil, nil
}

func (s *stubAuthzStore) HasActiveRoleNamed(_ context.Context, _, _ uuid.UUID, _ []string) (bool, error) {
	return false, nil
}

func (s *stubAuthzStore) MembershipPermissionKeys(_ context.Context, _ uuid.UUID) ([]string, error) {
	return nil, nil
}

func newPermissionRouter(store *stubAuthzStore, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/companies",
		func(c *gin.Context) { c.Set(ContextUserID, userID) },
		RequireGlobalPermission(authz.NewResolver(store), "COMPANY:CREATE"),
		func(c *gin.Context) { response.OK(c, gin.H{"ok": true}) })
	return r
}

func TestRequireGlobalPermissionDeniesWithoutGrant(t *testing.T) {
	userID := uuid.New()
	store := &stubAuthzStore{
		admins: map[uuid.UUID]bool{},
		grants: map[uuid.UUID]bool{},
		perm:   &models.Permission{ID: uuid.New(), Key: "COMPANY:CREATE", Scope: models.ScopeGlobal},
	}
	r := newPermissionRouter(store, userID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/companies", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRequireGlobalPermissionAllowsGrantHolder(t *testing.T) {
	userID := uuid.New()
	store := &stubAuthzStore{
		admins: map[uuid.UUID]bool{},
		grants: map[uuid.UUID]bool{userID: true},
		perm:   &models.Permission{ID: uuid.New(), Key: "COMPANY:CREATE", Scope: models.ScopeGlobal},
	}
	r := newPermissionRouter(store, userID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/companies", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func TestRequireGlobalPermissionBypassesForPlatformAdmin(t *testing.T) {
	userID := uuid.New()
	store := &stubAuthzStore{
		admins: map[uuid.UUID]bool{userID: true},
		grants: map[uuid.UUID]bool{},
	}
	r := newPermissionRouter(store, userID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/companies", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}
