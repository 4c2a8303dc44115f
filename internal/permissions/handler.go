package permissions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/response"
	"github.com/workdeck/backend/pkg/utils"
)

// CreateRequest is the body for POST /admin/permissions.
type CreateRequest struct {
	Key         string                 `json:"key" binding:"required"`
	Description *string                `json:"description"`
	Scope       models.PermissionScope `json:"scope" binding:"required,oneof=GLOBAL COMPANY"`
}

// UpdateRequest is the body for PATCH /admin/permissions/:id.
type UpdateRequest struct {
	Key         *string                 `json:"key"`
	Description *string                 `json:"description"`
	Scope       *models.PermissionScope `json:"scope" binding:"omitempty,oneof=GLOBAL COMPANY"`
}

// GrantRequest is the body for POST /admin/permissions/grant.
type GrantRequest struct {
	UserID        uuid.UUID `json:"user_id" binding:"required"`
	PermissionKey string    `json:"permission_key" binding:"required"`
}

// Handler exposes the catalog management endpoints. All routes are mounted
// behind the platform-admin middleware.
type Handler struct {
	repo *Repository
}

// NewHandler creates a permissions handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /admin/permissions.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.repo.Create(c.Request.Context(), req.Key, req.Description, req.Scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// List handles GET /admin/permissions with search, scope and pagination params.
func (h *Handler) List(c *gin.Context) {
	page, limit, offset := utils.ParsePagination(c)
	search := c.Query("search")

	var scope *models.PermissionScope
	if s := c.Query("scope"); s != "" {
		if s != string(models.ScopeGlobal) && s != string(models.ScopeCompany) {
			response.BadRequest(c, "invalid scope")
			return
		}
		v := models.PermissionScope(s)
		scope = &v
	}

	list, total, err := h.repo.List(c.Request.Context(), search, scope, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Paginated{Items: list, Pagination: response.NewPage(page, limit, total)})
}

// All handles GET /admin/permission-catalog, the unpaginated catalog for pickers.
func (h *Handler) All(c *gin.Context) {
	list, err := h.repo.All(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /admin/permissions/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid permission id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Update handles PATCH /admin/permissions/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid permission id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.repo.Update(c.Request.Context(), id, req.Key, req.Description, req.Scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Delete handles DELETE /admin/permissions/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid permission id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "permission deleted"})
}

// Grant handles POST /admin/permissions/grant, a direct GLOBAL grant to a user.
func (h *Handler) Grant(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	perm, err := h.repo.GetByKey(ctx, req.PermissionKey)
	if err != nil {
		response.Error(c, err)
		return
	}
	if perm.Scope != models.ScopeGlobal {
		response.BadRequest(c, "only GLOBAL permissions can be granted directly to users")
		return
	}
	grantedBy := middleware.UserID(c)
	if err := h.repo.GrantGlobal(ctx, req.UserID, perm.ID, grantedBy); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"message": "permission granted"})
}

// Revoke handles DELETE /admin/users/:id/permissions/:permission_id.
func (h *Handler) Revoke(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	permID, err := uuid.Parse(c.Param("permission_id"))
	if err != nil {
		response.BadRequest(c, "invalid permission id")
		return
	}
	if err := h.repo.RevokeGlobal(c.Request.Context(), userID, permID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "permission revoked"})
}

// UserGrants handles GET /admin/users/:id/permissions.
func (h *Handler) UserGrants(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	list, err := h.repo.UserGrants(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
