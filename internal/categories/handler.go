package categories

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/pkg/response"
)

// CreateCategoryRequest is the body for POST /time-entry-categories.
type CreateCategoryRequest struct {
	CompanyID uuid.UUID `json:"company_id" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	Color     *string   `json:"color"`
	IsDefault bool      `json:"is_default"`
}

// UpdateCategoryRequest is the body for PATCH /time-entry-categories/:id.
type UpdateCategoryRequest struct {
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	IsDefault *bool   `json:"is_default"`
	IsActive  *bool   `json:"is_active"`
}

// Handler handles time entry category endpoints. Only company owners and
// admins manage the set; members read it.
type Handler struct {
	repo     *Repository
	resolver *authz.Resolver
}

// NewHandler creates a categories handler.
func NewHandler(repo *Repository, resolver *authz.Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

// Create handles POST /time-entry-categories.
func (h *Handler) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	if err := h.resolver.AssertOwnerOrAdmin(ctx, userID, req.CompanyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	cat, err := h.repo.Create(ctx, req.CompanyID, req.Name, req.Color, req.IsDefault, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cat)
}

// List handles GET /time-entry-categories?company_id=.
func (h *Handler) List(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		response.BadRequest(c, "company_id is required")
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertMember(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}

	var isActive *bool
	if s := c.Query("is_active"); s != "" {
		v := s == "true"
		isActive = &v
	}
	list, err := h.repo.List(ctx, companyID, isActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// categoryForManage loads the category and asserts Owner/Admin on its company.
func (h *Handler) categoryForManage(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid category id")
		return uuid.Nil, false
	}
	ctx := c.Request.Context()
	cat, err := h.repo.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, false
	}
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), cat.CompanyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// Update handles PATCH /time-entry-categories/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.categoryForManage(c)
	if !ok {
		return
	}
	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cat, err := h.repo.Update(c.Request.Context(), id, req.Name, req.Color, req.IsDefault, req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cat)
}

// Delete handles DELETE /time-entry-categories/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.categoryForManage(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "category deleted"})
}
