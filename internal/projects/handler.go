package projects

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/pkg/response"
	"github.com/workdeck/backend/pkg/utils"
)

// CreateProjectRequest is the body for POST /projects.
type CreateProjectRequest struct {
	CompanyID   uuid.UUID `json:"company_id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	Description *string   `json:"description"`
}

// UpdateProjectRequest is the body for PATCH /projects/:id.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// Handler handles project HTTP endpoints. Any active member of the company
// may create and manage projects.
type Handler struct {
	repo     *Repository
	resolver *authz.Resolver
}

// NewHandler creates a projects handler.
func NewHandler(repo *Repository, resolver *authz.Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

// projectCompany resolves the company owning the project in the path and
// asserts membership.
func (h *Handler) projectCompany(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return uuid.Nil, false
	}
	ctx := c.Request.Context()
	companyID, err := h.repo.CompanyOf(ctx, id)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, false
	}
	if err := h.resolver.AssertMember(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /projects.
func (h *Handler) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	if err := h.resolver.AssertMember(ctx, userID, req.CompanyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	p, err := h.repo.Create(ctx, req.CompanyID, req.Name, req.Description, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// List handles GET /projects?company_id=.
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

	page, limit, offset := utils.ParsePagination(c)
	var isActive *bool
	if s := c.Query("is_active"); s != "" {
		v := s == "true"
		isActive = &v
	}
	list, total, err := h.repo.List(ctx, companyID, c.Query("search"), isActive, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Paginated{Items: list, Pagination: response.NewPage(page, limit, total)})
}

// Get handles GET /projects/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.projectCompany(c)
	if !ok {
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Update handles PATCH /projects/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.projectCompany(c)
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.repo.Update(c.Request.Context(), id, req.Name, req.Description, req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Delete handles DELETE /projects/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.projectCompany(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "project deleted"})
}
