package companies

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/response"
	"github.com/workdeck/backend/pkg/utils"
)

// CreateRequest is the body for POST /companies.
type CreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Slug        string  `json:"slug" binding:"required,min=2,max=64"`
	Logo        *string `json:"logo"`
	Description *string `json:"description"`
}

// UpdateRequest is the body for PATCH /companies/:id.
type UpdateRequest struct {
	Name        *string               `json:"name"`
	Slug        *string               `json:"slug"`
	Logo        *string               `json:"logo"`
	Description *string               `json:"description"`
	Status      *models.CompanyStatus `json:"status" binding:"omitempty,oneof=ACTIVE SUSPENDED"`
}

// Handler handles company HTTP endpoints.
type Handler struct {
	repo     *Repository
	resolver *authz.Resolver
}

// NewHandler creates a companies handler.
func NewHandler(repo *Repository, resolver *authz.Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

// Create handles POST /companies. The router guards it with the
// COMPANY:CREATE global permission; platform admins pass implicitly.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	co, err := h.repo.CreateWithOwner(ctx, req.Name, req.Slug, req.Logo, req.Description, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, co)
}

// List handles GET /admin/companies. Non-admins only see companies they belong to
// through GET /auth/me; this listing is platform-admin only.
func (h *Handler) List(c *gin.Context) {
	page, limit, offset := utils.ParsePagination(c)

	var status *models.CompanyStatus
	if s := c.Query("status"); s != "" {
		if s != string(models.CompanyActive) && s != string(models.CompanySuspended) {
			response.BadRequest(c, "invalid status")
			return
		}
		v := models.CompanyStatus(s)
		status = &v
	}

	list, total, err := h.repo.List(c.Request.Context(), ListFilter{
		Search:         c.Query("search"),
		Status:         status,
		IncludeDeleted: c.Query("include_deleted") == "true",
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Paginated{Items: list, Pagination: response.NewPage(page, limit, total)})
}

// Get handles GET /companies/:id. Members and platform admins only.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return
	}
	ctx := c.Request.Context()

	if err := h.resolver.AssertMember(ctx, middleware.UserID(c), id, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	co, err := h.repo.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, co)
}

// GetBySlug handles GET /company-by-slug/:slug.
func (h *Handler) GetBySlug(c *gin.Context) {
	ctx := c.Request.Context()
	co, err := h.repo.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.resolver.AssertMember(ctx, middleware.UserID(c), co.ID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, co)
}

// Update handles PATCH /companies/:id. Owner/Admin only.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), id, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	co, err := h.repo.Update(ctx, id, req.Name, req.Slug, req.Logo, req.Description, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, co)
}

// Delete handles DELETE /companies/:id, a soft delete. Owner/Admin only.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return
	}
	ctx := c.Request.Context()

	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), id, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repo.SoftDelete(ctx, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "company deleted"})
}

// Restore handles POST /admin/companies/:id/restore. Platform-admin only.
func (h *Handler) Restore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return
	}
	co, err := h.repo.Restore(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, co)
}
