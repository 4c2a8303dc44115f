package clients

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/pkg/response"
	"github.com/workdeck/backend/pkg/utils"
)

// CreateClientRequest is the body for POST /clients.
type CreateClientRequest struct {
	CompanyID   uuid.UUID `json:"company_id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	ContactName *string   `json:"contact_name"`
	Email       *string   `json:"email" binding:"omitempty,email"`
	Phone       *string   `json:"phone"`
}

// UpdateClientRequest is the body for PATCH /clients/:id.
type UpdateClientRequest struct {
	Name        *string `json:"name"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone"`
	IsActive    *bool   `json:"is_active"`
}

// SiteRequest is the body for site create and update.
type SiteRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"is_active"`
}

// RateRuleRequest is the body for rate rule create and update.
type RateRuleRequest struct {
	Name                string     `json:"name" binding:"required"`
	BaseRatePerHour     *float64   `json:"base_rate_per_hour"`
	OvertimeRatePerHour float64    `json:"overtime_rate_per_hour" binding:"required"`
	OvertimeTriggers    []string   `json:"overtime_triggers" binding:"dive,oneof=MANUAL WEEKEND AFTER_HOURS"`
	WorkdayStartTime    *string    `json:"workday_start_time"`
	WorkdayEndTime      *string    `json:"workday_end_time"`
	Workdays            []int32    `json:"workdays" binding:"dive,min=0,max=6"`
	EffectiveFrom       time.Time  `json:"effective_from" binding:"required" time_format:"2006-01-02"`
	EffectiveTo         *time.Time `json:"effective_to" time_format:"2006-01-02"`
	IsActive            *bool      `json:"is_active"`
}

// ResourceRequest is the body for resource create and update.
type ResourceRequest struct {
	Name            *string  `json:"name"`
	BaseRatePerHour *float64 `json:"base_rate_per_hour"`
	IsActive        *bool    `json:"is_active"`
}

// Handler handles client HTTP endpoints. Mutations need Owner/Admin; reads
// need active membership.
type Handler struct {
	repo     *Repository
	resolver *authz.Resolver
}

// NewHandler creates a clients handler.
func NewHandler(repo *Repository, resolver *authz.Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

// clientCompany resolves the company owning the client in the path.
func (h *Handler) clientCompany(c *gin.Context) (clientID, companyID uuid.UUID, ok bool) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return uuid.Nil, uuid.Nil, false
	}
	companyID, err = h.repo.CompanyOf(c.Request.Context(), clientID)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return clientID, companyID, true
}

// Create handles POST /clients. Owner/Admin only.
func (h *Handler) Create(c *gin.Context) {
	var req CreateClientRequest
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
	cl, err := h.repo.Create(ctx, req.CompanyID, req.Name, req.ContactName, req.Email, req.Phone, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cl)
}

// List handles GET /clients?company_id=. Members may view.
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

// Get handles GET /clients/:id. Members may view.
func (h *Handler) Get(c *gin.Context) {
	clientID, companyID, ok := h.clientCompany(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertMember(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	cl, err := h.repo.GetByID(ctx, clientID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cl)
}

// Update handles PATCH /clients/:id. Owner/Admin only.
func (h *Handler) Update(c *gin.Context) {
	clientID, companyID, ok := h.clientCompany(c)
	if !ok {
		return
	}
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	cl, err := h.repo.Update(ctx, clientID, req.Name, req.ContactName, req.Email, req.Phone, req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cl)
}

// Delete handles DELETE /clients/:id. Owner/Admin only.
func (h *Handler) Delete(c *gin.Context) {
	clientID, companyID, ok := h.clientCompany(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repo.Delete(ctx, clientID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "client deleted"})
}

// CreateSite handles POST /clients/:id/sites. Owner/Admin only.
func (h *Handler) CreateSite(c *gin.Context) {
	clientID, companyID, ok := h.clientCompany(c)
	if !ok {
		return
	}
	var req SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Name == nil || *req.Name == "" {
		response.BadRequest(c, "name is required")
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	site, err := h.repo.CreateSite(ctx, clientID, *req.Name, req.Address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, site)
}

// siteCompany resolves the company owning the site in the path.
func (h *Handler) siteCompany(c *gin.Context) (siteID, companyID uuid.UUID, ok bool) {
	siteID, err := uuid.Parse(c.Param("site_id"))
	if err != nil {
		response.BadRequest(c, "invalid site id")
		return uuid.Nil, uuid.Nil, false
	}
	ctx := c.Request.Context()
	clientID, err := h.repo.ClientOfSite(ctx, siteID)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	companyID, err = h.repo.CompanyOf(ctx, clientID)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return siteID, companyID, true
}

// UpdateSite handles PATCH /client-sites/:site_id. Owner/Admin only.
func (h *Handler) UpdateSite(c *gin.Context) {
	siteID, companyID, ok := h.siteCompany(c)
	if !ok {
		return
	}
	var req SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	site, err := h.repo.UpdateSite(ctx, siteID, req.Name, req.Address, req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, site)
}

// DeleteSite handles DELETE /client-sites/:site_id. Owner/Admin only.
func (h *Handler) DeleteSite(c *gin.Context) {
	siteID, companyID, ok := h.siteCompany(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repo.DeleteSite(ctx, siteID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "site deleted"})
}

func (r RateRuleRequest) toInput() RateRuleInput {
	triggers := r.OvertimeTriggers
	if triggers == nil {
		triggers = []string{}
	}
	workdays := r.Workdays
	if workdays == nil {
		workdays = []int32{}
	}
	return RateRuleInput{
		Name:                r.Name,
		BaseRatePerHour:     r.BaseRatePerHour,
		OvertimeRatePerHour: r.OvertimeRatePerHour,
		OvertimeTriggers:    triggers,
		WorkdayStartTime:    r.WorkdayStartTime,
		WorkdayEndTime:      r.WorkdayEndTime,
		Workdays:            workdays,
		EffectiveFrom:       r.EffectiveFrom,
		EffectiveTo:         r.EffectiveTo,
	}
}

// CreateRateRule handles POST /clients/:id/rate-rules. Owner/Admin only.
func (h *Handler) CreateRateRule(c *gin.Context) {
	clientID, companyID, ok := h.clientCompany(c)
	if !ok {
		return
	}
	var req RateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	rule, err := h.repo.CreateRateRule(ctx, clientID, req.toInput(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// ruleCompany resolves the company owning the rate rule in the path.
func (h *Handler) ruleCompany(c *gin.Context) (ruleID, companyID uuid.UUID, ok bool) {
	ruleID, err := uuid.Parse(c.Param("rule_id"))
	if err != nil {
		response.BadRequest(c, "invalid rate rule id")
		return uuid.Nil, uuid.Nil, false
	}
	ctx := c.Request.Context()
	clientID, err := h.repo.ClientOfRule(ctx, ruleID)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	companyID, err = h.repo.CompanyOf(ctx, clientID)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return ruleID, companyID, true
}

// UpdateRateRule handles PUT /rate-rules/:rule_id. Owner/Admin only.
func (h *Handler) UpdateRateRule(c *gin.Context) {
	ruleID, companyID, ok := h.ruleCompany(c)
	if !ok {
		return
	}
	var req RateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	rule, err := h.repo.UpdateRateRule(ctx, ruleID, req.toInput(), req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rule)
}

// DeleteRateRule handles DELETE /rate-rules/:rule_id. Owner/Admin only.
func (h *Handler) DeleteRateRule(c *gin.Context) {
	ruleID, companyID, ok := h.ruleCompany(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repo.DeleteRateRule(ctx, ruleID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "rate rule deleted"})
}

// CreateResource handles POST /rate-rules/:rule_id/resources. Owner/Admin only.
func (h *Handler) CreateResource(c *gin.Context) {
	ruleID, companyID, ok := h.ruleCompany(c)
	if !ok {
		return
	}
	var req ResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Name == nil || *req.Name == "" || req.BaseRatePerHour == nil {
		response.BadRequest(c, "name and base_rate_per_hour are required")
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.repo.CreateResource(ctx, ruleID, *req.Name, *req.BaseRatePerHour)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// resourceCompany resolves the company owning the resource in the path.
func (h *Handler) resourceCompany(c *gin.Context) (resourceID, companyID uuid.UUID, ok bool) {
	resourceID, err := uuid.Parse(c.Param("resource_id"))
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return uuid.Nil, uuid.Nil, false
	}
	ctx := c.Request.Context()
	ruleID, err := h.repo.RuleOfResource(ctx, resourceID)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	clientID, err := h.repo.ClientOfRule(ctx, ruleID)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	companyID, err = h.repo.CompanyOf(ctx, clientID)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return resourceID, companyID, true
}

// UpdateResource handles PATCH /rate-resources/:resource_id. Owner/Admin only.
func (h *Handler) UpdateResource(c *gin.Context) {
	resourceID, companyID, ok := h.resourceCompany(c)
	if !ok {
		return
	}
	var req ResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.repo.UpdateResource(ctx, resourceID, req.Name, req.BaseRatePerHour, req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// DeleteResource handles DELETE /rate-resources/:resource_id. Owner/Admin only.
func (h *Handler) DeleteResource(c *gin.Context) {
	resourceID, companyID, ok := h.resourceCompany(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repo.DeleteResource(ctx, resourceID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "resource deleted"})
}
