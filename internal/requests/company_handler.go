package requests

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/queue"
	"github.com/workdeck/backend/pkg/response"
	"github.com/workdeck/backend/pkg/utils"
)

// CreateCompanyRequestBody is the body for POST /company-requests.
type CreateCompanyRequestBody struct {
	CompanyName string  `json:"company_name" binding:"required"`
	CompanySlug string  `json:"company_slug" binding:"required,min=2,max=64"`
	Description *string `json:"description"`
	Reason      *string `json:"reason"`
}

// UpdateCompanyRequestBody is the body for PATCH /company-requests/:id.
type UpdateCompanyRequestBody struct {
	CompanyName *string `json:"company_name"`
	CompanySlug *string `json:"company_slug"`
	Description *string `json:"description"`
	Reason      *string `json:"reason"`
}

// ReviewBody is shared by both request review endpoints.
type ReviewBody struct {
	Action      string  `json:"action" binding:"required,oneof=approve reject"`
	ReviewNotes *string `json:"review_notes"`
}

func parseStatus(c *gin.Context) (*models.RequestStatus, bool) {
	s := c.Query("status")
	if s == "" {
		return nil, true
	}
	switch models.RequestStatus(s) {
	case models.RequestPending, models.RequestApproved, models.RequestRejected, models.RequestCancelled:
		v := models.RequestStatus(s)
		return &v, true
	}
	response.BadRequest(c, "invalid status")
	return nil, false
}

// CompanyRequestHandler handles company request endpoints.
type CompanyRequestHandler struct {
	repo   *CompanyRequestRepository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewCompanyRequestHandler creates a company request handler.
func NewCompanyRequestHandler(repo *CompanyRequestRepository, q *queue.Queue, logger *zap.Logger) *CompanyRequestHandler {
	return &CompanyRequestHandler{repo: repo, queue: q, logger: logger}
}

// Create handles POST /company-requests.
func (h *CompanyRequestHandler) Create(c *gin.Context) {
	var req CreateCompanyRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cr, err := h.repo.Create(c.Request.Context(), middleware.UserID(c),
		req.CompanyName, req.CompanySlug, req.Description, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cr)
}

// ListMine handles GET /company-requests.
func (h *CompanyRequestHandler) ListMine(c *gin.Context) {
	page, limit, offset := utils.ParsePagination(c)
	status, ok := parseStatus(c)
	if !ok {
		return
	}
	userID := middleware.UserID(c)
	list, total, err := h.repo.List(c.Request.Context(), &userID, status, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Paginated{Items: list, Pagination: response.NewPage(page, limit, total)})
}

// ListAll handles GET /admin/company-requests. Platform-admin only.
func (h *CompanyRequestHandler) ListAll(c *gin.Context) {
	page, limit, offset := utils.ParsePagination(c)
	status, ok := parseStatus(c)
	if !ok {
		return
	}
	list, total, err := h.repo.List(c.Request.Context(), nil, status, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Paginated{Items: list, Pagination: response.NewPage(page, limit, total)})
}

// Get handles GET /company-requests/:id. Requesters see their own; platform
// admins see all.
func (h *CompanyRequestHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	cr, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !middleware.IsPlatformAdmin(c) && cr.UserID != middleware.UserID(c) {
		response.Forbidden(c, "you can only view your own requests")
		return
	}
	response.OK(c, cr)
}

// Update handles PATCH /company-requests/:id.
func (h *CompanyRequestHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	var req UpdateCompanyRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cr, err := h.repo.Update(c.Request.Context(), id, middleware.UserID(c),
		req.CompanyName, req.CompanySlug, req.Description, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cr)
}

// Cancel handles POST /company-requests/:id/cancel.
func (h *CompanyRequestHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	cr, err := h.repo.Cancel(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cr)
}

// Review handles POST /admin/company-requests/:id/review. Platform-admin only. The
// requester gets a decision email through the worker; a failed enqueue never
// blocks the review.
func (h *CompanyRequestHandler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	var req ReviewBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	cr, err := h.repo.Review(ctx, id, middleware.UserID(c), req.Action == "approve", req.ReviewNotes)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.queue != nil && cr.User != nil {
		emailErr := h.queue.EnqueueRequestReviewed(ctx, queue.RequestReviewedPayload{
			RequestID:      cr.ID,
			RequestKind:    "company_request",
			Status:         string(cr.Status),
			RecipientEmail: cr.User.Email,
			RecipientName:  cr.User.FullName,
		})
		if emailErr != nil {
			h.logger.Warn("enqueue review email", zap.Error(emailErr), zap.String("request_id", cr.ID.String()))
		}
	}
	response.OK(c, cr)
}
