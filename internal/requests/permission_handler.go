package requests

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/pkg/queue"
	"github.com/workdeck/backend/pkg/response"
	"github.com/workdeck/backend/pkg/utils"
)

// CreatePermissionRequestBody is the body for POST /permission-requests.
type CreatePermissionRequestBody struct {
	PermissionID uuid.UUID `json:"permission_id" binding:"required"`
	Reason       *string   `json:"reason"`
}

// UpdatePermissionRequestBody is the body for PATCH /permission-requests/:id.
type UpdatePermissionRequestBody struct {
	Reason *string `json:"reason"`
}

// PermissionRequestHandler handles permission request endpoints.
type PermissionRequestHandler struct {
	repo   *PermissionRequestRepository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewPermissionRequestHandler creates a permission request handler.
func NewPermissionRequestHandler(repo *PermissionRequestRepository, q *queue.Queue, logger *zap.Logger) *PermissionRequestHandler {
	return &PermissionRequestHandler{repo: repo, queue: q, logger: logger}
}

// Available handles GET /permissions/available.
func (h *PermissionRequestHandler) Available(c *gin.Context) {
	list, err := h.repo.AvailablePermissions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /permission-requests.
func (h *PermissionRequestHandler) Create(c *gin.Context) {
	var req CreatePermissionRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pr, err := h.repo.Create(c.Request.Context(), middleware.UserID(c), req.PermissionID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pr)
}

// ListMine handles GET /permission-requests.
func (h *PermissionRequestHandler) ListMine(c *gin.Context) {
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

// ListAll handles GET /admin/permission-requests. Platform-admin only.
func (h *PermissionRequestHandler) ListAll(c *gin.Context) {
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

// Get handles GET /permission-requests/:id. Requesters see their own;
// platform admins see all.
func (h *PermissionRequestHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	pr, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !middleware.IsPlatformAdmin(c) && pr.UserID != middleware.UserID(c) {
		response.Forbidden(c, "you can only view your own requests")
		return
	}
	response.OK(c, pr)
}

// Update handles PATCH /permission-requests/:id.
func (h *PermissionRequestHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	var req UpdatePermissionRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pr, err := h.repo.Update(c.Request.Context(), id, middleware.UserID(c), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pr)
}

// Cancel handles POST /permission-requests/:id/cancel.
func (h *PermissionRequestHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	pr, err := h.repo.Cancel(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pr)
}

// Review handles POST /admin/permission-requests/:id/review. Platform-admin only.
func (h *PermissionRequestHandler) Review(c *gin.Context) {
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

	pr, err := h.repo.Review(ctx, id, middleware.UserID(c), req.Action == "approve", req.ReviewNotes)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.queue != nil && pr.User != nil {
		emailErr := h.queue.EnqueueRequestReviewed(ctx, queue.RequestReviewedPayload{
			RequestID:      pr.ID,
			RequestKind:    "permission_request",
			Status:         string(pr.Status),
			RecipientEmail: pr.User.Email,
			RecipientName:  pr.User.FullName,
		})
		if emailErr != nil {
			h.logger.Warn("enqueue review email", zap.Error(emailErr), zap.String("request_id", pr.ID.String()))
		}
	}
	response.OK(c, pr)
}
