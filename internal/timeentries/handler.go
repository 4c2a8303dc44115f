package timeentries

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/pkg/response"
	"github.com/workdeck/backend/pkg/utils"
)

const dateLayout = "2006-01-02"

// CreateEntryRequest is the body for POST /time-entries.
type CreateEntryRequest struct {
	CompanyID      uuid.UUID  `json:"company_id" binding:"required"`
	UserID         *uuid.UUID `json:"user_id"`
	ProjectID      *uuid.UUID `json:"project_id"`
	ClientID       *uuid.UUID `json:"client_id"`
	CategoryID     *uuid.UUID `json:"category_id"`
	Date           time.Time  `json:"date" binding:"required" time_format:"2006-01-02"`
	Hours          float64    `json:"hours" binding:"required,gt=0,lte=24"`
	StartTime      *string    `json:"start_time"`
	EndTime        *string    `json:"end_time"`
	Title          string     `json:"title" binding:"required"`
	Description    *string    `json:"description"`
	ManualOvertime *bool      `json:"manual_overtime"`
}

// UpdateEntryRequest is the body for PATCH /time-entries/:id.
type UpdateEntryRequest struct {
	ProjectID      *uuid.UUID `json:"project_id"`
	ClientID       *uuid.UUID `json:"client_id"`
	CategoryID     *uuid.UUID `json:"category_id"`
	Date           *time.Time `json:"date" time_format:"2006-01-02"`
	Hours          *float64   `json:"hours" binding:"omitempty,gt=0,lte=24"`
	StartTime      *string    `json:"start_time"`
	EndTime        *string    `json:"end_time"`
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	ManualOvertime *bool      `json:"manual_overtime"`
}

// Handler handles time entry HTTP endpoints. Authorization lives in the
// service; the handler only parses and translates.
type Handler struct {
	service *Service
}

// NewHandler creates a time entries handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /time-entries.
func (h *Handler) Create(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.service.Create(c.Request.Context(), middleware.UserID(c), middleware.IsPlatformAdmin(c), CreateInput{
		CompanyID:      req.CompanyID,
		UserID:         req.UserID,
		ProjectID:      req.ProjectID,
		ClientID:       req.ClientID,
		CategoryID:     req.CategoryID,
		Date:           req.Date,
		Hours:          req.Hours,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Title:          req.Title,
		Description:    req.Description,
		ManualOvertime: req.ManualOvertime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, e)
}

// List handles GET /time-entries with optional filters.
func (h *Handler) List(c *gin.Context) {
	page, limit, offset := utils.ParsePagination(c)
	f := ListFilter{Limit: limit, Offset: offset}

	var companyID *uuid.UUID
	if s := c.Query("company_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid company_id")
			return
		}
		companyID = &id
	}
	for param, dst := range map[string]**uuid.UUID{
		"project_id":  &f.ProjectID,
		"user_id":     &f.UserID,
		"client_id":   &f.ClientID,
		"category_id": &f.CategoryID,
	} {
		if s := c.Query(param); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				response.BadRequest(c, "invalid "+param)
				return
			}
			*dst = &id
		}
	}
	if s := c.Query("is_overtime"); s != "" {
		v := s == "true"
		f.IsOvertime = &v
	}
	for param, dst := range map[string]**time.Time{
		"start_date": &f.StartDate,
		"end_date":   &f.EndDate,
	} {
		if s := c.Query(param); s != "" {
			d, err := time.Parse(dateLayout, s)
			if err != nil {
				response.BadRequest(c, param+" must be YYYY-MM-DD")
				return
			}
			*dst = &d
		}
	}

	list, total, err := h.service.List(c.Request.Context(), middleware.UserID(c), middleware.IsPlatformAdmin(c), companyID, f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, response.Paginated{Items: list, Pagination: response.NewPage(page, limit, total)})
}

// Get handles GET /time-entries/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid time entry id")
		return
	}
	e, err := h.service.Get(c.Request.Context(), middleware.UserID(c), middleware.IsPlatformAdmin(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /time-entries/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid time entry id")
		return
	}
	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.service.Update(c.Request.Context(), middleware.UserID(c), middleware.IsPlatformAdmin(c), id, UpdateInput{
		ProjectID:      req.ProjectID,
		ClientID:       req.ClientID,
		CategoryID:     req.CategoryID,
		Date:           req.Date,
		Hours:          req.Hours,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Title:          req.Title,
		Description:    req.Description,
		ManualOvertime: req.ManualOvertime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /time-entries/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid time entry id")
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c), middleware.IsPlatformAdmin(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "time entry deleted"})
}

// Summary handles GET /time-summary.
func (h *Handler) Summary(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		response.BadRequest(c, "company_id is required")
		return
	}
	actorID := middleware.UserID(c)
	userID := actorID
	if s := c.Query("user_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		userID = id
	}
	start, err := time.Parse(dateLayout, c.Query("start_date"))
	if err != nil {
		response.BadRequest(c, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end_date"))
	if err != nil {
		response.BadRequest(c, "end_date must be YYYY-MM-DD")
		return
	}

	s, err := h.service.UserSummary(c.Request.Context(), actorID, middleware.IsPlatformAdmin(c), companyID, userID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, s)
}
