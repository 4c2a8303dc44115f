package memberships

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/internal/middleware"
	"github.com/workdeck/backend/internal/realtime"
	"github.com/workdeck/backend/pkg/queue"
	"github.com/workdeck/backend/pkg/response"
)

// InviteRequest is the body for POST /companies/:id/members/invite.
type InviteRequest struct {
	UserID     uuid.UUID `json:"user_id" binding:"required"`
	Position   *string   `json:"position"`
	Department *string   `json:"department"`
}

// ReplaceRolesRequest is the body for PATCH /companies/:id/members/:member_id/roles.
type ReplaceRolesRequest struct {
	RoleIDs []uuid.UUID `json:"role_ids"`
}

// CreateRoleRequest is the body for POST /companies/:id/roles.
type CreateRoleRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// UpdateRoleRequest is the body for PATCH /companies/:id/roles/:role_id.
type UpdateRoleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// SetRolePermissionsRequest is the body for PUT /companies/:id/roles/:role_id/permissions.
type SetRolePermissionsRequest struct {
	PermissionKeys []string `json:"permission_keys"`
}

// Handler handles membership, role and invitation endpoints.
type Handler struct {
	repo     *Repository
	resolver *authz.Resolver
	hub      *realtime.Hub
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewHandler creates a memberships handler.
func NewHandler(repo *Repository, resolver *authz.Resolver, hub *realtime.Hub, q *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, resolver: resolver, hub: hub, queue: q, logger: logger}
}

func (h *Handler) companyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return uuid.Nil, false
	}
	return id, true
}

// Members handles GET /companies/:id/members. Members and admins may view.
func (h *Handler) Members(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertMember(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.repo.Members(ctx, companyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// NonMembers handles GET /companies/:id/members/search, a typeahead for
// the invite flow. Owner/Admin only.
func (h *Handler) NonMembers(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.repo.SearchNonMembers(ctx, companyID, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Invite handles POST /companies/:id/members/invite. Owner/Admin only. The
// invited user gets a realtime event immediately and an email through the
// worker; neither failure blocks the invite.
func (h *Handler) Invite(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}

	m, err := h.repo.Invite(ctx, companyID, req.UserID, req.Position, req.Department)
	if err != nil {
		response.Error(c, err)
		return
	}

	inv, err := h.repo.InvitationFor(ctx, m)
	if err != nil {
		h.logger.Warn("build invitation payload", zap.Error(err), zap.String("membership_id", m.ID.String()))
	} else {
		h.hub.SendToUser(req.UserID, "invitation:new", inv)
		if h.queue != nil && m.User != nil {
			emailErr := h.queue.EnqueueInvitationEmail(ctx, queue.InvitationEmailPayload{
				MembershipID:   m.ID,
				CompanyID:      companyID,
				CompanyName:    inv.Company.Name,
				RecipientEmail: m.User.Email,
				RecipientName:  m.User.FullName,
			})
			if emailErr != nil {
				h.logger.Warn("enqueue invitation email", zap.Error(emailErr))
			}
		}
	}

	response.Created(c, m)
}

// ReplaceRoles handles PUT /companies/:id/members/:member_id/roles.
// Owner/Admin only. The request carries the complete new role set.
func (h *Handler) ReplaceRoles(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	memberID, err := uuid.Parse(c.Param("member_id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	var req ReplaceRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	m, err := h.repo.ReplaceRoles(ctx, companyID, memberID, req.RoleIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

// RemoveMember handles DELETE /companies/:id/members/:member_id. Owner/Admin
// only.
func (h *Handler) RemoveMember(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	memberID, err := uuid.Parse(c.Param("member_id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repo.RemoveMember(ctx, companyID, memberID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "member removed"})
}

// Roles handles GET /companies/:id/roles. Members may view.
func (h *Handler) Roles(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertMember(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.repo.Roles(ctx, companyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// CreateRole handles POST /companies/:id/roles. Owner/Admin only.
func (h *Handler) CreateRole(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	role, err := h.repo.CreateRole(ctx, companyID, req.Name, req.Description, req.Color)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, role)
}

// UpdateRole handles PATCH /companies/:id/roles/:role_id. Owner/Admin only.
func (h *Handler) UpdateRole(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	roleID, err := uuid.Parse(c.Param("role_id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	role, err := h.repo.UpdateRole(ctx, companyID, roleID, req.Name, req.Description, req.Color)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, role)
}

// DeleteRole handles DELETE /companies/:id/roles/:role_id. Owner/Admin only;
// system roles are undeletable for everyone.
func (h *Handler) DeleteRole(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	roleID, err := uuid.Parse(c.Param("role_id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repo.DeleteRole(ctx, companyID, roleID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "role deleted"})
}

// SetRolePermissions handles PUT /companies/:id/roles/:role_id/permissions.
// Owner/Admin only.
func (h *Handler) SetRolePermissions(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	roleID, err := uuid.Parse(c.Param("role_id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	var req SetRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.resolver.AssertOwnerOrAdmin(ctx, middleware.UserID(c), companyID, middleware.IsPlatformAdmin(c)); err != nil {
		response.Error(c, err)
		return
	}
	role, err := h.repo.SetRolePermissions(ctx, companyID, roleID, req.PermissionKeys)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, role)
}

// PendingInvitations handles GET /invitations.
func (h *Handler) PendingInvitations(c *gin.Context) {
	list, err := h.repo.PendingInvitations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// AcceptInvitation handles POST /invitations/:membership_id/accept.
func (h *Handler) AcceptInvitation(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("membership_id"))
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}
	if err := h.repo.AcceptInvitation(c.Request.Context(), middleware.UserID(c), membershipID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "invitation accepted"})
}

// DeclineInvitation handles POST /invitations/:membership_id/decline.
func (h *Handler) DeclineInvitation(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("membership_id"))
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}
	if err := h.repo.DeclineInvitation(c.Request.Context(), middleware.UserID(c), membershipID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "invitation declined"})
}
