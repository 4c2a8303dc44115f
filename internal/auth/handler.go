package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/response"
	"github.com/workdeck/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// MeResponse is the aggregate for GET /auth/me.
type MeResponse struct {
	models.UserPublic
	IsPlatformAdmin   bool        `json:"is_platform_admin"`
	GlobalPermissions []string    `json:"global_permissions"`
	Companies         []MeCompany `json:"companies"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo     *Repository
	jwt      *JWTService
	resolver *authz.Resolver
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, resolver *authz.Resolver, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, resolver: resolver, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if user.IsDisabled {
		response.Error(c, apperr.Forbidden("account is disabled"))
		return
	}

	if err := h.repo.TouchLastLogin(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn("record last login", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /auth/me. Returns the profile plus resolved platform-admin
// flag, global permission keys, and company memberships with effective
// permissions.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	ctx := c.Request.Context()

	user, err := h.repo.GetByID(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	isAdmin, err := h.resolver.IsPlatformAdmin(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	globalPerms, err := h.repo.GlobalPermissionKeys(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	companies, err := h.repo.ActiveCompanies(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if globalPerms == nil {
		globalPerms = []string{}
	}
	if companies == nil {
		companies = []MeCompany{}
	}
	response.OK(c, MeResponse{
		UserPublic:        user.ToPublic(),
		IsPlatformAdmin:   isAdmin,
		GlobalPermissions: globalPerms,
		Companies:         companies,
	})
}
