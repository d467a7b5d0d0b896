// Package handler exposes the platform's HTTP API on gin.
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/internal/service"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/response"
)

// AuthHandler handles registration, login, and account routes.
type AuthHandler struct {
	users *service.UserService
	mw    *auth.Middleware
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(users *service.UserService, mw *auth.Middleware) *AuthHandler {
	return &AuthHandler{users: users, mw: mw}
}

// RegisterRoutes registers auth and user routes.
func (h *AuthHandler) RegisterRoutes(api *gin.RouterGroup) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}

	users := api.Group("/users")
	users.Use(h.mw.RequireAuth())
	{
		users.GET("/me", h.GetMe)
	}

	admin := api.Group("/admin/users")
	admin.Use(h.mw.RequireAuth(), h.mw.RequireRole(auth.RoleAdmin))
	{
		admin.GET("", h.ListUsers)
		admin.PUT("/:id/roles", h.AssignRoles)
		admin.DELETE("/:id", h.DeleteUser)
	}
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.users.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Conflict(c, "email already registered")
			return
		}
		log.Ctx(ctx).Error().Err(err).Msg("register failed")
		response.InternalError(c, "failed to register")
		return
	}
	response.Created(c, result)
}

// Login handles credential login.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.users.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		log.Ctx(ctx).Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}
	response.Success(c, result)
}

// Refresh exchanges a refresh token for a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.users.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			response.Unauthorized(c, "invalid refresh token")
			return
		}
		log.Ctx(ctx).Error().Err(err).Msg("refresh failed")
		response.InternalError(c, "failed to refresh")
		return
	}
	response.Success(c, result)
}

// GetMe returns the caller's profile.
func (h *AuthHandler) GetMe(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	user, err := h.users.Get(c.Request.Context(), p.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "profile not found")
			return
		}
		response.InternalError(c, "failed to load profile")
		return
	}
	response.Success(c, user)
}

// ListUsers returns a page of profiles. Admin only.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), pageFrom(c))
	if err != nil {
		response.InternalError(c, "failed to list users")
		return
	}
	response.Success(c, users)
}

// AssignRoles replaces a user's role set. Admin only.
func (h *AuthHandler) AssignRoles(c *gin.Context) {
	var req domain.RoleAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.AssignRoles(c.Request.Context(), c.Param("id"), req.Roles)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to assign roles")
		return
	}
	response.Success(c, user)
}

// DeleteUser removes an account. Admin only.
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	err := h.users.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to delete user")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
