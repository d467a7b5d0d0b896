package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/internal/service"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/response"
)

// ExpertHandler handles expert profile and availability routes.
type ExpertHandler struct {
	experts *service.ExpertService
	mw      *auth.Middleware
}

// NewExpertHandler creates the expert handler.
func NewExpertHandler(experts *service.ExpertService, mw *auth.Middleware) *ExpertHandler {
	return &ExpertHandler{experts: experts, mw: mw}
}

// RegisterRoutes registers expert routes.
func (h *ExpertHandler) RegisterRoutes(api *gin.RouterGroup) {
	experts := api.Group("/experts")
	experts.Use(h.mw.RequireAuth())
	{
		experts.GET("", h.List)
		experts.GET("/:id", h.Get)
		experts.GET("/:id/slots", h.ListSlots)

		experts.POST("", h.mw.RequireRole(auth.RoleExpert, auth.RoleAdmin), h.Register)
		experts.PUT("/me/availability", h.mw.RequireRole(auth.RoleExpert), h.SetAvailable)
		experts.POST("/me/slots", h.mw.RequireRole(auth.RoleExpert), h.AddSlot)
		experts.DELETE("/me/slots/:slotID", h.mw.RequireRole(auth.RoleExpert), h.RemoveSlot)
	}
}

// Register creates the caller's expert profile.
func (h *ExpertHandler) Register(c *gin.Context) {
	var req domain.ExpertRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := auth.PrincipalFrom(c)
	expert, err := h.experts.Register(c.Request.Context(), p.Subject, &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			response.Conflict(c, "expert profile already exists")
			return
		}
		response.InternalError(c, "failed to register expert")
		return
	}
	response.Created(c, expert)
}

// List returns expert profiles. ?available=true narrows to those accepting
// work.
func (h *ExpertHandler) List(c *gin.Context) {
	experts, err := h.experts.List(c.Request.Context(), c.Query("available") == "true", pageFrom(c))
	if err != nil {
		response.InternalError(c, "failed to list experts")
		return
	}
	response.Success(c, experts)
}

// Get returns one expert profile.
func (h *ExpertHandler) Get(c *gin.Context) {
	expert, err := h.experts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "expert not found")
			return
		}
		response.InternalError(c, "failed to load expert")
		return
	}
	response.Success(c, expert)
}

// SetAvailable toggles whether the caller's profile accepts new work.
func (h *ExpertHandler) SetAvailable(c *gin.Context) {
	var req struct {
		Available bool `json:"available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	expert, ok := h.ownProfile(c)
	if !ok {
		return
	}
	updated, err := h.experts.SetAvailable(c.Request.Context(), expert.ID, req.Available)
	if err != nil {
		response.InternalError(c, "failed to update availability")
		return
	}
	response.Success(c, updated)
}

// AddSlot publishes a weekly availability window on the caller's profile.
func (h *ExpertHandler) AddSlot(c *gin.Context) {
	var req struct {
		Weekday     int `json:"weekday"`
		StartMinute int `json:"start_minute"`
		EndMinute   int `json:"end_minute"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	expert, ok := h.ownProfile(c)
	if !ok {
		return
	}
	slot, err := h.experts.AddSlot(c.Request.Context(), expert.ID, req.Weekday, req.StartMinute, req.EndMinute)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Created(c, slot)
}

// ListSlots returns an expert's availability windows.
func (h *ExpertHandler) ListSlots(c *gin.Context) {
	slots, err := h.experts.ListSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, "failed to list slots")
		return
	}
	response.Success(c, slots)
}

// RemoveSlot withdraws one of the caller's availability windows.
func (h *ExpertHandler) RemoveSlot(c *gin.Context) {
	if _, ok := h.ownProfile(c); !ok {
		return
	}
	if err := h.experts.RemoveSlot(c.Request.Context(), c.Param("slotID")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "slot not found")
			return
		}
		response.InternalError(c, "failed to remove slot")
		return
	}
	response.Success(c, gin.H{"removed": true})
}

func (h *ExpertHandler) ownProfile(c *gin.Context) (*domain.Expert, bool) {
	p := auth.PrincipalFrom(c)
	expert, err := h.experts.GetByUserID(c.Request.Context(), p.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "no expert profile")
			return nil, false
		}
		response.InternalError(c, "failed to load expert profile")
		return nil, false
	}
	return expert, true
}
