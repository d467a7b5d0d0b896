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

// ConsultationHandler handles consultation booking routes.
type ConsultationHandler struct {
	consultations *service.ConsultationService
	experts       *service.ExpertService
	mw            *auth.Middleware
}

// NewConsultationHandler creates the consultation handler.
func NewConsultationHandler(consultations *service.ConsultationService, experts *service.ExpertService, mw *auth.Middleware) *ConsultationHandler {
	return &ConsultationHandler{consultations: consultations, experts: experts, mw: mw}
}

// RegisterRoutes registers consultation routes.
func (h *ConsultationHandler) RegisterRoutes(api *gin.RouterGroup) {
	consultations := api.Group("/consultations")
	consultations.Use(h.mw.RequireAuth())
	{
		consultations.POST("", h.Book)
		consultations.GET("", h.List)
		consultations.GET("/:id", h.Get)
		consultations.PUT("/:id/cancel", h.Cancel)
		consultations.PUT("/:id/complete", h.mw.RequireRole(auth.RoleExpert), h.Complete)
	}
}

// Book schedules a consultation with an expert.
func (h *ConsultationHandler) Book(c *gin.Context) {
	var req domain.BookConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := auth.PrincipalFrom(c)
	booking, err := h.consultations.Book(c.Request.Context(), p.Subject, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.NotFound(c, "expert not found")
		case errors.Is(err, service.ErrSlotUnavailable):
			response.Conflict(c, "expert not available at that time")
		case errors.Is(err, service.ErrBookingConflict):
			response.Conflict(c, "time overlaps an existing booking")
		default:
			response.InternalError(c, "failed to book consultation")
		}
		return
	}
	response.Created(c, booking)
}

// List returns the caller's consultations. Experts see their bookings as
// provider, everyone sees their bookings as customer.
func (h *ConsultationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	p := auth.PrincipalFrom(c)

	if p.HasRole(auth.RoleExpert) && c.Query("as") == "expert" {
		expert, err := h.experts.GetByUserID(ctx, p.Subject)
		if err != nil {
			response.NotFound(c, "no expert profile")
			return
		}
		out, err := h.consultations.ListForExpert(ctx, expert.ID, pageFrom(c))
		if err != nil {
			response.InternalError(c, "failed to list consultations")
			return
		}
		response.Success(c, out)
		return
	}

	out, err := h.consultations.ListForUser(ctx, p.Subject, pageFrom(c))
	if err != nil {
		response.InternalError(c, "failed to list consultations")
		return
	}
	response.Success(c, out)
}

// Get returns one consultation visible to the caller.
func (h *ConsultationHandler) Get(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	booking, err := h.consultations.Get(c.Request.Context(), c.Param("id"), p.Subject)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, booking)
}

// Cancel cancels a scheduled consultation.
func (h *ConsultationHandler) Cancel(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	booking, err := h.consultations.Cancel(c.Request.Context(), c.Param("id"), p.Subject)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, booking)
}

// Complete marks a consultation done. Expert only.
func (h *ConsultationHandler) Complete(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	p := auth.PrincipalFrom(c)
	booking, err := h.consultations.Complete(c.Request.Context(), c.Param("id"), p.Subject, req.Notes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, booking)
}

func (h *ConsultationHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, "consultation not found")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "not your consultation")
	default:
		response.Conflict(c, err.Error())
	}
}
