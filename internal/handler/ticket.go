package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/service"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/response"
)

// TicketHandler handles ticket lifecycle routes.
type TicketHandler struct {
	tickets *service.TicketService
	mw      *auth.Middleware
}

// NewTicketHandler creates the ticket handler.
func NewTicketHandler(tickets *service.TicketService, mw *auth.Middleware) *TicketHandler {
	return &TicketHandler{tickets: tickets, mw: mw}
}

// RegisterRoutes registers ticket routes.
func (h *TicketHandler) RegisterRoutes(api *gin.RouterGroup) {
	tickets := api.Group("/tickets")
	tickets.Use(h.mw.RequireAuth())
	{
		tickets.POST("", h.Create)
		tickets.GET("", h.List)
		tickets.GET("/:id", h.Get)
		tickets.PUT("/:id", h.Update)
		tickets.PUT("/:id/status", h.Transition)
		tickets.PUT("/:id/assign", h.mw.RequireRole(auth.RoleSupport, auth.RoleAdmin), h.Assign)
		tickets.POST("/:id/comments", h.AddComment)
		tickets.GET("/:id/comments", h.ListComments)
	}
}

// Create opens a new ticket owned by the caller.
func (h *TicketHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var req domain.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := auth.PrincipalFrom(c)
	ticket, err := h.tickets.Create(ctx, p.Subject, &req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("create ticket failed")
		response.InternalError(c, "failed to create ticket")
		return
	}
	response.Created(c, ticket)
}

// List returns tickets. Plain users see their own; support and admin see
// all and may filter.
func (h *TicketHandler) List(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	filter := domain.TicketFilter{
		Status:   domain.TicketStatus(c.Query("status")),
		Priority: domain.TicketPriority(c.Query("priority")),
		Category: c.Query("category"),
	}
	if p.HasAnyRole(auth.RoleSupport, auth.RoleAdmin) {
		filter.UserID = c.Query("user_id")
		filter.AssignedExpertID = c.Query("assigned_expert_id")
		filter.Unassigned = c.Query("unassigned") == "true"
	} else if p.HasRole(auth.RoleExpert) {
		filter.AssignedExpertID = p.Subject
	} else {
		filter.UserID = p.Subject
	}

	tickets, err := h.tickets.List(c.Request.Context(), filter, pageFrom(c))
	if err != nil {
		response.InternalError(c, "failed to list tickets")
		return
	}
	response.Success(c, tickets)
}

// Get returns one ticket visible to the caller.
func (h *TicketHandler) Get(c *gin.Context) {
	ticket, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, ticket)
}

// Update edits mutable ticket fields.
func (h *TicketHandler) Update(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}

	var req domain.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ticket, err := h.tickets.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.InternalError(c, "failed to update ticket")
		return
	}
	response.Success(c, ticket)
}

// Transition moves the ticket to a new status.
func (h *TicketHandler) Transition(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}

	var req struct {
		Status domain.TicketStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := auth.PrincipalFrom(c)
	ticket, err := h.tickets.Transition(c.Request.Context(), c.Param("id"), req.Status, p.Subject)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, "failed to change status")
		return
	}
	response.Success(c, ticket)
}

// Assign hands the ticket to an expert. Support and admin only.
func (h *TicketHandler) Assign(c *gin.Context) {
	var req struct {
		ExpertUserID string `json:"expert_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := auth.PrincipalFrom(c)
	ticket, err := h.tickets.Assign(c.Request.Context(), c.Param("id"), req.ExpertUserID, p.Subject)
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			response.NotFound(c, "ticket not found")
			return
		}
		response.InternalError(c, "failed to assign ticket")
		return
	}
	response.Success(c, ticket)
}

// AddComment appends a comment.
func (h *TicketHandler) AddComment(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := auth.PrincipalFrom(c)
	comment, err := h.tickets.AddComment(c.Request.Context(), c.Param("id"), p.Subject, req.Content)
	if err != nil {
		response.InternalError(c, "failed to add comment")
		return
	}
	response.Created(c, comment)
}

// ListComments returns the ticket's comments.
func (h *TicketHandler) ListComments(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}

	comments, err := h.tickets.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, "failed to list comments")
		return
	}
	response.Success(c, comments)
}

// load fetches the ticket and enforces visibility: the owner, the assigned
// expert, and support/admin may see it.
func (h *TicketHandler) load(c *gin.Context) (*domain.Ticket, bool) {
	ticket, err := h.tickets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			response.NotFound(c, "ticket not found")
			return nil, false
		}
		response.InternalError(c, "failed to load ticket")
		return nil, false
	}

	p := auth.PrincipalFrom(c)
	if ticket.UserID != p.Subject &&
		!(ticket.AssignedExpertID != nil && *ticket.AssignedExpertID == p.Subject) &&
		!p.HasAnyRole(auth.RoleSupport, auth.RoleAdmin) {
		response.Forbidden(c, "not your ticket")
		return nil, false
	}
	return ticket, true
}
