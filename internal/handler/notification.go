package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/service"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/response"
)

// NotificationHandler exposes administrative announcement routes.
type NotificationHandler struct {
	notifier *service.NotificationService
	mw       *auth.Middleware
}

// NewNotificationHandler creates the notification handler.
func NewNotificationHandler(notifier *service.NotificationService, mw *auth.Middleware) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, mw: mw}
}

// RegisterRoutes registers announcement routes.
func (h *NotificationHandler) RegisterRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin/announcements")
	admin.Use(h.mw.RequireAuth(), h.mw.RequireRole(auth.RoleAdmin))
	{
		admin.POST("", h.Announce)
	}
}

// Announce pushes an announcement to the shared notifications topic, or
// to a single role's topic when one is given. Admin only.
func (h *NotificationHandler) Announce(c *gin.Context) {
	var req domain.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.Role != "" {
		h.notifier.NotifyRole(req.Role, domain.NotifySystem, req.Title, req.Content)
	} else {
		h.notifier.Broadcast(domain.NotifySystem, req.Title, req.Content)
	}
	response.Success(c, gin.H{"sent": true})
}
