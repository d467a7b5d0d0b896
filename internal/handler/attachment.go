package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/internal/service"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/response"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/storage"
)

// AttachmentHandler handles file upload and download routes.
type AttachmentHandler struct {
	attachments *service.AttachmentService
	mw          *auth.Middleware
}

// NewAttachmentHandler creates the attachment handler.
func NewAttachmentHandler(attachments *service.AttachmentService, mw *auth.Middleware) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments, mw: mw}
}

// RegisterRoutes registers attachment routes.
func (h *AttachmentHandler) RegisterRoutes(api *gin.RouterGroup) {
	attachments := api.Group("/attachments")
	attachments.Use(h.mw.RequireAuth())
	{
		attachments.POST("", h.Upload)
		attachments.GET("/:id", h.Get)
		attachments.GET("/:id/url", h.DownloadURL)
		attachments.DELETE("/:id", h.Delete)
	}
}

// Upload stores a multipart file linked to a ticket or message.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	entityType := c.PostForm("entity_type")
	entityID := c.PostForm("entity_id")
	if entityType == "" || entityID == "" {
		response.BadRequest(c, "entity_type and entity_id are required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer f.Close()

	p := auth.PrincipalFrom(c)
	a, err := h.attachments.Upload(c.Request.Context(), p.Subject, entityType, entityID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), f, fileHeader.Size)
	if err != nil {
		if errors.Is(err, service.ErrFileTooLarge) {
			response.PayloadTooLarge(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Created(c, a)
}

// Get returns attachment metadata.
func (h *AttachmentHandler) Get(c *gin.Context) {
	a, err := h.attachments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "attachment not found")
			return
		}
		response.InternalError(c, "failed to load attachment")
		return
	}
	response.Success(c, a)
}

// DownloadURL returns a short-lived download link.
func (h *AttachmentHandler) DownloadURL(c *gin.Context) {
	url, err := h.attachments.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, storage.ErrNotFound) {
			response.NotFound(c, "attachment not found")
			return
		}
		response.InternalError(c, "failed to sign url")
		return
	}
	response.Success(c, gin.H{"url": url})
}

// Delete removes an attachment the caller owns.
func (h *AttachmentHandler) Delete(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	err := h.attachments.Delete(c.Request.Context(), c.Param("id"), p.Subject)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.NotFound(c, "attachment not found")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "not your attachment")
		default:
			response.InternalError(c, "failed to delete attachment")
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
