package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/service"
	"github.com/drdata1010/plan-b-backend-sub001/internal/ws"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/response"
)

// ChatHandler handles chat session routes and the websocket chat command.
type ChatHandler struct {
	chats *service.ChatService
	mw    *auth.Middleware
}

// NewChatHandler creates the chat handler.
func NewChatHandler(chats *service.ChatService, mw *auth.Middleware) *ChatHandler {
	return &ChatHandler{chats: chats, mw: mw}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(api *gin.RouterGroup) {
	chat := api.Group("/chat")
	chat.Use(h.mw.RequireAuth())
	{
		chat.POST("/sessions", h.OpenSession)
		chat.GET("/sessions", h.ListSessions)
		chat.GET("/sessions/:id", h.GetSession)
		chat.DELETE("/sessions/:id", h.CloseSession)
		chat.POST("/sessions/:id/messages", h.PostMessage)
		chat.GET("/sessions/:id/messages", h.ListMessages)
		chat.PUT("/sessions/:id/read", h.MarkSessionRead)
		chat.PUT("/messages/:id/read", h.MarkRead)
		chat.GET("/unread", h.UnreadCount)
	}
}

// RegisterApp wires the inbound websocket chat command. Frames sent to
// /app/chat/{sessionID} post a message into that session as the connection's
// principal.
func (h *ChatHandler) RegisterApp(wsHandler *ws.Handler) {
	wsHandler.RegisterApp("/app/chat", func(ctx context.Context, client *ws.Client, d ws.Destination, body []byte) error {
		sessionID := strings.TrimPrefix(d.Path, "/app/chat/")
		if sessionID == "" || strings.Contains(sessionID, "/") {
			return ws.ErrInvalidDestination
		}

		var req domain.PostMessageRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return err
		}

		_, err := h.chats.PostMessage(ctx, sessionID, client.Principal.Subject, &req)
		return err
	})
}

// OpenSession starts a new chat session.
func (h *ChatHandler) OpenSession(c *gin.Context) {
	ctx := c.Request.Context()
	var req domain.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := auth.PrincipalFrom(c)
	session, err := h.chats.OpenSession(ctx, p.Subject, &req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("open session failed")
		response.InternalError(c, "failed to open session")
		return
	}
	response.Created(c, session)
}

// ListSessions returns the caller's sessions.
func (h *ChatHandler) ListSessions(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	sessions, err := h.chats.ListSessions(c.Request.Context(), p.Subject, pageFrom(c))
	if err != nil {
		response.InternalError(c, "failed to list sessions")
		return
	}
	response.Success(c, sessions)
}

// GetSession returns one session the caller participates in.
func (h *ChatHandler) GetSession(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	session, err := h.chats.GetSession(c.Request.Context(), c.Param("id"), p.Subject)
	if err != nil {
		h.writeError(c, err, "failed to load session")
		return
	}
	response.Success(c, session)
}

// CloseSession ends a session. Idempotent.
func (h *ChatHandler) CloseSession(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	session, err := h.chats.CloseSession(c.Request.Context(), c.Param("id"), p.Subject)
	if err != nil {
		h.writeError(c, err, "failed to close session")
		return
	}
	response.Success(c, session)
}

// PostMessage appends a message to the session.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req domain.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := auth.PrincipalFrom(c)
	msg, err := h.chats.PostMessage(c.Request.Context(), c.Param("id"), p.Subject, &req)
	if err != nil {
		h.writeError(c, err, "failed to post message")
		return
	}
	response.Created(c, msg)
}

// ListMessages returns the session's messages in posting order.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	msgs, err := h.chats.ListMessages(c.Request.Context(), c.Param("id"), p.Subject, pageFrom(c))
	if err != nil {
		h.writeError(c, err, "failed to list messages")
		return
	}
	response.Success(c, msgs)
}

// MarkRead flips one message to read.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	if err := h.chats.MarkRead(c.Request.Context(), c.Param("id"), p.Subject); err != nil {
		h.writeError(c, err, "failed to mark read")
		return
	}
	response.Success(c, gin.H{"read": true})
}

// MarkSessionRead flips every unread message in the session from other
// senders.
func (h *ChatHandler) MarkSessionRead(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	flipped, err := h.chats.MarkSessionRead(c.Request.Context(), c.Param("id"), p.Subject)
	if err != nil {
		h.writeError(c, err, "failed to mark session read")
		return
	}
	response.Success(c, gin.H{"marked": flipped})
}

// UnreadCount returns the caller's unread message total.
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	p := auth.PrincipalFrom(c)
	count, err := h.chats.UnreadCount(c.Request.Context(), p.Subject)
	if err != nil {
		response.InternalError(c, "failed to count unread")
		return
	}
	response.Success(c, gin.H{"unread": count})
}

func (h *ChatHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, "session not found")
	case errors.Is(err, service.ErrMessageNotFound):
		response.NotFound(c, "message not found")
	case errors.Is(err, service.ErrNotParticipant):
		response.Forbidden(c, "not a session participant")
	case errors.Is(err, service.ErrSessionClosed):
		response.Conflict(c, "session is closed")
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Msg(fallback)
		response.InternalError(c, fallback)
	}
}
