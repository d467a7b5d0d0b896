package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/response"
)

// AppHandler consumes an inbound application command sent to a destination
// under its registered prefix.
type AppHandler func(ctx context.Context, c *Client, d Destination, body []byte) error

// Handler owns the websocket endpoint: it authenticates the handshake,
// attaches the principal, and dispatches frames.
type Handler struct {
	authenticator *auth.Authenticator
	broker        Broker
	rules         *RuleTable
	opts          Options
	authRequired  bool
	upgrader      websocket.Upgrader

	apps map[string]AppHandler
}

// NewHandler creates the websocket handler.
func NewHandler(authenticator *auth.Authenticator, broker Broker, rules *RuleTable, opts Options, authRequired bool, allowedOrigins []string) *Handler {
	return &Handler{
		authenticator: authenticator,
		broker:        broker,
		rules:         rules,
		opts:          opts,
		authRequired:  authRequired,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"), allowedOrigins)
			},
		},
		apps: make(map[string]AppHandler),
	}
}

// RegisterApp routes inbound sends under the given /app prefix.
func (h *Handler) RegisterApp(prefix string, fn AppHandler) {
	h.apps[prefix] = fn
}

// Handle authenticates the handshake and upgrades the connection. The check
// happens exactly once here; frames after the handshake reuse the attached
// principal.
func (h *Handler) Handle(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		// Browser websocket clients cannot set headers on the upgrade
		// request, so a token query parameter is accepted as well.
		token = c.Query("token")
	}

	principal := auth.Anonymous
	if token == "" {
		if h.authRequired {
			response.Unauthorized(c, "authentication required")
			return
		}
	} else {
		p, err := h.authenticator.Validate(c.Request.Context(), token)
		if err != nil {
			if h.authRequired {
				l.Debug().Err(err).Msg("handshake rejected: invalid credential")
				response.Unauthorized(c, "invalid credential")
				return
			}
		} else {
			principal = p
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(uuid.New().String(), principal, conn, h.broker, h.opts)
	l.Debug().Str(log.FieldConnID, client.ID).Str(log.FieldUserID, principal.Subject).Msg("connection opened")

	go client.WritePump()
	go client.ReadPump(h.handleFrame)
}

func (h *Handler) handleFrame(client *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		client.SendFrame(NewErrorFrame(ErrCodeBadRequest, "invalid frame"))
		return
	}

	switch frame.Type {
	case FrameSubscribe:
		d, err := ParseDestination(frame.Destination)
		if err != nil || d.Kind == KindApp {
			client.SendFrame(NewErrorFrame(ErrCodeBadRequest, "invalid subscribe destination"))
			return
		}
		if !h.rules.Authorize(OpSubscribe, d, client.Principal) {
			client.SendFrame(NewErrorFrame(ErrCodeUnauthorized, "subscription denied"))
			return
		}
		h.broker.Subscribe(client, d)

	case FrameUnsubscribe:
		d, err := ParseDestination(frame.Destination)
		if err != nil {
			client.SendFrame(NewErrorFrame(ErrCodeBadRequest, "invalid destination"))
			return
		}
		h.broker.Unsubscribe(client, d)

	case FrameSend:
		d, err := ParseDestination(frame.Destination)
		if err != nil || d.Kind != KindApp {
			client.SendFrame(NewErrorFrame(ErrCodeBadRequest, "sends must target an /app destination"))
			return
		}
		if !h.rules.Authorize(OpSend, d, client.Principal) {
			client.SendFrame(NewErrorFrame(ErrCodeUnauthorized, "send denied"))
			return
		}
		h.dispatchApp(client, d, frame.Body)

	case FramePing:
		client.SendFrame(Frame{Type: FramePong})

	default:
		client.SendFrame(NewErrorFrame(ErrCodeBadRequest, "unknown frame type"))
	}
}

func (h *Handler) dispatchApp(client *Client, d Destination, body []byte) {
	for prefix, fn := range h.apps {
		if prefixMatch(d.Path, prefix) {
			if err := fn(context.Background(), client, d, body); err != nil {
				client.SendFrame(NewErrorFrame(ErrCodeInternal, err.Error()))
			}
			return
		}
	}
	client.SendFrame(NewErrorFrame(ErrCodeBadRequest, "unknown application destination"))
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	return token, token != ""
}

// originAllowed matches an Origin header against the configured patterns. A
// pattern is an exact origin, "*", or a single-wildcard form like
// "https://*.example.com". Requests without an Origin header (non-browser
// clients) are allowed.
func originAllowed(origin string, patterns []string) bool {
	if origin == "" {
		return true
	}
	for _, p := range patterns {
		if p == "*" || p == origin {
			return true
		}
		if i := strings.Index(p, "*"); i >= 0 {
			prefix, suffix := p[:i], p[i+1:]
			if len(origin) >= len(prefix)+len(suffix) &&
				strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
				return true
			}
		}
	}
	return false
}
