package ws

import "encoding/json"

// Frame types carried over the connection.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameSend        = "send"
	FrameMessage     = "message"
	FrameError       = "error"
	FramePing        = "ping"
	FramePong        = "pong"
)

// Error codes sent to clients in error frames.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeMessageTooLarge = "MESSAGE_TOO_LARGE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// Frame is the wire format for all client/server exchanges after the
// handshake.
type Frame struct {
	Type        string          `json:"type"`
	Destination string          `json:"destination,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
	Code        string          `json:"code,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// NewMessageFrame builds an outbound message frame for a destination.
func NewMessageFrame(destination string, body []byte) Frame {
	return Frame{Type: FrameMessage, Destination: destination, Body: body}
}

// NewErrorFrame builds an error frame. The connection stays open; error
// frames report rejected operations only.
func NewErrorFrame(code, message string) Frame {
	return Frame{Type: FrameError, Code: code, Message: message}
}
