package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
)

// Options bound the transport behaviour of every connection.
type Options struct {
	MessageMaxSize  int
	SendBufferLimit int64
	SendTimeLimit   time.Duration
	PingInterval    time.Duration
	PongWait        time.Duration
}

const sendQueueFrames = 256

// Client is one connection. The Principal is attached during the handshake
// and reused for the connection's lifetime.
type Client struct {
	ID        string
	Principal *auth.Principal

	conn   *websocket.Conn
	broker Broker
	opts   Options

	send   chan []byte
	queued int64 // bytes sitting in send

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection.
func NewClient(id string, principal *auth.Principal, conn *websocket.Conn, broker Broker, opts Options) *Client {
	if principal == nil {
		principal = auth.Anonymous
	}
	return &Client{
		ID:        id,
		Principal: principal,
		conn:      conn,
		broker:    broker,
		opts:      opts,
		send:      make(chan []byte, sendQueueFrames),
		done:      make(chan struct{}),
	}
}

// enqueue appends data to the outbound buffer. It returns false when the
// byte budget or frame queue is exhausted; the caller tears the client down
// so one slow consumer never blocks the rest.
func (c *Client) enqueue(data []byte) bool {
	n := int64(len(data))
	if c.opts.SendBufferLimit > 0 && atomic.AddInt64(&c.queued, n) > c.opts.SendBufferLimit {
		atomic.AddInt64(&c.queued, -n)
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		atomic.AddInt64(&c.queued, -n)
		return false
	}
}

// SendFrame queues a frame for delivery, best effort.
func (c *Client) SendFrame(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	c.enqueue(data)
}

// terminate closes the connection exactly once. Subscriptions are removed by
// the broker before this is called.
func (c *Client) terminate() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// ReadPump processes inbound frames strictly in arrival order. It exits on
// read error or connection close, detaching the client from the broker.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.broker.Disconnect(c)
	}()

	if c.opts.MessageMaxSize > 0 {
		c.conn.SetReadLimit(int64(c.opts.MessageMaxSize))
	}
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.L().Debug().Str(log.FieldConnID, c.ID).Err(err).Msg("websocket read failed")
			}
			return
		}
		handler(c, message)
	}
}

// WritePump drains the send queue onto the wire with the configured send
// time limit per frame, and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.terminate()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.SendTimeLimit))
			err := c.conn.WriteMessage(websocket.TextMessage, data)
			atomic.AddInt64(&c.queued, -int64(len(data)))
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.SendTimeLimit))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.SendTimeLimit))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
