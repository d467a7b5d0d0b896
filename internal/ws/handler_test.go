package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
)

type staticProvider struct {
	valid map[string]string // token -> subject
}

func (p *staticProvider) Verify(_ context.Context, token string) (*auth.Claims, error) {
	subject, ok := p.valid[token]
	if !ok {
		return nil, auth.ErrInvalidCredential
	}
	return &auth.Claims{Subject: subject, Roles: []string{auth.RoleUser}}, nil
}

func newTestServer(t *testing.T, authRequired bool) (*httptest.Server, *LocalBroker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := &staticProvider{valid: map[string]string{
		"good-token":  "u1",
		"other-token": "u2",
	}}
	authenticator := auth.NewAuthenticator(provider, time.Minute)
	broker := NewLocalBroker(65536)
	rules := NewRuleTable(DefaultRules(authRequired))
	opts := Options{
		MessageMaxSize:  65536,
		SendBufferLimit: 524288,
		SendTimeLimit:   15 * time.Second,
		PingInterval:    30 * time.Second,
		PongWait:        60 * time.Second,
	}
	h := NewHandler(authenticator, broker, rules, opts, authRequired, []string{"*"})

	r := gin.New()
	r.GET("/ws", h.Handle)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, broker
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	return dialer.Dial(url, header)
}

func TestHandshakeGatekeeper(t *testing.T) {
	t.Run("required and missing token", func(t *testing.T) {
		server, _ := newTestServer(t, true)
		conn, resp, err := dial(t, wsURL(server), nil)
		if err == nil {
			conn.Close()
			t.Fatal("handshake should have been rejected")
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %v, want 401", resp)
		}
	})

	t.Run("required and invalid token", func(t *testing.T) {
		server, _ := newTestServer(t, true)
		header := http.Header{"Authorization": []string{"Bearer bogus"}}
		conn, resp, err := dial(t, wsURL(server), header)
		if err == nil {
			conn.Close()
			t.Fatal("handshake should have been rejected")
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %v, want 401", resp)
		}
	})

	t.Run("required and valid bearer token", func(t *testing.T) {
		server, _ := newTestServer(t, true)
		header := http.Header{"Authorization": []string{"Bearer good-token"}}
		conn, _, err := dial(t, wsURL(server), header)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		conn.Close()
	})

	t.Run("required and valid query token", func(t *testing.T) {
		server, _ := newTestServer(t, true)
		conn, _, err := dial(t, wsURL(server)+"?token=good-token", nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		conn.Close()
	})

	t.Run("optional and missing token connects anonymously", func(t *testing.T) {
		server, _ := newTestServer(t, false)
		conn, _, err := dial(t, wsURL(server), nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		conn.Close()
	})

	t.Run("optional and invalid token connects anonymously", func(t *testing.T) {
		server, _ := newTestServer(t, false)
		header := http.Header{"Authorization": []string{"Bearer bogus"}}
		conn, _, err := dial(t, wsURL(server), header)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		conn.Close()
	})
}

func TestSubscribeAndReceive(t *testing.T) {
	server, broker := newTestServer(t, true)

	header := http.Header{"Authorization": []string{"Bearer good-token"}}
	conn, _, err := dial(t, wsURL(server), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := Frame{Type: FrameSubscribe, Destination: "/topic/room/1"}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	// The subscribe frame is processed asynchronously; wait for the broker
	// to register it before publishing.
	room := mustDest(t, "/topic/room/1")
	deadline := time.Now().Add(2 * time.Second)
	for broker.SubscriberCount(room) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := broker.Publish(room, []byte(`"hello"`)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != FrameMessage || frame.Destination != "/topic/room/1" {
		t.Fatalf("frame = %+v", frame)
	}
	var body string
	if err := json.Unmarshal(frame.Body, &body); err != nil || body != "hello" {
		t.Fatalf("body = %s", frame.Body)
	}
}

func TestSubscribeDenied(t *testing.T) {
	server, _ := newTestServer(t, true)

	header := http.Header{"Authorization": []string{"Bearer good-token"}}
	conn, _, err := dial(t, wsURL(server), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := Frame{Type: FrameSubscribe, Destination: "/topic/admin/alerts"}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != FrameError || frame.Code != ErrCodeUnauthorized {
		t.Fatalf("frame = %+v, want unauthorized error", frame)
	}
}

func TestPingPong(t *testing.T) {
	server, _ := newTestServer(t, false)

	conn, _, err := dial(t, wsURL(server), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Frame{Type: FramePing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != FramePong {
		t.Fatalf("frame = %+v, want pong", frame)
	}
}

func TestOriginAllowed(t *testing.T) {
	cases := []struct {
		origin   string
		patterns []string
		want     bool
	}{
		{"", []string{"https://app.example.com"}, true}, // non-browser client
		{"https://app.example.com", []string{"*"}, true},
		{"https://app.example.com", []string{"https://app.example.com"}, true},
		{"https://evil.example.net", []string{"https://app.example.com"}, false},
		{"https://a.example.com", []string{"https://*.example.com"}, true},
		{"https://a.b.example.com", []string{"https://*.example.com"}, true},
		{"https://example.org", []string{"https://*.example.com"}, false},
	}
	for _, tc := range cases {
		if got := originAllowed(tc.origin, tc.patterns); got != tc.want {
			t.Errorf("originAllowed(%q, %v) = %v, want %v", tc.origin, tc.patterns, got, tc.want)
		}
	}
}
