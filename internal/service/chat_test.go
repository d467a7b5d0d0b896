package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/events"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/internal/ws"
)

// recordingBroker captures publishes instead of delivering them.
type recordingBroker struct {
	mu        sync.Mutex
	published map[string][][]byte // destination path -> payloads
}

func newRecordingBroker() *recordingBroker {
	return &recordingBroker{published: make(map[string][][]byte)}
}

func (b *recordingBroker) Subscribe(*ws.Client, ws.Destination)   {}
func (b *recordingBroker) Unsubscribe(*ws.Client, ws.Destination) {}
func (b *recordingBroker) Disconnect(*ws.Client)                  {}
func (b *recordingBroker) Close() error                           { return nil }

func (b *recordingBroker) Publish(d ws.Destination, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[d.Path] = append(b.published[d.Path], body)
	return nil
}

func (b *recordingBroker) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published[path])
}

type fakeResponder struct {
	mu         sync.Mutex
	calls      int
	historyLen int
	reply      string
	err        error
}

func (r *fakeResponder) Respond(_ context.Context, _ string, history []*domain.ChatMessage) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.historyLen = len(history)
	return r.reply, r.err
}

func newChatService(broker ws.Broker, ai AIResponder) (*ChatService, repository.ChatRepository) {
	chats := repository.NewMemoryChatRepository()
	notifier := NewNotificationService(broker)
	return NewChatService(chats, broker, notifier, events.NoopProducer{}, ai, 0), chats
}

func strPtr(s string) *string { return &s }

func TestChatSessionLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("open then close", func(t *testing.T) {
		svc, _ := newChatService(newRecordingBroker(), nil)

		session, err := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserExpert,
			ExpertID:    strPtr("u2"),
		})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if !session.Active || session.ID == "" {
			t.Fatalf("session = %+v", session)
		}

		closed, err := svc.CloseSession(ctx, session.ID, "u1")
		if err != nil {
			t.Fatalf("close: %v", err)
		}
		if closed.Active || closed.EndedAt == nil {
			t.Fatalf("closed = %+v", closed)
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		svc, _ := newChatService(newRecordingBroker(), nil)
		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{SessionType: domain.SessionUserAI})

		first, err := svc.CloseSession(ctx, session.ID, "u1")
		if err != nil {
			t.Fatalf("first close: %v", err)
		}
		second, err := svc.CloseSession(ctx, session.ID, "u1")
		if err != nil {
			t.Fatalf("second close: %v", err)
		}
		if !first.EndedAt.Equal(*second.EndedAt) {
			t.Fatal("second close changed EndedAt")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _ := newChatService(newRecordingBroker(), nil)
		if _, err := svc.GetSession(ctx, "nope", "u1"); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("err = %v, want ErrSessionNotFound", err)
		}
		if _, err := svc.PostMessage(ctx, "nope", "u1", &domain.PostMessageRequest{Content: "x"}); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("err = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("non-participant denied", func(t *testing.T) {
		svc, _ := newChatService(newRecordingBroker(), nil)
		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserExpert,
			ExpertID:    strPtr("u2"),
		})

		if _, err := svc.GetSession(ctx, session.ID, "intruder"); !errors.Is(err, ErrNotParticipant) {
			t.Fatalf("err = %v, want ErrNotParticipant", err)
		}
		if _, err := svc.PostMessage(ctx, session.ID, "intruder", &domain.PostMessageRequest{Content: "x"}); !errors.Is(err, ErrNotParticipant) {
			t.Fatalf("err = %v, want ErrNotParticipant", err)
		}
	})

	t.Run("post to closed session", func(t *testing.T) {
		svc, _ := newChatService(newRecordingBroker(), nil)
		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserExpert,
			ExpertID:    strPtr("u2"),
		})
		svc.CloseSession(ctx, session.ID, "u1")

		if _, err := svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "late"}); !errors.Is(err, ErrSessionClosed) {
			t.Fatalf("err = %v, want ErrSessionClosed", err)
		}
	})
}

func TestChatMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("message delivery targets room and counterpart queue", func(t *testing.T) {
		broker := newRecordingBroker()
		svc, _ := newChatService(broker, nil)
		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserExpert,
			ExpertID:    strPtr("u2"),
		})

		msg, err := svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "hello"})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		if msg.MessageType != domain.MessageText || msg.Read {
			t.Fatalf("msg = %+v", msg)
		}

		if got := broker.count("/topic/room/" + session.ID); got != 1 {
			t.Fatalf("room publishes = %d, want 1", got)
		}
		if got := broker.count("/user/u2/queue/messages"); got != 1 {
			t.Fatalf("counterpart queue publishes = %d, want 1", got)
		}
		if got := broker.count("/user/u1/queue/messages"); got != 0 {
			t.Fatalf("sender queue publishes = %d, want 0", got)
		}
	})

	t.Run("unread counting and mark read", func(t *testing.T) {
		svc, _ := newChatService(newRecordingBroker(), nil)
		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserExpert,
			ExpertID:    strPtr("u2"),
		})

		msg, err := svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "hello"})
		if err != nil {
			t.Fatalf("post: %v", err)
		}

		u2Unread, _ := svc.UnreadCount(ctx, "u2")
		if u2Unread != 1 {
			t.Fatalf("u2 unread = %d, want 1", u2Unread)
		}
		u1Unread, _ := svc.UnreadCount(ctx, "u1")
		if u1Unread != 0 {
			t.Fatalf("u1 unread = %d, want 0", u1Unread)
		}

		// The sender marking their own message is a no-op.
		if err := svc.MarkRead(ctx, msg.ID, "u1"); err != nil {
			t.Fatalf("sender mark read: %v", err)
		}
		if u2Unread, _ = svc.UnreadCount(ctx, "u2"); u2Unread != 1 {
			t.Fatalf("u2 unread after sender mark = %d, want 1", u2Unread)
		}

		if err := svc.MarkRead(ctx, msg.ID, "u2"); err != nil {
			t.Fatalf("recipient mark read: %v", err)
		}
		if u2Unread, _ = svc.UnreadCount(ctx, "u2"); u2Unread != 0 {
			t.Fatalf("u2 unread after mark = %d, want 0", u2Unread)
		}

		// Marking an already-read message stays a no-op.
		if err := svc.MarkRead(ctx, msg.ID, "u2"); err != nil {
			t.Fatalf("repeat mark read: %v", err)
		}
		if u2Unread, _ = svc.UnreadCount(ctx, "u2"); u2Unread != 0 {
			t.Fatalf("u2 unread after repeat mark = %d, want 0", u2Unread)
		}

		if err := svc.MarkRead(ctx, "missing", "u2"); !errors.Is(err, ErrMessageNotFound) {
			t.Fatalf("mark read unknown message err = %v, want ErrMessageNotFound", err)
		}
	})

	t.Run("mark session read flips all unread from other senders", func(t *testing.T) {
		svc, _ := newChatService(newRecordingBroker(), nil)
		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserExpert,
			ExpertID:    strPtr("u2"),
		})

		svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "one"})
		svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "two"})
		svc.PostMessage(ctx, session.ID, "u2", &domain.PostMessageRequest{Content: "three"})

		flipped, err := svc.MarkSessionRead(ctx, session.ID, "u2")
		if err != nil {
			t.Fatalf("mark session read: %v", err)
		}
		if flipped != 2 {
			t.Fatalf("flipped = %d, want 2", flipped)
		}
		if u2Unread, _ := svc.UnreadCount(ctx, "u2"); u2Unread != 0 {
			t.Fatalf("u2 unread = %d, want 0", u2Unread)
		}
		// u2's own message stays unread for u1.
		if u1Unread, _ := svc.UnreadCount(ctx, "u1"); u1Unread != 1 {
			t.Fatalf("u1 unread = %d, want 1", u1Unread)
		}
	})

	t.Run("list preserves posting order", func(t *testing.T) {
		svc, _ := newChatService(newRecordingBroker(), nil)
		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserExpert,
			ExpertID:    strPtr("u2"),
		})

		svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "one"})
		svc.PostMessage(ctx, session.ID, "u2", &domain.PostMessageRequest{Content: "two"})
		svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "three"})

		msgs, err := svc.ListMessages(ctx, session.ID, "u1", repository.Page{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("got %d messages, want 3", len(msgs))
		}
		for i, want := range []string{"one", "two", "three"} {
			if msgs[i].Content != want {
				t.Fatalf("message %d = %q, want %q", i, msgs[i].Content, want)
			}
		}
	})
}

func TestAIAssistantReply(t *testing.T) {
	ctx := context.Background()

	t.Run("ai session gets a generated reply", func(t *testing.T) {
		broker := newRecordingBroker()
		responder := &fakeResponder{reply: "how can I help?"}
		svc, chats := newChatService(broker, responder)

		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserAI,
			AIModel:     "gpt-4o-mini",
		})

		if _, err := svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "hi"}); err != nil {
			t.Fatalf("post: %v", err)
		}

		// The reply is generated in the background.
		deadline := time.Now().Add(2 * time.Second)
		for {
			msgs, _ := chats.ListMessages(ctx, session.ID, repository.Page{})
			if len(msgs) == 2 {
				reply := msgs[1]
				if reply.SenderID != domain.AIAssistantSenderID {
					t.Fatalf("reply sender = %q", reply.SenderID)
				}
				if reply.MessageType != domain.MessageAI || reply.Content != "how can I help?" {
					t.Fatalf("reply = %+v", reply)
				}
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("ai reply never persisted")
			}
			time.Sleep(5 * time.Millisecond)
		}

		// The reply is delivered to the user's queue.
		deadline = time.Now().Add(time.Second)
		for broker.count("/user/u1/queue/messages") == 0 {
			if time.Now().After(deadline) {
				t.Fatal("ai reply never delivered")
			}
			time.Sleep(5 * time.Millisecond)
		}
	})

	t.Run("history window bounds the completion context", func(t *testing.T) {
		responder := &fakeResponder{reply: "ok"}
		chats := repository.NewMemoryChatRepository()
		svc := NewChatService(chats, newRecordingBroker(), NewNotificationService(newRecordingBroker()), events.NoopProducer{}, responder, 2)

		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserAI,
		})
		for _, content := range []string{"one", "two"} {
			chats.CreateMessage(ctx, &domain.ChatMessage{ChatSessionID: session.ID, SenderID: "u1", Content: content})
		}

		if _, err := svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "three"}); err != nil {
			t.Fatalf("post: %v", err)
		}

		deadline := time.Now().Add(2 * time.Second)
		for {
			responder.mu.Lock()
			calls, historyLen := responder.calls, responder.historyLen
			responder.mu.Unlock()
			if calls > 0 {
				if historyLen != 2 {
					t.Fatalf("completion saw %d messages, want 2", historyLen)
				}
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("responder never called")
			}
			time.Sleep(5 * time.Millisecond)
		}
	})

	t.Run("non-ai session never calls the responder", func(t *testing.T) {
		responder := &fakeResponder{reply: "nope"}
		svc, _ := newChatService(newRecordingBroker(), responder)

		session, _ := svc.OpenSession(ctx, "u1", &domain.OpenSessionRequest{
			SessionType: domain.SessionUserExpert,
			ExpertID:    strPtr("u2"),
		})
		svc.PostMessage(ctx, session.ID, "u1", &domain.PostMessageRequest{Content: "hi"})

		time.Sleep(50 * time.Millisecond)
		responder.mu.Lock()
		calls := responder.calls
		responder.mu.Unlock()
		if calls != 0 {
			t.Fatalf("responder called %d times, want 0", calls)
		}
	})
}
