package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/events"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/internal/ws"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
)

// AIResponder generates an assistant reply from the conversation history.
// Implementations do not persist or publish anything.
type AIResponder interface {
	Respond(ctx context.Context, model string, history []*domain.ChatMessage) (string, error)
}

// ChatService implements the chat session and message state machine.
// Persistence is authoritative; realtime delivery is best-effort and
// happens only after a successful write.
type ChatService struct {
	chats    repository.ChatRepository
	broker   ws.Broker
	notifier *NotificationService
	producer events.Producer
	ai       AIResponder

	// aiTimeout bounds the background generation call; aiHistory is how
	// many trailing messages feed each completion.
	aiTimeout time.Duration
	aiHistory int
}

// NewChatService creates a chat service. ai may be nil when the assistant
// is disabled; USER_AI sessions then receive no generated replies.
func NewChatService(chats repository.ChatRepository, broker ws.Broker, notifier *NotificationService, producer events.Producer, ai AIResponder, aiHistory int) *ChatService {
	if aiHistory <= 0 {
		aiHistory = 50
	}
	return &ChatService{
		chats:     chats,
		broker:    broker,
		notifier:  notifier,
		producer:  producer,
		ai:        ai,
		aiTimeout: 60 * time.Second,
		aiHistory: aiHistory,
	}
}

// OpenSession starts a new chat session owned by userID.
func (s *ChatService) OpenSession(ctx context.Context, userID string, req *domain.OpenSessionRequest) (*domain.ChatSession, error) {
	session := &domain.ChatSession{
		Title:       req.Title,
		SessionType: req.SessionType,
		UserID:      userID,
		ExpertID:    req.ExpertID,
		TicketID:    req.TicketID,
		AIModel:     req.AIModel,
		StartedAt:   time.Now(),
		Active:      true,
	}
	if err := s.chats.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	log.L().Info().
		Str(log.FieldSessionID, session.ID).
		Str("type", string(session.SessionType)).
		Msg("chat session opened")

	s.emit(ctx, events.EventChatSessionOpened, session.ID, userID, session)
	return session, nil
}

// GetSession returns a session the caller participates in.
func (s *ChatService) GetSession(ctx context.Context, sessionID, callerID string) (*domain.ChatSession, error) {
	session, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !session.HasParticipant(callerID) {
		return nil, ErrNotParticipant
	}
	return session, nil
}

// ListSessions returns the caller's sessions, newest first.
func (s *ChatService) ListSessions(ctx context.Context, callerID string, page repository.Page) ([]*domain.ChatSession, error) {
	return s.chats.ListSessionsByUser(ctx, callerID, page)
}

// CloseSession ends a session. Closing an already-ended session is a no-op
// and succeeds.
func (s *ChatService) CloseSession(ctx context.Context, sessionID, callerID string) (*domain.ChatSession, error) {
	session, err := s.GetSession(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if !session.Active {
		return session, nil
	}

	now := time.Now()
	session.Active = false
	session.EndedAt = &now
	if err := s.chats.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	log.L().Info().Str(log.FieldSessionID, sessionID).Msg("chat session closed")
	s.emit(ctx, events.EventChatSessionClosed, sessionID, callerID, nil)
	return session, nil
}

// PostMessage persists a message, then delivers it to the room topic and
// the counterpart's queue. For AI sessions a generated reply follows
// asynchronously.
func (s *ChatService) PostMessage(ctx context.Context, sessionID, senderID string, req *domain.PostMessageRequest) (*domain.ChatMessage, error) {
	session, err := s.GetSession(ctx, sessionID, senderID)
	if err != nil {
		return nil, err
	}
	if !session.Active {
		return nil, ErrSessionClosed
	}

	msgType := req.MessageType
	if msgType == "" {
		msgType = domain.MessageText
	}

	msg := &domain.ChatMessage{
		ChatSessionID: sessionID,
		SenderID:      senderID,
		Content:       req.Content,
		MessageType:   msgType,
		CreatedAt:     time.Now(),
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.deliver(session, msg)
	s.emit(ctx, events.EventChatMessagePosted, sessionID, senderID, map[string]any{"message_id": msg.ID})

	if session.SessionType == domain.SessionUserAI && s.ai != nil {
		go s.generateReply(session)
	}
	return msg, nil
}

// ListMessages returns a session's messages in posting order.
func (s *ChatService) ListMessages(ctx context.Context, sessionID, callerID string, page repository.Page) ([]*domain.ChatMessage, error) {
	if _, err := s.GetSession(ctx, sessionID, callerID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, sessionID, page)
}

// MarkRead flips a single message to read. The read transition is
// one-directional and only the receiving side can make it: a sender
// calling it on their own message is a no-op, as is marking a message
// that is already read.
func (s *ChatService) MarkRead(ctx context.Context, messageID, readerID string) error {
	msg, err := s.chats.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	if _, err := s.GetSession(ctx, msg.ChatSessionID, readerID); err != nil {
		return err
	}
	if msg.SenderID == readerID || msg.Read {
		return nil
	}
	return s.chats.MarkMessageRead(ctx, messageID)
}

// MarkSessionRead flips every unread message in the session that the
// caller did not send. Returns the number of messages flipped.
func (s *ChatService) MarkSessionRead(ctx context.Context, sessionID, callerID string) (int64, error) {
	if _, err := s.GetSession(ctx, sessionID, callerID); err != nil {
		return 0, err
	}
	return s.chats.MarkMessagesRead(ctx, sessionID, callerID)
}

// UnreadCount counts unread messages addressed to the caller across all
// the caller's sessions.
func (s *ChatService) UnreadCount(ctx context.Context, callerID string) (int64, error) {
	return s.chats.CountUnread(ctx, callerID)
}

// deliver publishes the stored message to the room topic and to the
// counterpart participant's queue. Failures are logged and dropped.
func (s *ChatService) deliver(session *domain.ChatSession, msg *domain.ChatMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		log.L().Error().Err(err).Msg("marshal chat message")
		return
	}

	room := ws.Topic("room/" + session.ID)
	if err := s.broker.Publish(room, body); err != nil {
		log.L().Warn().Err(err).
			Str(log.FieldDestination, room.Path).
			Msg("room publish failed")
	}

	for _, participant := range session.Participants() {
		if participant == msg.SenderID {
			continue
		}
		queue := ws.UserQueue(participant, "messages")
		if err := s.broker.Publish(queue, body); err != nil {
			log.L().Warn().Err(err).
				Str(log.FieldDestination, queue.Path).
				Msg("queue publish failed")
		}
		s.notifier.NotifyUser(participant, domain.NotifyChatMessage, "New message", msg.Content)
	}
}

// generateReply runs in the background after a user message in an AI
// session. The reply is persisted and delivered like any other message.
func (s *ChatService) generateReply(session *domain.ChatSession) {
	ctx, cancel := context.WithTimeout(context.Background(), s.aiTimeout)
	defer cancel()

	history, err := s.chats.ListMessages(ctx, session.ID, repository.Page{Limit: s.aiHistory})
	if err != nil {
		log.L().Error().Err(err).Str(log.FieldSessionID, session.ID).Msg("load history for ai reply")
		return
	}

	content, err := s.ai.Respond(ctx, session.AIModel, history)
	if err != nil {
		log.L().Error().Err(err).Str(log.FieldSessionID, session.ID).Msg("ai generation failed")
		return
	}

	reply := &domain.ChatMessage{
		ChatSessionID: session.ID,
		SenderID:      domain.AIAssistantSenderID,
		Content:       content,
		MessageType:   domain.MessageAI,
		AIModel:       session.AIModel,
		CreatedAt:     time.Now(),
	}
	if err := s.chats.CreateMessage(ctx, reply); err != nil {
		log.L().Error().Err(err).Str(log.FieldSessionID, session.ID).Msg("persist ai reply")
		return
	}
	s.deliver(session, reply)
}

func (s *ChatService) emit(ctx context.Context, typ, entityID, actorID string, payload any) {
	err := s.producer.Publish(ctx, events.Event{
		Type:       typ,
		EntityID:   entityID,
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: time.Now(),
	})
	if err != nil {
		log.L().Warn().Err(err).Str("event", typ).Msg("event publish failed")
	}
}
