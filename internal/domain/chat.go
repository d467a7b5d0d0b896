package domain

import "time"

// AIAssistantSenderID is the synthetic sender of AI-generated messages.
const AIAssistantSenderID = "ai-assistant"

// ChatSession is one conversation. Identity fields (type, participants,
// linked ticket/consultation) are immutable after creation; only the
// active/ended state changes, exactly once.
//
// ExpertID holds the expert participant's user id so queue destinations can
// be derived directly from the session row.
type ChatSession struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title          string          `gorm:"type:varchar(255)" json:"title"`
	SessionType    ChatSessionType `gorm:"type:varchar(32);not null;index" json:"session_type"`
	UserID         string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	ExpertID       *string         `gorm:"type:varchar(36);index" json:"expert_id,omitempty"`
	TicketID       *string         `gorm:"type:varchar(36);index" json:"ticket_id,omitempty"`
	ConsultationID *string         `gorm:"type:varchar(36)" json:"consultation_id,omitempty"`
	AIModel        string          `gorm:"type:varchar(64)" json:"ai_model,omitempty"`
	StartedAt      time.Time       `gorm:"not null" json:"started_at"`
	EndedAt        *time.Time      `json:"ended_at,omitempty"`
	Active         bool            `gorm:"not null" json:"active"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

// HasParticipant reports whether the user takes part in the session.
func (s *ChatSession) HasParticipant(userID string) bool {
	if s.UserID == userID {
		return true
	}
	return s.ExpertID != nil && *s.ExpertID == userID
}

// Participants returns the user ids taking part in the session.
func (s *ChatSession) Participants() []string {
	ids := []string{s.UserID}
	if s.ExpertID != nil {
		ids = append(ids, *s.ExpertID)
	}
	return ids
}

// ChatMessage is one durable message in a session. Read is the only mutable
// field and flips in one direction only.
type ChatMessage struct {
	ID            string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	ChatSessionID string      `gorm:"type:varchar(36);not null;index" json:"chat_session_id"`
	SenderID      string      `gorm:"type:varchar(36);not null;index" json:"sender_id"`
	Content       string      `gorm:"type:text;not null" json:"content"`
	MessageType   MessageType `gorm:"type:varchar(16);not null" json:"message_type"`
	AIModel       string      `gorm:"type:varchar(64)" json:"ai_model,omitempty"`
	Read          bool        `gorm:"not null;index" json:"read"`
	CreatedAt     time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// OpenSessionRequest is the payload for opening a chat session.
type OpenSessionRequest struct {
	Title       string          `json:"title"`
	SessionType ChatSessionType `json:"session_type" binding:"required"`
	ExpertID    *string         `json:"expert_id"`
	TicketID    *string         `json:"ticket_id"`
	AIModel     string          `json:"ai_model"`
}

// PostMessageRequest is the payload for posting a message.
type PostMessageRequest struct {
	Content     string      `json:"content" binding:"required"`
	MessageType MessageType `json:"message_type"`
}
