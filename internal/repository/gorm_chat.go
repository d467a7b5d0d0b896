package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
)

// GormChatRepository implements ChatRepository using GORM.
type GormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-based chat repository.
func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

// CreateSession creates a new chat session.
func (r *GormChatRepository) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(session).Error
}

// GetSession retrieves a session by id.
func (r *GormChatRepository) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// UpdateSession persists the session's mutable state.
func (r *GormChatRepository) UpdateSession(ctx context.Context, session *domain.ChatSession) error {
	result := r.db.WithContext(ctx).Model(&domain.ChatSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"title":    session.Title,
			"active":   session.Active,
			"ended_at": session.EndedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSessionsByUser returns sessions the user participates in, newest first.
func (r *GormChatRepository) ListSessionsByUser(ctx context.Context, userID string, page Page) ([]*domain.ChatSession, error) {
	page = page.Normalize()
	var sessions []*domain.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? OR expert_id = ?", userID, userID).
		Order("started_at DESC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&sessions).Error
	return sessions, err
}

// CreateMessage appends a message to a session.
func (r *GormChatRepository) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

// GetMessage retrieves a single message by id.
func (r *GormChatRepository) GetMessage(ctx context.Context, id string) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	if err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns a session's messages in posting order.
func (r *GormChatRepository) ListMessages(ctx context.Context, sessionID string, page Page) ([]*domain.ChatMessage, error) {
	page = page.Normalize()
	var msgs []*domain.ChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_session_id = ?", sessionID).
		Order("created_at ASC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&msgs).Error
	return msgs, err
}

// MarkMessageRead flips a single message to read.
func (r *GormChatRepository) MarkMessageRead(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&domain.ChatMessage{}).
		Where("id = ?", id).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkMessagesRead flips unread messages in the session not sent by the
// reader. Returns the number of rows flipped. The read column is
// qualified because MySQL reserves the bare identifier.
func (r *GormChatRepository) MarkMessagesRead(ctx context.Context, sessionID, readerID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.ChatMessage{}).
		Where("chat_session_id = ? AND sender_id <> ? AND chat_messages.read = ?", sessionID, readerID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

// CountUnread counts unread messages addressed to the user across all
// sessions the user participates in.
func (r *GormChatRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ChatMessage{}).
		Joins("JOIN chat_sessions ON chat_sessions.id = chat_messages.chat_session_id").
		Where("(chat_sessions.user_id = ? OR chat_sessions.expert_id = ?)", userID, userID).
		Where("chat_messages.sender_id <> ? AND chat_messages.read = ?", userID, false).
		Count(&count).Error
	return count, err
}
