package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/ws"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
)

// NotificationService pushes transient notifications over the realtime
// layer. Delivery is best-effort: a failed push is logged and dropped,
// never surfaced to the triggering operation.
type NotificationService struct {
	broker ws.Broker
}

// NewNotificationService creates a notification service on the broker.
func NewNotificationService(broker ws.Broker) *NotificationService {
	return &NotificationService{broker: broker}
}

// NotifyUser pushes a notification to one user's queue.
func (s *NotificationService) NotifyUser(userID string, typ domain.NotificationType, title, content string) {
	n := domain.Notification{
		ID:           uuid.New().String(),
		Type:         typ,
		Title:        title,
		Content:      content,
		TargetUserID: userID,
		CreatedAt:    time.Now(),
	}
	s.publish(ws.UserQueue(userID, "notifications"), n)
}

// NotifyRole pushes a notification to everyone subscribed to a role's
// topic, e.g. support staff watching /topic/role/support.
func (s *NotificationService) NotifyRole(role string, typ domain.NotificationType, title, content string) {
	n := domain.Notification{
		ID:        uuid.New().String(),
		Type:      typ,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.publish(ws.Topic("role/"+role), n)
}

// Broadcast pushes a notification to the shared notifications topic.
func (s *NotificationService) Broadcast(typ domain.NotificationType, title, content string) {
	n := domain.Notification{
		ID:        uuid.New().String(),
		Type:      typ,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.publish(ws.Topic("notifications"), n)
}

func (s *NotificationService) publish(d ws.Destination, n domain.Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		log.L().Error().Err(err).Msg("marshal notification")
		return
	}
	if err := s.broker.Publish(d, body); err != nil {
		log.L().Warn().Err(err).
			Str(log.FieldDestination, d.Path).
			Msg("notification publish failed")
	}
}
