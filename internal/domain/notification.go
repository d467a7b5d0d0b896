package domain

import "time"

// Notification is a transient user-facing event pushed over the
// realtime layer. Notifications are not persisted.
type Notification struct {
	ID           string           `json:"id"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Content      string           `json:"content"`
	TargetUserID string           `json:"target_user_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// AnnouncementRequest is the payload for an administrative announcement.
// When Role is set the announcement goes to that role's topic only.
type AnnouncementRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Role    string `json:"role"`
}
