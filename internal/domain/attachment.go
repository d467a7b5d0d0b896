package domain

import "time"

// Attachment records a stored file linked to a ticket or chat message.
type Attachment struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID     string    `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	EntityType  string    `gorm:"type:varchar(32);not null;index:idx_attachments_entity" json:"entity_type"`
	EntityID    string    `gorm:"type:varchar(36);not null;index:idx_attachments_entity" json:"entity_id"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType string    `gorm:"type:varchar(128)" json:"content_type"`
	Size        int64     `gorm:"not null" json:"size"`
	StorageKey  string    `gorm:"type:varchar(512);not null" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Attachment) TableName() string { return "attachments" }

// Entity types an attachment may be linked to.
const (
	AttachmentEntityTicket  = "TICKET"
	AttachmentEntityMessage = "MESSAGE"
)
