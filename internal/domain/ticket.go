package domain

import "time"

// Ticket is a support request raised by a user and optionally assigned to an
// expert.
type Ticket struct {
	ID               string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Number           string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"number"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	Status           TicketStatus   `gorm:"type:varchar(32);not null;index" json:"status"`
	Priority         TicketPriority `gorm:"type:varchar(16);not null" json:"priority"`
	Category         string         `gorm:"type:varchar(64)" json:"category"`
	UserID           string         `gorm:"type:varchar(36);not null;index" json:"user_id"`
	AssignedExpertID *string        `gorm:"type:varchar(36);index" json:"assigned_expert_id,omitempty"`
	DueDate          *time.Time     `json:"due_date,omitempty"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty"`
	ClosedAt         *time.Time     `json:"closed_at,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Ticket) TableName() string { return "tickets" }

// TicketComment is a threaded comment on a ticket.
type TicketComment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TicketID  string    `gorm:"type:varchar(36);not null;index" json:"ticket_id"`
	AuthorID  string    `gorm:"type:varchar(36);not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TicketComment) TableName() string { return "ticket_comments" }

// TicketSequence backs the monotonic ticket number.
type TicketSequence struct {
	ID    int   `gorm:"primaryKey" json:"-"`
	Value int64 `gorm:"not null" json:"-"`
}

func (TicketSequence) TableName() string { return "ticket_sequences" }

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	Status           TicketStatus
	Priority         TicketPriority
	Category         string
	UserID           string
	AssignedExpertID string
	Unassigned       bool
}

// CreateTicketRequest is the payload for opening a ticket.
type CreateTicketRequest struct {
	Title       string         `json:"title" binding:"required,max=255"`
	Description string         `json:"description"`
	Priority    TicketPriority `json:"priority"`
	Category    string         `json:"category"`
	DueDate     *time.Time     `json:"due_date"`
}

// UpdateTicketRequest is the payload for editing mutable ticket fields.
type UpdateTicketRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Priority    *TicketPriority `json:"priority"`
	Category    *string         `json:"category"`
	DueDate     *time.Time      `json:"due_date"`
}
