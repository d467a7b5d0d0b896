package domain

import "time"

// Consultation is a scheduled meeting between a user and an expert,
// optionally linked to a ticket.
type Consultation struct {
	ID              string             `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string             `gorm:"type:varchar(36);not null;index" json:"user_id"`
	ExpertID        string             `gorm:"type:varchar(36);not null;index" json:"expert_id"`
	TicketID        *string            `gorm:"type:varchar(36)" json:"ticket_id,omitempty"`
	ScheduledAt     time.Time          `gorm:"not null;index" json:"scheduled_at"`
	DurationMinutes int                `gorm:"not null" json:"duration_minutes"`
	Status          ConsultationStatus `gorm:"type:varchar(16);not null" json:"status"`
	Notes           string             `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Consultation) TableName() string { return "consultations" }

// EndsAt returns the scheduled end time.
func (c *Consultation) EndsAt() time.Time {
	return c.ScheduledAt.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two consultations occupy intersecting windows.
func (c *Consultation) Overlaps(start time.Time, durationMinutes int) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return c.ScheduledAt.Before(end) && start.Before(c.EndsAt())
}

// BookConsultationRequest is the payload for booking a consultation.
type BookConsultationRequest struct {
	ExpertID        string    `json:"expert_id" binding:"required"`
	TicketID        *string   `json:"ticket_id"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=15,max=240"`
	Notes           string    `json:"notes"`
}
