package domain

import "time"

// Expert is the professional profile of a user with the expert role.
type Expert struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	DisplayName    string    `gorm:"type:varchar(100);not null" json:"display_name"`
	Specialization string    `gorm:"type:varchar(128)" json:"specialization"`
	Bio            string    `gorm:"type:text" json:"bio"`
	HourlyRate     float64   `json:"hourly_rate"`
	Available      bool      `gorm:"not null" json:"available"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Expert) TableName() string { return "experts" }

// AvailabilitySlot is a weekly recurring window in which an expert accepts
// consultations. Times are minutes from midnight in the expert's timezone.
type AvailabilitySlot struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	ExpertID    string `gorm:"type:varchar(36);not null;index" json:"expert_id"`
	Weekday     int    `gorm:"not null" json:"weekday"` // 0 = Sunday
	StartMinute int    `gorm:"not null" json:"start_minute"`
	EndMinute   int    `gorm:"not null" json:"end_minute"`
}

func (AvailabilitySlot) TableName() string { return "expert_availability_slots" }

// Covers reports whether the slot contains the given window.
func (s *AvailabilitySlot) Covers(weekday, startMinute, endMinute int) bool {
	return s.Weekday == weekday && s.StartMinute <= startMinute && endMinute <= s.EndMinute
}

// ExpertRegistrationRequest creates an expert profile.
type ExpertRegistrationRequest struct {
	DisplayName    string  `json:"display_name" binding:"required"`
	Specialization string  `json:"specialization"`
	Bio            string  `json:"bio"`
	HourlyRate     float64 `json:"hourly_rate"`
}
