package model

import "time"

// Task statuses.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
	TaskCancelled = "cancelled"
)

// Task represents a single scheduled item in the planner.
type Task struct {
	ID                    uint   `gorm:"primaryKey"`
	UserID                string `gorm:"size:36;index"`
	Title                 string
	Description           string
	Category              string `gorm:"default:other"`
	TaskDate              string `gorm:"size:10;index"` // YYYY-MM-DD
	StartTime             string `gorm:"size:8"`        // HH:MM:SS
	EndTime               string `gorm:"size:8"`
	Status                string `gorm:"size:16;default:pending;index"`
	TelegramReminder      bool   `gorm:"default:false"`
	ReminderMinutesBefore int
	CompletedAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsPending reports whether the task still expects reminders.
func (t Task) IsPending() bool {
	return t.Status == "" || t.Status == TaskPending
}
