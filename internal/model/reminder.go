package model

import "time"

// ReminderTelegram is the only reminder channel dispatched today.
const ReminderTelegram = "telegram"

// Reminder is a scheduled notification for a task. Sent stays false until a
// delivery succeeds or the task is completed early.
type Reminder struct {
	ID               uint      `gorm:"primaryKey"`
	TaskID           uint      `gorm:"index"`
	UserID           string    `gorm:"size:36;index"`
	RemindAt         time.Time `gorm:"index"`
	OriginalRemindAt time.Time
	Sent             bool `gorm:"default:false;index"`
	SentAt           *time.Time
	ReminderType     string `gorm:"size:16;default:telegram"`
	// DeliveryID is the gateway message id of the successful delivery.
	DeliveryID *int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Task       *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}
