package model

import "time"

// Promise kinds.
const (
	PromiseDo   = "do"
	PromiseDont = "dont"
)

// Promise is a standing daily commitment ("must do" or "will not do").
type Promise struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:36;index"`
	Kind      string `gorm:"size:8"`
	Title     string
	IsActive  bool
	CreatedAt time.Time
}

func (Promise) TableName() string { return "user_promises" }

// TimetableEntry is a recurring weekly slot. DayOfWeek follows time.Weekday.
type TimetableEntry struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:36;index"`
	DayOfWeek int    `gorm:"index"`
	StartTime string `gorm:"size:8"`
	EndTime   string `gorm:"size:8"`
	Title     string
}

func (TimetableEntry) TableName() string { return "daily_timetable" }

// AccountabilityPartner receives weekly reports on behalf of a user.
type AccountabilityPartner struct {
	ID                    uint   `gorm:"primaryKey"`
	UserID                string `gorm:"size:36;index"`
	PartnerName           string
	ContactMethod         string
	ContactInfo           string
	ReceivesWeeklyReports bool
	IsActive              bool
	CreatedAt             time.Time
}

// ActivityLog is an audit entry for user-driven task changes.
type ActivityLog struct {
	ID             string `gorm:"size:36;primaryKey"`
	UserID         string `gorm:"size:36;index"`
	TaskID         *uint  `gorm:"index"`
	ActionType     string
	PreviousStatus string
	NewStatus      string
	Details        string
	CreatedAt      time.Time
}
