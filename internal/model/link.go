package model

import "time"

// TelegramLink binds an application user to a Telegram chat.
type TelegramLink struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           string `gorm:"size:36;uniqueIndex"`
	ChatID           int64  `gorm:"index"`
	TelegramUsername string
	Verified         bool `gorm:"default:false"`
	VerificationCode string
	VerifiedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BotSession holds the single pending one-time code of a chat.
type BotSession struct {
	ID               uint    `gorm:"primaryKey"`
	ChatID           int64   `gorm:"uniqueIndex"`
	OTPCode          *string `gorm:"column:otp_code;size:6;index"`
	OTPExpiresAt     *time.Time
	TelegramUsername string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
