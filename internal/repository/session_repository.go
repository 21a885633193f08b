package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"life-planner/internal/model"
)

// SessionRepository keeps one pending one-time code per chat.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Supersede stores code as the only pending code of chatID and returns the
// code it replaced, if any was still set.
func (r *SessionRepository) Supersede(ctx context.Context, chatID int64, username, code string, expiresAt time.Time) (string, error) {
	var previous string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session model.BotSession
		err := tx.Where("chat_id = ?", chatID).First(&session).Error
		exp := expiresAt.UTC()
		switch {
		case err == nil:
			if session.OTPCode != nil {
				previous = *session.OTPCode
			}
			return tx.Model(&session).Updates(map[string]interface{}{
				"otp_code":          code,
				"otp_expires_at":    exp,
				"telegram_username": username,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			session = model.BotSession{
				ChatID:           chatID,
				OTPCode:          &code,
				OTPExpiresAt:     &exp,
				TelegramUsername: username,
			}
			return tx.Create(&session).Error
		default:
			return err
		}
	})
	if err != nil {
		return "", fmt.Errorf("store bot session: %w", err)
	}
	return previous, nil
}

// FindActiveByCode returns the session holding code with expiry after now, or nil.
func (r *SessionRepository) FindActiveByCode(ctx context.Context, code string, now time.Time) (*model.BotSession, error) {
	var session model.BotSession
	err := r.db.WithContext(ctx).
		Where("otp_code = ? AND otp_expires_at > ?", code, now.UTC()).
		Order("updated_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find bot session: %w", err)
	}
	return &session, nil
}

// Consume clears the code if it is still the one stored for the session.
// It reports false when another caller consumed or replaced it first.
func (r *SessionRepository) Consume(ctx context.Context, sessionID uint, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.BotSession{}).
		Where("id = ? AND otp_code = ?", sessionID, code).
		Updates(map[string]interface{}{"otp_code": nil, "otp_expires_at": nil})
	if res.Error != nil {
		return false, fmt.Errorf("consume bot session: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
