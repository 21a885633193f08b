package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"life-planner/internal/model"
)

// LinkRepository handles user to chat bindings.
type LinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// FindVerifiedByUser returns the verified link of a user, or nil.
func (r *LinkRepository) FindVerifiedByUser(ctx context.Context, userID string) (*model.TelegramLink, error) {
	return r.first(ctx, "user_id = ? AND verified = ?", userID, true)
}

// FindVerifiedByChat returns the verified link bound to a chat, or nil.
func (r *LinkRepository) FindVerifiedByChat(ctx context.Context, chatID int64) (*model.TelegramLink, error) {
	return r.first(ctx, "chat_id = ? AND verified = ?", chatID, true)
}

// FindByUser returns the link row of a user regardless of verification.
func (r *LinkRepository) FindByUser(ctx context.Context, userID string) (*model.TelegramLink, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *LinkRepository) first(ctx context.Context, query string, args ...interface{}) (*model.TelegramLink, error) {
	var link model.TelegramLink
	err := r.db.WithContext(ctx).Where(query, args...).Order("id ASC").First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find telegram link: %w", err)
	}
	return &link, nil
}

// UpsertVerified binds userID to chatID, replacing any previous binding of that user.
func (r *LinkRepository) UpsertVerified(ctx context.Context, userID string, chatID int64, username, code string, verifiedAt time.Time) (*model.TelegramLink, error) {
	at := verifiedAt.UTC()
	link := model.TelegramLink{
		UserID:           userID,
		ChatID:           chatID,
		TelegramUsername: username,
		Verified:         true,
		VerificationCode: code,
		VerifiedAt:       &at,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"chat_id", "telegram_username", "verified", "verification_code", "verified_at", "updated_at",
		}),
	}).Create(&link).Error; err != nil {
		return nil, fmt.Errorf("upsert telegram link: %w", err)
	}
	return &link, nil
}

// DeleteByUser removes the link of a user. It reports whether a row existed.
func (r *LinkRepository) DeleteByUser(ctx context.Context, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.TelegramLink{})
	if res.Error != nil {
		return false, fmt.Errorf("delete telegram link: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListVerified returns every verified link.
func (r *LinkRepository) ListVerified(ctx context.Context) ([]model.TelegramLink, error) {
	var links []model.TelegramLink
	if err := r.db.WithContext(ctx).Where("verified = ?", true).Order("id ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list telegram links: %w", err)
	}
	return links, nil
}
