package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"life-planner/internal/model"
)

// ReminderRepository handles reminder rows.
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// ListUnsentBetween returns unsent reminders with remind_at in [from, to],
// earliest first, with their task preloaded.
func (r *ReminderRepository) ListUnsentBetween(ctx context.Context, from, to time.Time) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := r.db.WithContext(ctx).
		Preload("Task").
		Where("sent = ? AND remind_at >= ? AND remind_at <= ?", false, from.UTC(), to.UTC()).
		Order("remind_at ASC, id ASC").
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return reminders, nil
}

// FindByID returns a reminder or nil when it does not exist.
func (r *ReminderRepository) FindByID(ctx context.Context, id uint) (*model.Reminder, error) {
	var reminder model.Reminder
	err := r.db.WithContext(ctx).Preload("Task").First(&reminder, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reminder: %w", err)
	}
	return &reminder, nil
}

// IsSent reports whether the reminder has already been delivered.
func (r *ReminderRepository) IsSent(ctx context.Context, id uint) (bool, error) {
	var reminder model.Reminder
	if err := r.db.WithContext(ctx).Select("id", "sent").First(&reminder, id).Error; err != nil {
		return false, fmt.Errorf("load reminder: %w", err)
	}
	return reminder.Sent, nil
}

// MarkSent flips sent to true once. It reports whether this call changed the
// row; a second call is a no-op and keeps the first sent_at.
func (r *ReminderRepository) MarkSent(ctx context.Context, id uint, sentAt time.Time, deliveryID *int) (bool, error) {
	updates := map[string]interface{}{
		"sent":    true,
		"sent_at": sentAt.UTC(),
	}
	if deliveryID != nil {
		updates["delivery_id"] = *deliveryID
	}
	res := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("mark reminder sent: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkSentForTask marks every unsent reminder of a task as sent.
func (r *ReminderRepository) MarkSentForTask(ctx context.Context, taskID uint, sentAt time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("task_id = ? AND sent = ?", taskID, false).
		Updates(map[string]interface{}{"sent": true, "sent_at": sentAt.UTC()}).Error; err != nil {
		return fmt.Errorf("mark task reminders sent: %w", err)
	}
	return nil
}

// LatestForTask returns the most recently scheduled reminder of a task, or nil.
func (r *ReminderRepository) LatestForTask(ctx context.Context, taskID uint) (*model.Reminder, error) {
	var reminder model.Reminder
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("original_remind_at DESC, id DESC").
		First(&reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find task reminder: %w", err)
	}
	return &reminder, nil
}

// Reschedule moves remind_at and makes the reminder deliverable again.
// original_remind_at is never touched.
func (r *ReminderRepository) Reschedule(ctx context.Context, id uint, remindAt time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"remind_at":   remindAt.UTC(),
			"sent":        false,
			"sent_at":     nil,
			"delivery_id": nil,
		}).Error; err != nil {
		return fmt.Errorf("reschedule reminder: %w", err)
	}
	return nil
}

// Create stores a standalone reminder.
func (r *ReminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}
