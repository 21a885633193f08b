package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"life-planner/internal/model"
)

// ActivityRepository appends audit entries.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	return nil
}

// ListForTask returns audit entries of a task, oldest first.
func (r *ActivityRepository) ListForTask(ctx context.Context, taskID uint) ([]model.ActivityLog, error) {
	var entries []model.ActivityLog
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return entries, nil
}
