package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"life-planner/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create stores the task and, when given, its reminder in one transaction.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task, reminder *model.Reminder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		if reminder == nil {
			return nil
		}
		reminder.TaskID = task.ID
		if err := tx.Create(reminder).Error; err != nil {
			return fmt.Errorf("create reminder: %w", err)
		}
		return nil
	})
}

// FindByID returns the task owned by userID, or nil when it does not exist.
func (r *TaskRepository) FindByID(ctx context.Context, userID string, taskID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// ListForDate returns the tasks of a user on the given YYYY-MM-DD date ordered by start time.
func (r *TaskRepository) ListForDate(ctx context.Context, userID, date string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND task_date = ?", userID, date).
		Order("start_time ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListBetween returns tasks with task_date in [from, to] inclusive.
func (r *TaskRepository) ListBetween(ctx context.Context, userID, from, to string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND task_date >= ? AND task_date <= ?", userID, from, to).
		Order("task_date ASC, start_time ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateStatus sets the status and completion timestamp of a task.
func (r *TaskRepository) UpdateStatus(ctx context.Context, task *model.Task, status string, completedAt *time.Time) error {
	task.Status = status
	task.CompletedAt = completedAt
	if err := r.db.WithContext(ctx).Model(task).
		Select("status", "completed_at").
		Updates(map[string]interface{}{"status": status, "completed_at": completedAt}).Error; err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

// Delete removes a task owned by userID. Its reminders go with it.
func (r *TaskRepository) Delete(ctx context.Context, userID string, taskID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
		if res.Error != nil {
			return fmt.Errorf("delete task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.Reminder{}).Error; err != nil {
			return fmt.Errorf("delete reminders: %w", err)
		}
		return nil
	})
}
