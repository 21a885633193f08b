package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"life-planner/internal/model"
)

// ScheduleRepository reads promises and the weekly timetable.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ActivePromises returns the active promises of a user, "dont" first.
func (r *ScheduleRepository) ActivePromises(ctx context.Context, userID string) ([]model.Promise, error) {
	var promises []model.Promise
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("kind DESC, id ASC").
		Find(&promises).Error; err != nil {
		return nil, fmt.Errorf("list promises: %w", err)
	}
	return promises, nil
}

// Timetable returns the entries of a user for a weekday ordered by start time.
func (r *ScheduleRepository) Timetable(ctx context.Context, userID string, dayOfWeek int) ([]model.TimetableEntry, error) {
	var entries []model.TimetableEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND day_of_week = ?", userID, dayOfWeek).
		Order("start_time ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list timetable: %w", err)
	}
	return entries, nil
}

func (r *ScheduleRepository) CreatePromise(ctx context.Context, p *model.Promise) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create promise: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) CreateTimetableEntry(ctx context.Context, e *model.TimetableEntry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create timetable entry: %w", err)
	}
	return nil
}
