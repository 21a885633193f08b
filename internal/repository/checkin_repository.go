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

// CheckinRepository handles daily check-in rows.
type CheckinRepository struct {
	db *gorm.DB
}

func NewCheckinRepository(db *gorm.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// Find returns the check-in of a user for a date and kind, or nil.
func (r *CheckinRepository) Find(ctx context.Context, userID, date, kind string) (*model.Checkin, error) {
	var checkin model.Checkin
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND checkin_date = ? AND checkin_type = ?", userID, date, kind).
		First(&checkin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find checkin: %w", err)
	}
	return &checkin, nil
}

// RecordAnswer upserts the answer to question n at time at. With completed
// set, completed_at is written in the same statement.
func (r *CheckinRepository) RecordAnswer(ctx context.Context, userID, date, kind string, n int, answer bool, at time.Time, completed bool) error {
	if n < 1 || n > model.CheckinQuestions {
		return fmt.Errorf("record checkin answer: question %d out of range", n)
	}
	column := model.QuestionColumn(n)
	values := map[string]interface{}{
		"user_id":      userID,
		"checkin_date": date,
		"checkin_type": kind,
		column:         answer,
		"created_at":   at.UTC(),
		"updated_at":   at.UTC(),
	}
	updates := []string{column, "updated_at"}
	if completed {
		values["completed_at"] = at.UTC()
		updates = append(updates, "completed_at")
	}
	if err := r.db.WithContext(ctx).Model(&model.Checkin{}).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "checkin_date"}, {Name: "checkin_type"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(values).Error; err != nil {
		return fmt.Errorf("record checkin answer: %w", err)
	}
	return nil
}

// ListBetween returns check-ins of a kind with checkin_date in [from, to].
func (r *CheckinRepository) ListBetween(ctx context.Context, userID, kind, from, to string) ([]model.Checkin, error) {
	var checkins []model.Checkin
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND checkin_type = ? AND checkin_date >= ? AND checkin_date <= ?", userID, kind, from, to).
		Order("checkin_date ASC").
		Find(&checkins).Error; err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	return checkins, nil
}
