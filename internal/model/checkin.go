package model

import (
	"fmt"
	"time"
)

// Check-in kinds.
const (
	CheckinDay   = "day"
	CheckinNight = "night"
)

// CheckinQuestions is the number of sequential yes/no questions.
const CheckinQuestions = 8

// Checkin stores the answers of one user for one day and kind.
type Checkin struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      string `gorm:"size:36;uniqueIndex:idx_checkin_user_date_type,priority:1"`
	CheckinDate string `gorm:"size:10;uniqueIndex:idx_checkin_user_date_type,priority:2"`
	CheckinType string `gorm:"size:8;uniqueIndex:idx_checkin_user_date_type,priority:3"`
	Question1   *bool  `gorm:"column:question_1_response"`
	Question2   *bool  `gorm:"column:question_2_response"`
	Question3   *bool  `gorm:"column:question_3_response"`
	Question4   *bool  `gorm:"column:question_4_response"`
	Question5   *bool  `gorm:"column:question_5_response"`
	Question6   *bool  `gorm:"column:question_6_response"`
	Question7   *bool  `gorm:"column:question_7_response"`
	Question8   *bool  `gorm:"column:question_8_response"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QuestionColumn returns the column storing the answer to question n.
func QuestionColumn(n int) string {
	return fmt.Sprintf("question_%d_response", n)
}

// Answer returns the stored answer to question n, nil when unanswered.
func (c Checkin) Answer(n int) *bool {
	switch n {
	case 1:
		return c.Question1
	case 2:
		return c.Question2
	case 3:
		return c.Question3
	case 4:
		return c.Question4
	case 5:
		return c.Question5
	case 6:
		return c.Question6
	case 7:
		return c.Question7
	case 8:
		return c.Question8
	default:
		return nil
	}
}
