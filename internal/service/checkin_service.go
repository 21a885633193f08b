package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"life-planner/internal/action"
	"life-planner/internal/model"
	"life-planner/internal/repository"
	"life-planner/internal/telegram"
)

var checkinQuestions = [model.CheckinQuestions]string{
	"1. Did you follow your timetable today?",
	"2. Did you avoid all bad habits?",
	"3. Did you follow all good habits?",
	"4. Did you take your medicines?",
	"5. Did you study as per plan?",
	"6. Did you eat according to diet?",
	"7. Did you read today?",
	"8. Did you work out?",
}

const checkinCompleteText = "✅ Night check-in complete! Thank you for your honesty. Rest well for tomorrow! 💪"

// QuestionText returns the prompt of question n (1-based).
func QuestionText(n int) string {
	if n < 1 || n > len(checkinQuestions) {
		return ""
	}
	return checkinQuestions[n-1]
}

// CheckinOutcome is the result of recording one answer. Reply is nil when
// nothing should be sent.
type CheckinOutcome struct {
	Question         int
	Next             int
	Completed        bool
	AlreadyCompleted bool
	Reply            *telegram.Message
}

// CheckinService advances the nightly question sequence of a user.
type CheckinService struct {
	checkins *repository.CheckinRepository
	clock    clockwork.Clock
	loc      *time.Location
	logger   *slog.Logger
}

func NewCheckinService(checkins *repository.CheckinRepository, clock clockwork.Clock, loc *time.Location, logger *slog.Logger) *CheckinService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckinService{checkins: checkins, clock: clock, loc: loc, logger: logger}
}

// Today returns the local check-in date.
func (s *CheckinService) Today() string {
	return s.clock.Now().In(s.loc).Format(dateLayout)
}

// NightMessage renders the 10 PM checklist invitation.
func (s *CheckinService) NightMessage(chatID int64) telegram.Message {
	text := "🌙 <b>NIGHT CHECKLIST - TIME FOR REFLECTION</b>\n\n" +
		"How did your day go? Let's review your eight commitments."
	return telegram.Message{
		ChatID:  chatID,
		Text:    text,
		Buttons: [][]telegram.Button{{{Text: "📝 Start check-in", Data: action.CheckinStart{}.Token()}}},
	}
}

// Start replies with question 1 unless tonight's check-in is already complete.
func (s *CheckinService) Start(ctx context.Context, userID string, chatID int64) (telegram.Message, error) {
	existing, err := s.checkins.Find(ctx, userID, s.Today(), model.CheckinNight)
	if err != nil {
		return telegram.Message{}, err
	}
	if existing != nil && existing.CompletedAt != nil {
		return telegram.Message{ChatID: chatID, Text: "✅ Tonight's check-in is already complete."}, nil
	}
	return telegram.Message{ChatID: chatID, Text: QuestionText(1), Buttons: yesNoButtons(1)}, nil
}

// Answer records the answer and prepares the next question. Answers arriving
// after the check-in was completed are acknowledged and ignored.
func (s *CheckinService) Answer(ctx context.Context, userID string, chatID int64, a action.CheckinAnswer) (CheckinOutcome, error) {
	out := CheckinOutcome{Question: a.Question}
	if a.Question < 1 || a.Question > model.CheckinQuestions {
		return out, fmt.Errorf("%w: question %d", ErrInvalidInput, a.Question)
	}

	date := s.Today()
	existing, err := s.checkins.Find(ctx, userID, date, model.CheckinNight)
	if err != nil {
		return out, err
	}
	if existing != nil && existing.CompletedAt != nil {
		out.AlreadyCompleted = true
		return out, nil
	}

	completed := a.Question == model.CheckinQuestions
	if err := s.checkins.RecordAnswer(ctx, userID, date, model.CheckinNight, a.Question, a.Yes, s.clock.Now(), completed); err != nil {
		return out, err
	}

	if completed {
		out.Completed = true
		out.Reply = &telegram.Message{ChatID: chatID, Text: checkinCompleteText}
		s.logger.Info("checkin_completed", "user_id", userID, "date", date)
		return out, nil
	}

	out.Next = a.Question + 1
	out.Reply = &telegram.Message{ChatID: chatID, Text: QuestionText(out.Next), Buttons: yesNoButtons(out.Next)}
	return out, nil
}
