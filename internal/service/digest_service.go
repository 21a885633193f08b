package service

import (
	"context"
	"fmt"
	"html"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"life-planner/internal/action"
	"life-planner/internal/model"
	"life-planner/internal/repository"
	"life-planner/internal/telegram"
)

var motivationQuotes = []string{
	"Discipline is choosing between what you want now and what you want most.",
	"The pain of discipline is far less than the pain of regret.",
	"Small daily improvements are the key to staggering long-term results.",
	"You don't have to be great to start, but you have to start to be great.",
	"The only bad workout is the one that didn't happen.",
}

// DigestService builds read-only daily summaries.
type DigestService struct {
	schedule *repository.ScheduleRepository
	tasks    *repository.TaskRepository
	clock    clockwork.Clock
	loc      *time.Location
}

func NewDigestService(schedule *repository.ScheduleRepository, tasks *repository.TaskRepository, clock clockwork.Clock, loc *time.Location) *DigestService {
	if loc == nil {
		loc = time.UTC
	}
	return &DigestService{schedule: schedule, tasks: tasks, clock: clock, loc: loc}
}

// TodaySummary renders promises, the weekday timetable and today's tasks.
func (s *DigestService) TodaySummary(ctx context.Context, userID string) (string, error) {
	now := s.clock.Now().In(s.loc)
	body, err := s.dayBody(ctx, userID, now)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("📋 <b>TODAY</b>\n")
	fmt.Fprintf(&b, "🗓 %s\n\n", now.Format("Monday, January 2, 2006"))
	b.WriteString(body)
	return strings.TrimSpace(b.String()), nil
}

// MorningMessage renders the 6 AM message with its day buttons.
func (s *DigestService) MorningMessage(ctx context.Context, userID string, chatID int64) (telegram.Message, error) {
	now := s.clock.Now().In(s.loc)
	body, err := s.dayBody(ctx, userID, now)
	if err != nil {
		return telegram.Message{}, err
	}
	var b strings.Builder
	b.WriteString("🌅 <b>GOOD MORNING, DISCIPLINE WARRIOR!</b>\n\n")
	fmt.Fprintf(&b, "📅 <b>Today's Date:</b> %s\n\n", now.Format("Monday, January 2, 2006"))
	b.WriteString(body)
	fmt.Fprintf(&b, "\n💪 <b>MOTIVATION:</b>\n\"%s\"", motivationQuotes[rand.IntN(len(motivationQuotes))])

	return telegram.Message{
		ChatID: chatID,
		Text:   strings.TrimSpace(b.String()),
		Buttons: [][]telegram.Button{{
			{Text: "✅ START MY DAY", Data: action.StartDay{}.Token()},
			{Text: "📊 View Progress", Data: action.ViewProgress{}.Token()},
		}},
	}, nil
}

func (s *DigestService) dayBody(ctx context.Context, userID string, now time.Time) (string, error) {
	promises, err := s.schedule.ActivePromises(ctx, userID)
	if err != nil {
		return "", err
	}
	timetable, err := s.schedule.Timetable(ctx, userID, int(now.Weekday()))
	if err != nil {
		return "", err
	}
	tasks, err := s.tasks.ListForDate(ctx, userID, now.Format(dateLayout))
	if err != nil {
		return "", err
	}

	var dont, do []model.Promise
	for _, p := range promises {
		if p.Kind == model.PromiseDont {
			dont = append(dont, p)
		} else {
			do = append(do, p)
		}
	}

	var b strings.Builder
	b.WriteString("🚫 <b>THINGS I WILL NOT DO TODAY:</b>\n")
	writePromises(&b, dont)
	b.WriteString("\n✅ <b>THINGS I MUST DO TODAY:</b>\n")
	writePromises(&b, do)

	b.WriteString("\n⏰ <b>TODAY'S TIMETABLE:</b>\n")
	if len(timetable) == 0 {
		b.WriteString("• nothing scheduled\n")
	}
	for _, e := range timetable {
		fmt.Fprintf(&b, "%s-%s: %s\n", shortClock(e.StartTime), shortClock(e.EndTime), html.EscapeString(e.Title))
	}

	b.WriteString("\n📝 <b>TASKS:</b>\n")
	if len(tasks) == 0 {
		b.WriteString("• no tasks for today\n")
	}
	for _, t := range tasks {
		b.WriteString(formatTask(t))
	}
	return b.String(), nil
}

func writePromises(b *strings.Builder, promises []model.Promise) {
	if len(promises) == 0 {
		b.WriteString("• none set\n")
		return
	}
	for i, p := range promises {
		fmt.Fprintf(b, "%d. %s\n", i+1, html.EscapeString(p.Title))
	}
}

func formatTask(task model.Task) string {
	icon := "🟢"
	switch task.Status {
	case model.TaskCompleted:
		icon = "✅"
	case model.TaskCancelled:
		icon = "⏭️"
	}
	line := fmt.Sprintf("%s %s %s", icon, shortClock(task.StartTime), html.EscapeString(strings.TrimSpace(task.Title)))
	if task.Category != "" {
		line += fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(task.Category))
	}
	return line + "\n"
}
