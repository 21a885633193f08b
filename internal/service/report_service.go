package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"life-planner/internal/model"
	"life-planner/internal/repository"
	"life-planner/internal/telegram"
)

const reportDays = 7

// WeeklySummary aggregates the last seven days of a user.
type WeeklySummary struct {
	WeekStart        string `json:"week_start_date"`
	WeekEnd          string `json:"week_end_date"`
	TimetablePercent int    `json:"timetable_adherence_percent"`
	GoodHabitDays    int    `json:"good_habits_completed"`
	MedicinePercent  int    `json:"medicine_adherence_percent"`
	DietPercent      int    `json:"diet_followed_percent"`
	TasksCompleted   int    `json:"tasks_completed"`
	TasksScheduled   int    `json:"tasks_scheduled"`
	SummaryText      string `json:"summary_text"`
}

// ReportService builds weekly reports and fans them out to partners.
type ReportService struct {
	checkins *repository.CheckinRepository
	tasks    *repository.TaskRepository
	partners *repository.PartnerRepository
	sender   telegram.Sender
	clock    clockwork.Clock
	loc      *time.Location
	logger   *slog.Logger
}

func NewReportService(checkins *repository.CheckinRepository, tasks *repository.TaskRepository, partners *repository.PartnerRepository, sender telegram.Sender, clock clockwork.Clock, loc *time.Location, logger *slog.Logger) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{checkins: checkins, tasks: tasks, partners: partners, sender: sender, clock: clock, loc: loc, logger: logger}
}

// Weekly computes the summary for the seven local days ending today.
func (s *ReportService) Weekly(ctx context.Context, userID string) (WeeklySummary, error) {
	today := s.clock.Now().In(s.loc)
	start := today.AddDate(0, 0, -(reportDays - 1))
	sum := WeeklySummary{WeekStart: start.Format(dateLayout), WeekEnd: today.Format(dateLayout)}

	checkins, err := s.checkins.ListBetween(ctx, userID, model.CheckinNight, sum.WeekStart, sum.WeekEnd)
	if err != nil {
		return sum, err
	}
	var timetable, medicine, diet int
	for _, c := range checkins {
		if isYes(c.Question1) {
			timetable++
		}
		if isYes(c.Question3) {
			sum.GoodHabitDays++
		}
		if isYes(c.Question4) {
			medicine++
		}
		if isYes(c.Question6) {
			diet++
		}
	}
	sum.TimetablePercent = percent(timetable, reportDays)
	sum.MedicinePercent = percent(medicine, reportDays)
	sum.DietPercent = percent(diet, reportDays)

	tasks, err := s.tasks.ListBetween(ctx, userID, sum.WeekStart, sum.WeekEnd)
	if err != nil {
		return sum, err
	}
	sum.TasksScheduled = len(tasks)
	for _, t := range tasks {
		if t.Status == model.TaskCompleted {
			sum.TasksCompleted++
		}
	}
	sum.SummaryText = summaryText(sum.TimetablePercent)
	return sum, nil
}

// ReportMessage renders the summary for its owner.
func ReportMessage(chatID int64, sum WeeklySummary) telegram.Message {
	var b strings.Builder
	b.WriteString("📊 <b>WEEKLY DISCIPLINE REPORT</b>\n\n")
	fmt.Fprintf(&b, "Period: %s to %s\n\n", sum.WeekStart, sum.WeekEnd)
	b.WriteString("📈 <b>PERFORMANCE METRICS:</b>\n")
	fmt.Fprintf(&b, "• Timetable Adherence: %d%%\n", sum.TimetablePercent)
	fmt.Fprintf(&b, "• Good Habits Completed: %d/%d days\n", sum.GoodHabitDays, reportDays)
	fmt.Fprintf(&b, "• Medicine Adherence: %d%%\n", sum.MedicinePercent)
	fmt.Fprintf(&b, "• Diet Followed: %d%%\n", sum.DietPercent)
	fmt.Fprintf(&b, "• Tasks Completed: %d/%d\n\n", sum.TasksCompleted, sum.TasksScheduled)
	fmt.Fprintf(&b, "💭 <b>SUMMARY:</b>\n%s\n\n", sum.SummaryText)
	b.WriteString("Keep pushing! Consistency is key to transformation. 🔥")
	return telegram.Message{ChatID: chatID, Text: b.String()}
}

// PartnerMessage renders the shorter report sent to accountability partners.
func PartnerMessage(chatID int64, sum WeeklySummary) telegram.Message {
	var b strings.Builder
	b.WriteString("👥 <b>ACCOUNTABILITY REPORT</b>\n\n")
	b.WriteString("Your accountability partner's weekly report:\n\n")
	fmt.Fprintf(&b, "Performance: %d%% timetable adherence\n", sum.TimetablePercent)
	fmt.Fprintf(&b, "Habits: %d/%d days completed\n", sum.GoodHabitDays, reportDays)
	fmt.Fprintf(&b, "Overall: %s\n\n", sum.SummaryText)
	b.WriteString("Consider sending a motivational message! 💪")
	return telegram.Message{ChatID: chatID, Text: b.String()}
}

// SendWeekly delivers the report to chatID and to every partner that
// receives weekly reports over Telegram. Partner failures are logged only.
func (s *ReportService) SendWeekly(ctx context.Context, userID string, chatID int64, withPartners bool) error {
	sum, err := s.Weekly(ctx, userID)
	if err != nil {
		if _, sendErr := s.sender.Send(ctx, telegram.Message{ChatID: chatID, Text: "⚠️ Could not generate weekly report. Check your activity data."}); sendErr != nil {
			s.logger.Warn("report_error_notice_failed", "chat_id", chatID, "error", sendErr)
		}
		return err
	}
	if _, err := s.sender.Send(ctx, ReportMessage(chatID, sum)); err != nil {
		return fmt.Errorf("send weekly report: %w", err)
	}
	if !withPartners {
		return nil
	}

	partners, err := s.partners.ListReportRecipients(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range partners {
		if !strings.EqualFold(p.ContactMethod, "telegram") {
			s.logger.Info("partner_contact_unsupported", "partner_id", p.ID, "method", p.ContactMethod)
			continue
		}
		partnerChat, err := strconv.ParseInt(strings.TrimSpace(p.ContactInfo), 10, 64)
		if err != nil {
			s.logger.Warn("partner_chat_invalid", "partner_id", p.ID, "error", err)
			continue
		}
		if _, err := s.sender.Send(ctx, PartnerMessage(partnerChat, sum)); err != nil {
			s.logger.Warn("partner_report_failed", "partner_id", p.ID, "error", err)
		}
	}
	return nil
}

func isYes(v *bool) bool {
	return v != nil && *v
}

func percent(n, of int) int {
	if of == 0 {
		return 0
	}
	return n * 100 / of
}

func summaryText(timetablePercent int) string {
	switch {
	case timetablePercent >= 80:
		return "Excellent week! You stayed disciplined and consistent."
	case timetablePercent >= 50:
		return "Decent week. There is room to tighten your routine."
	default:
		return "Tough week. Reset tomorrow and focus on the basics."
	}
}
