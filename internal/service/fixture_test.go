package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"life-planner/internal/repository"
	"life-planner/internal/telegram/telegramtest"
	"life-planner/internal/testutil"
)

const (
	userA = "6f1c2a52-8a3e-4c39-9a51-0c7f8b1d2e01"
	userB = "0b7d9f3e-5c21-4e8a-b6d4-93a1c2e4f502"
)

type fixture struct {
	db     *gorm.DB
	clock  *clockwork.FakeClock
	sender *telegramtest.Sender

	tasks     *repository.TaskRepository
	reminders *repository.ReminderRepository
	links     *repository.LinkRepository
	sessions  *repository.SessionRepository
	checkins  *repository.CheckinRepository
	schedule  *repository.ScheduleRepository
	partners  *repository.PartnerRepository
	activity  *repository.ActivityRepository

	taskSvc    *TaskService
	linkSvc    *LinkService
	checkinSvc *CheckinService
	digest     *DigestService
	reports    *ReportService
	scanner    *ReminderScanner
	dispatcher *Dispatcher
	job        *ReminderJob
	broadcast  *BroadcastService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(now)
	sender := telegramtest.New(clock)

	f := &fixture{
		db:        db,
		clock:     clock,
		sender:    sender,
		tasks:     repository.NewTaskRepository(db),
		reminders: repository.NewReminderRepository(db),
		links:     repository.NewLinkRepository(db),
		sessions:  repository.NewSessionRepository(db),
		checkins:  repository.NewCheckinRepository(db),
		schedule:  repository.NewScheduleRepository(db),
		partners:  repository.NewPartnerRepository(db),
		activity:  repository.NewActivityRepository(db),
	}
	f.taskSvc = NewTaskService(f.tasks, f.reminders, f.activity, clock, time.UTC, logger)
	f.linkSvc = NewLinkService(f.sessions, f.links, sender, clock, 10*time.Minute, "https://planner.example.com", logger)
	f.checkinSvc = NewCheckinService(f.checkins, clock, time.UTC, logger)
	f.digest = NewDigestService(f.schedule, f.tasks, clock, time.UTC)
	f.reports = NewReportService(f.checkins, f.tasks, f.partners, sender, clock, time.UTC, logger)
	f.scanner = NewReminderScanner(f.reminders, f.links, 5*time.Minute, logger)
	f.dispatcher = NewDispatcher(sender, f.reminders, clock, DispatchConfig{
		MaxAttempts:   3,
		BackoffBase:   time.Second,
		MaxBackoff:    30 * time.Second,
		Concurrency:   4,
		SnoozeMinutes: 10,
		WebURL:        "https://planner.example.com",
	}, logger)
	f.job = NewReminderJob(f.scanner, f.dispatcher, f.reminders, clock, logger)
	f.broadcast = NewBroadcastService(f.links, f.digest, f.checkinSvc, f.reports, sender, logger)
	return f
}

// link binds userID to chatID through the code flow.
func (f *fixture) link(t *testing.T, userID string, chatID int64) {
	t.Helper()
	ctx := context.Background()
	issued, err := f.linkSvc.IssueCode(ctx, chatID, "tester")
	require.NoError(t, err)
	res, err := f.linkSvc.VerifyCode(ctx, issued.Code, userID)
	require.NoError(t, err)
	require.True(t, res.Success)
}

// driveClock advances the fake clock by step every time something sleeps on
// it, until ctx is done.
func driveClock(ctx context.Context, clock *clockwork.FakeClock, step time.Duration) {
	go func() {
		for {
			if err := clock.BlockUntilContext(ctx, 1); err != nil {
				return
			}
			clock.Advance(step)
		}
	}()
}

func intPtr(v int) *int { return &v }
