package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"life-planner/internal/repository"
)

// TickReport summarizes one scan and dispatch cycle.
type TickReport struct {
	Scanned     int `json:"scanned"`
	Skipped     int `json:"skipped"`
	Sent        int `json:"sent"`
	AlreadySent int `json:"already_sent"`
	Failed      int `json:"failed"`
}

// ReminderJob runs the scanner and hands the batch to the dispatcher.
// Each tick is independent; overlapping ticks are safe because marking a
// reminder sent is monotonic.
type ReminderJob struct {
	scanner    *ReminderScanner
	dispatcher *Dispatcher
	reminders  *repository.ReminderRepository
	clock      clockwork.Clock
	logger     *slog.Logger
}

func NewReminderJob(scanner *ReminderScanner, dispatcher *Dispatcher, reminders *repository.ReminderRepository, clock clockwork.Clock, logger *slog.Logger) *ReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderJob{scanner: scanner, dispatcher: dispatcher, reminders: reminders, clock: clock, logger: logger}
}

// Due scans at the current time without sending anything. It backs the
// external trigger that delivers reminders itself.
func (j *ReminderJob) Due(ctx context.Context) (ScanResult, time.Time, error) {
	now := j.clock.Now()
	res, err := j.scanner.Scan(ctx, now)
	return res, now, err
}

// MarkSent records an externally delivered reminder. A second call reports
// changed=false and keeps the first sent_at.
func (j *ReminderJob) MarkSent(ctx context.Context, reminderID uint) (bool, error) {
	reminder, err := j.reminders.FindByID(ctx, reminderID)
	if err != nil {
		return false, err
	}
	if reminder == nil {
		return false, fmt.Errorf("%w: %d", ErrReminderNotFound, reminderID)
	}
	changed, err := j.reminders.MarkSent(ctx, reminderID, j.clock.Now(), nil)
	if err != nil {
		return false, err
	}
	if changed {
		j.logger.Info("reminder_marked_sent", "reminder_id", reminderID)
	}
	return changed, nil
}

// Tick performs one cycle. Only a failed scan returns an error; per-item
// delivery failures are logged and counted.
func (j *ReminderJob) Tick(ctx context.Context) (TickReport, error) {
	var report TickReport
	now := j.clock.Now()
	scan, err := j.scanner.Scan(ctx, now)
	if err != nil {
		j.logger.Error("scan_tick_failed", "error", err)
		return report, err
	}
	report.Scanned = len(scan.Due) + scan.Skipped
	report.Skipped = scan.Skipped

	for _, res := range j.dispatcher.DispatchBatch(ctx, scan.Due) {
		switch {
		case res.Success && !res.AlreadySent:
			report.Sent++
		case res.AlreadySent:
			report.AlreadySent++
		default:
			report.Failed++
			j.logger.Error("reminder_dispatch_failed", "reminder_id", res.ReminderID, "attempts", res.Attempts, "error", res.Err)
		}
	}

	j.logger.Info("scan_tick_done",
		"scanned", report.Scanned,
		"skipped", report.Skipped,
		"sent", report.Sent,
		"failed", report.Failed,
	)
	return report, nil
}
