package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"life-planner/internal/repository"
	"life-planner/internal/telegram"
)

const defaultRetryAfter = 10 * time.Second

// DispatchConfig controls delivery retries.
type DispatchConfig struct {
	MaxAttempts   int
	BackoffBase   time.Duration
	MaxBackoff    time.Duration
	Concurrency   int
	SnoozeMinutes int
	WebURL        string
}

// DispatchResult describes the delivery of one reminder.
type DispatchResult struct {
	ReminderID  uint
	Success     bool
	AlreadySent bool
	Attempts    int
	DeliveryID  int
	SentAt      time.Time
	Err         error
}

// Dispatcher delivers reminders through a telegram.Sender and marks them sent.
type Dispatcher struct {
	sender    telegram.Sender
	reminders *repository.ReminderRepository
	clock     clockwork.Clock
	cfg       DispatchConfig
	logger    *slog.Logger
}

func NewDispatcher(sender telegram.Sender, reminders *repository.ReminderRepository, clock clockwork.Clock, cfg DispatchConfig, logger *slog.Logger) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.SnoozeMinutes <= 0 {
		cfg.SnoozeMinutes = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sender: sender, reminders: reminders, clock: clock, cfg: cfg, logger: logger}
}

// Dispatch sends one reminder with bounded retries. The sent flag is checked
// before every attempt so a reminder delivered by a concurrent tick is never
// sent twice. Failures leave the row unsent.
func (d *Dispatcher) Dispatch(ctx context.Context, due DueReminder) DispatchResult {
	res := DispatchResult{ReminderID: due.Reminder.ID}
	msg := ReminderMessage(due.ChatID, due.Task, d.cfg.WebURL, d.cfg.SnoozeMinutes)

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		sent, err := d.reminders.IsSent(ctx, due.Reminder.ID)
		if err != nil {
			res.Err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			return res
		}
		if sent {
			res.AlreadySent = true
			res.Err = nil
			return res
		}

		res.Attempts = attempt
		at := d.clock.Now()
		deliveryID, err := d.sender.Send(ctx, msg)
		if err == nil {
			return d.markSent(ctx, res, at, deliveryID)
		}
		res.Err = err

		wait, retry := d.retryDelay(err, attempt)
		d.logger.Warn("reminder_send_failed",
			"reminder_id", due.Reminder.ID,
			"attempt", attempt,
			"retry", retry && attempt < d.cfg.MaxAttempts,
			"error", err,
		)
		if !retry || attempt == d.cfg.MaxAttempts {
			break
		}
		if err := d.sleep(ctx, wait); err != nil {
			res.Err = err
			break
		}
	}
	res.Err = fmt.Errorf("dispatch reminder %d after %d attempts: %w", due.Reminder.ID, res.Attempts, res.Err)
	return res
}

func (d *Dispatcher) markSent(ctx context.Context, res DispatchResult, at time.Time, deliveryID int) DispatchResult {
	changed, err := d.reminders.MarkSent(ctx, res.ReminderID, at, &deliveryID)
	if err != nil {
		// Delivered but not recorded; a later tick may resend.
		res.Err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		return res
	}
	res.Success = true
	res.Err = nil
	res.AlreadySent = !changed
	res.DeliveryID = deliveryID
	res.SentAt = at
	return res
}

// retryDelay returns how long to wait before the next attempt and whether
// one should be made at all.
func (d *Dispatcher) retryDelay(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var de *telegram.DeliveryError
	if errors.As(err, &de) {
		switch de.Kind {
		case telegram.Permanent:
			return 0, false
		case telegram.RateLimited:
			if de.RetryAfter > 0 {
				return de.RetryAfter, true
			}
			return defaultRetryAfter, true
		}
	}
	wait := d.cfg.BackoffBase << (attempt - 1)
	if d.cfg.MaxBackoff > 0 && (wait > d.cfg.MaxBackoff || wait <= 0) {
		wait = d.cfg.MaxBackoff
	}
	return wait, true
}

func (d *Dispatcher) sleep(ctx context.Context, wait time.Duration) error {
	timer := d.clock.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// DispatchBatch delivers reminders concurrently, bounded by the configured
// concurrency. Results are returned in input order.
func (d *Dispatcher) DispatchBatch(ctx context.Context, due []DueReminder) []DispatchResult {
	results := make([]DispatchResult, len(due))
	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i := range due {
		g.Go(func() error {
			results[i] = d.Dispatch(ctx, due[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}
