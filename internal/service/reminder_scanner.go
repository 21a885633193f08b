package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"life-planner/internal/model"
	"life-planner/internal/repository"
)

// DueReminder is a reminder selected for delivery with its task and chat.
type DueReminder struct {
	Reminder model.Reminder
	Task     model.Task
	ChatID   int64
}

// ScanResult is the outcome of one read-only scan.
type ScanResult struct {
	Due     []DueReminder
	Skipped int
}

// ReminderScanner selects unsent reminders that fall inside the lookahead window.
type ReminderScanner struct {
	reminders *repository.ReminderRepository
	links     *repository.LinkRepository
	lookahead time.Duration
	logger    *slog.Logger
}

func NewReminderScanner(reminders *repository.ReminderRepository, links *repository.LinkRepository, lookahead time.Duration, logger *slog.Logger) *ReminderScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderScanner{reminders: reminders, links: links, lookahead: lookahead, logger: logger}
}

// Scan returns reminders with remind_at in [now, now+lookahead], earliest
// first. Reminders of tasks that opted out of Telegram, tasks that are no
// longer pending and users without a verified link are counted as skipped and
// left untouched. A failed link lookup skips only that user's reminders for
// this scan. Failing to list reminders aborts it with ErrStoreUnavailable.
func (s *ReminderScanner) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	var res ScanResult
	rows, err := s.reminders.ListUnsentBetween(ctx, now, now.Add(s.lookahead))
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	chats := make(map[string]*model.TelegramLink)
	for _, r := range rows {
		if r.Task == nil || !r.Task.TelegramReminder || !r.Task.IsPending() {
			res.Skipped++
			continue
		}
		userID := r.Task.UserID
		link, seen := chats[userID]
		if !seen {
			link, err = s.links.FindVerifiedByUser(ctx, userID)
			if err != nil {
				s.logger.Warn("reminder_link_lookup_failed", "reminder_id", r.ID, "user_id", userID, "error", err)
				res.Skipped++
				continue
			}
			chats[userID] = link
		}
		if link == nil {
			s.logger.Debug("reminder_skipped_unlinked", "reminder_id", r.ID, "user_id", userID)
			res.Skipped++
			continue
		}
		task := *r.Task
		r.Task = nil
		res.Due = append(res.Due, DueReminder{Reminder: r, Task: task, ChatID: link.ChatID})
	}
	return res, nil
}
