package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-planner/internal/telegram"
)

var t0 = time.Date(2026, 3, 2, 8, 41, 0, 0, time.UTC)

func (f *fixture) dueReminder(t *testing.T, userID string, chatID int64) DueReminder {
	t.Helper()
	task, rem, err := f.taskSvc.CreateTask(context.Background(), TaskInput{
		UserID:                userID,
		Title:                 "Morning run",
		TaskDate:              "2026-03-02",
		StartTime:             "09:00",
		TelegramReminder:      true,
		ReminderMinutesBefore: intPtr(15),
	})
	require.NoError(t, err)
	require.NotNil(t, rem)
	return DueReminder{Reminder: *rem, Task: *task, ChatID: chatID}
}

func TestDispatcher_RetriesUntilThirdAttempt(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 555)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	driveClock(ctx, f.clock, time.Minute)

	f.sender.FailNext(
		&telegram.DeliveryError{Kind: telegram.Transient, StatusCode: 502, Err: errors.New("bad gateway")},
		&telegram.DeliveryError{Kind: telegram.Transient, Err: errors.New("connection reset")},
	)

	res := f.dispatcher.Dispatch(ctx, due)
	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)

	calls := f.sender.Calls()
	require.Len(t, calls, 3)
	delivered := f.sender.Delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, delivered[0].ID, res.DeliveryID)

	stored, err := f.reminders.FindByID(context.Background(), due.Reminder.ID)
	require.NoError(t, err)
	assert.True(t, stored.Sent)
	require.NotNil(t, stored.SentAt)
	assert.True(t, stored.SentAt.Equal(calls[2].At), "sent_at %s, third attempt %s", stored.SentAt, calls[2].At)
	assert.True(t, calls[2].At.Equal(t0.Add(2*time.Minute)))
	require.NotNil(t, stored.DeliveryID)
	assert.Equal(t, res.DeliveryID, *stored.DeliveryID)
}

func TestDispatcher_RateLimitWaitsRetryAfter(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 555)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	driveClock(ctx, f.clock, 7*time.Second)

	f.sender.FailNext(&telegram.DeliveryError{Kind: telegram.RateLimited, StatusCode: 429, RetryAfter: 7 * time.Second, Err: errors.New("too many requests")})

	res := f.dispatcher.Dispatch(ctx, due)
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Attempts)
	calls := f.sender.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 7*time.Second, calls[1].At.Sub(calls[0].At))
}

func TestDispatcher_SuccessAfterRetryClearsError(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 555)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	driveClock(ctx, f.clock, time.Minute)

	f.sender.FailNext(&telegram.DeliveryError{Kind: telegram.Transient, StatusCode: 502, Err: errors.New("bad gateway")})

	res := f.dispatcher.Dispatch(ctx, due)
	assert.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadySent)
	assert.Equal(t, 2, res.Attempts)
}

func TestDispatcher_SentElsewhereDuringBackoff(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 555)
	ctx := context.Background()

	f.sender.FailNext(&telegram.DeliveryError{Kind: telegram.Transient, StatusCode: 503, Err: errors.New("unavailable")})

	done := make(chan DispatchResult, 1)
	go func() { done <- f.dispatcher.Dispatch(ctx, due) }()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(waitCtx, 1))
	changed, err := f.reminders.MarkSent(ctx, due.Reminder.ID, f.clock.Now(), nil)
	require.NoError(t, err)
	require.True(t, changed)
	f.clock.Advance(time.Minute)

	res := <-done
	assert.True(t, res.AlreadySent)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, res.Attempts)
	assert.Len(t, f.sender.Calls(), 1)
}

func TestDispatcher_PermanentErrorIsNotRetried(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 555)

	f.sender.FailNext(&telegram.DeliveryError{Kind: telegram.Permanent, StatusCode: 403, Err: errors.New("bot was blocked by the user")})

	res := f.dispatcher.Dispatch(context.Background(), due)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.True(t, telegram.IsPermanent(res.Err))
	assert.Len(t, f.sender.Calls(), 1)

	stored, err := f.reminders.FindByID(context.Background(), due.Reminder.ID)
	require.NoError(t, err)
	assert.False(t, stored.Sent)
	assert.Nil(t, stored.SentAt)
}

func TestDispatcher_ExhaustedLeavesReminderUnsent(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 555)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	driveClock(ctx, f.clock, time.Minute)

	transient := &telegram.DeliveryError{Kind: telegram.Transient, StatusCode: 500, Err: errors.New("internal")}
	f.sender.FailNext(transient, transient, transient)

	res := f.dispatcher.Dispatch(ctx, due)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.ErrorIs(t, res.Err, transient)

	stored, err := f.reminders.FindByID(context.Background(), due.Reminder.ID)
	require.NoError(t, err)
	assert.False(t, stored.Sent)
}

func TestDispatcher_SkipsAlreadySent(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 555)

	_, err := f.reminders.MarkSent(context.Background(), due.Reminder.ID, t0, nil)
	require.NoError(t, err)

	res := f.dispatcher.Dispatch(context.Background(), due)
	assert.True(t, res.AlreadySent)
	assert.False(t, res.Success)
	assert.Empty(t, f.sender.Calls())
}

func TestDispatcher_MarkSentTwiceSendsOnce(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 555)

	first := f.dispatcher.Dispatch(context.Background(), due)
	require.True(t, first.Success)
	second := f.dispatcher.Dispatch(context.Background(), due)
	assert.True(t, second.AlreadySent)

	assert.Len(t, f.sender.Delivered(), 1)
}

func TestDispatcher_BatchKeepsOrder(t *testing.T) {
	f := newFixture(t, t0)
	batch := []DueReminder{
		f.dueReminder(t, userA, 1),
		f.dueReminder(t, userA, 2),
		f.dueReminder(t, userB, 3),
	}
	results := f.dispatcher.DispatchBatch(context.Background(), batch)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, batch[i].Reminder.ID, res.ReminderID)
		assert.True(t, res.Success)
	}
	assert.Len(t, f.sender.Delivered(), 3)
}

func TestRetryDelay(t *testing.T) {
	d := &Dispatcher{cfg: DispatchConfig{BackoffBase: time.Second, MaxBackoff: 3 * time.Second}}

	wait, retry := d.retryDelay(errors.New("dial tcp: timeout"), 1)
	assert.True(t, retry)
	assert.Equal(t, time.Second, wait)
	wait, _ = d.retryDelay(errors.New("dial tcp: timeout"), 2)
	assert.Equal(t, 2*time.Second, wait)
	wait, _ = d.retryDelay(errors.New("dial tcp: timeout"), 3)
	assert.Equal(t, 3*time.Second, wait)

	wait, retry = d.retryDelay(&telegram.DeliveryError{Kind: telegram.RateLimited}, 1)
	assert.True(t, retry)
	assert.Equal(t, defaultRetryAfter, wait)

	_, retry = d.retryDelay(&telegram.DeliveryError{Kind: telegram.Permanent}, 1)
	assert.False(t, retry)
	_, retry = d.retryDelay(context.Canceled, 1)
	assert.False(t, retry)
}

func TestReminderMessage(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 555)
	msg := ReminderMessage(555, due.Task, "https://planner.example.com", 10)

	assert.Contains(t, msg.Text, "<b>Morning run</b>")
	assert.Contains(t, msg.Text, "9:00 AM - 10:00 AM")
	assert.Contains(t, msg.Text, "📂 other")
	require.Len(t, msg.Buttons, 2)
	require.Len(t, msg.Buttons[0], 3)
	assert.Equal(t, "task:1:done", msg.Buttons[0][0].Data)
	assert.Equal(t, "task:1:snooze:10", msg.Buttons[0][1].Data)
	assert.Equal(t, "task:1:skip", msg.Buttons[0][2].Data)
	assert.Equal(t, "https://planner.example.com/dashboard", msg.Buttons[1][0].URL)
}
