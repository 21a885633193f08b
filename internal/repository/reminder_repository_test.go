package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-planner/internal/model"
	"life-planner/internal/repository"
	"life-planner/internal/testutil"
)

func seedReminder(t *testing.T, repos *repository.TaskRepository, remindAt time.Time) *model.Reminder {
	t.Helper()
	task := &model.Task{UserID: "u1", Title: "Run", TaskDate: "2026-03-02", StartTime: "09:00:00", EndTime: "10:00:00", TelegramReminder: true}
	rem := &model.Reminder{UserID: "u1", RemindAt: remindAt, OriginalRemindAt: remindAt, ReminderType: model.ReminderTelegram}
	require.NoError(t, repos.Create(context.Background(), task, rem))
	return rem
}

func TestReminderRepository_MarkSentIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	tasks := repository.NewTaskRepository(db)
	reminders := repository.NewReminderRepository(db)

	at := time.Date(2026, 3, 2, 8, 45, 0, 0, time.UTC)
	rem := seedReminder(t, tasks, at)

	first := at.Add(time.Minute)
	id := 77
	changed, err := reminders.MarkSent(ctx, rem.ID, first, &id)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = reminders.MarkSent(ctx, rem.ID, first.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := reminders.FindByID(ctx, rem.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Sent)
	require.NotNil(t, got.SentAt)
	assert.True(t, got.SentAt.Equal(first))
	require.NotNil(t, got.DeliveryID)
	assert.Equal(t, 77, *got.DeliveryID)
}

func TestReminderRepository_ListUnsentBetween(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	tasks := repository.NewTaskRepository(db)
	reminders := repository.NewReminderRepository(db)

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	late := seedReminder(t, tasks, now.Add(4*time.Minute))
	early := seedReminder(t, tasks, now.Add(time.Minute))
	seedReminder(t, tasks, now.Add(6*time.Minute))
	sent := seedReminder(t, tasks, now.Add(2*time.Minute))
	_, err := reminders.MarkSent(ctx, sent.ID, now, nil)
	require.NoError(t, err)

	got, err := reminders.ListUnsentBetween(ctx, now, now.Add(5*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
	require.NotNil(t, got[0].Task)
	assert.Equal(t, "Run", got[0].Task.Title)
}

func TestReminderRepository_RescheduleKeepsOriginal(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	tasks := repository.NewTaskRepository(db)
	reminders := repository.NewReminderRepository(db)

	at := time.Date(2026, 3, 2, 8, 45, 0, 0, time.UTC)
	rem := seedReminder(t, tasks, at)
	_, err := reminders.MarkSent(ctx, rem.ID, at, nil)
	require.NoError(t, err)

	require.NoError(t, reminders.Reschedule(ctx, rem.ID, at.Add(10*time.Minute)))

	got, err := reminders.FindByID(ctx, rem.ID)
	require.NoError(t, err)
	assert.False(t, got.Sent)
	assert.Nil(t, got.SentAt)
	assert.True(t, got.RemindAt.Equal(at.Add(10*time.Minute)))
	assert.True(t, got.OriginalRemindAt.Equal(at))
}

func TestTaskRepository_DeleteCascadesReminders(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	tasks := repository.NewTaskRepository(db)
	reminders := repository.NewReminderRepository(db)

	rem := seedReminder(t, tasks, time.Date(2026, 3, 2, 8, 45, 0, 0, time.UTC))
	require.NoError(t, tasks.Delete(ctx, "u1", rem.TaskID))

	got, err := reminders.FindByID(ctx, rem.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
