package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-planner/internal/action"
	"life-planner/internal/model"
)

func TestApplyAction_Done(t *testing.T) {
	f := newFixture(t, t0)
	ctx := context.Background()
	due := f.dueReminder(t, userA, 1)

	res, err := f.taskSvc.ApplyAction(ctx, userA, action.TaskDone{TaskID: due.Task.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, res.PreviousStatus)
	assert.Equal(t, model.TaskCompleted, res.NewStatus)
	assert.Contains(t, res.Reply, "Morning run")

	task, err := f.tasks.FindByID(ctx, userA, due.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(t0))

	rem, err := f.reminders.FindByID(ctx, due.Reminder.ID)
	require.NoError(t, err)
	assert.True(t, rem.Sent)

	logs, err := f.activity.ListForTask(ctx, due.Task.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "task_completed", logs[0].ActionType)
	assert.Equal(t, model.TaskPending, logs[0].PreviousStatus)
	assert.Equal(t, model.TaskCompleted, logs[0].NewStatus)
	var details map[string]string
	require.NoError(t, json.Unmarshal([]byte(logs[0].Details), &details))
	assert.Equal(t, "done", details["action"])
}

func TestApplyAction_SnoozeReschedules(t *testing.T) {
	f := newFixture(t, t0)
	ctx := context.Background()
	due := f.dueReminder(t, userA, 1)

	_, err := f.reminders.MarkSent(ctx, due.Reminder.ID, t0, nil)
	require.NoError(t, err)

	res, err := f.taskSvc.ApplyAction(ctx, userA, action.TaskSnooze{TaskID: due.Task.ID, Minutes: 10})
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, res.NewStatus)
	require.NotNil(t, res.RemindAt)
	assert.True(t, res.RemindAt.Equal(t0.Add(10*time.Minute)))

	rem, err := f.reminders.FindByID(ctx, due.Reminder.ID)
	require.NoError(t, err)
	assert.False(t, rem.Sent)
	assert.Nil(t, rem.SentAt)
	assert.True(t, rem.RemindAt.Equal(t0.Add(10*time.Minute)))
	assert.True(t, rem.OriginalRemindAt.Equal(due.Reminder.OriginalRemindAt))

	logs, err := f.activity.ListForTask(ctx, due.Task.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "task_updated", logs[0].ActionType)
}

func TestApplyAction_Skip(t *testing.T) {
	f := newFixture(t, t0)
	ctx := context.Background()
	due := f.dueReminder(t, userA, 1)

	res, err := f.taskSvc.ApplyAction(ctx, userA, action.TaskSkip{TaskID: due.Task.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskCancelled, res.NewStatus)

	task, err := f.tasks.FindByID(ctx, userA, due.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskCancelled, task.Status)
	assert.Nil(t, task.CompletedAt)
}

func TestApplyAction_OtherUsersTask(t *testing.T) {
	f := newFixture(t, t0)
	due := f.dueReminder(t, userA, 1)

	_, err := f.taskSvc.ApplyAction(context.Background(), userB, action.TaskDone{TaskID: due.Task.ID})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	task, err := f.tasks.FindByID(context.Background(), userA, due.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, task.Status)
}

func TestApplyAction_RejectsNonTaskAction(t *testing.T) {
	f := newFixture(t, t0)
	_, err := f.taskSvc.ApplyAction(context.Background(), userA, action.StartDay{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateTask_ZeroLeadTimeIsStored(t *testing.T) {
	f := newFixture(t, t0)
	ctx := context.Background()

	task, rem, err := f.taskSvc.CreateTask(ctx, TaskInput{
		UserID:                userA,
		Title:                 "Standup",
		TaskDate:              "2026-03-02",
		StartTime:             "09:00",
		TelegramReminder:      true,
		ReminderMinutesBefore: intPtr(0),
	})
	require.NoError(t, err)
	require.NotNil(t, rem)
	assert.Equal(t, 0, task.ReminderMinutesBefore)
	assert.True(t, rem.RemindAt.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))

	stored, err := f.tasks.FindByID(ctx, userA, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 0, stored.ReminderMinutesBefore)
}

func TestCreateTask_DefaultLeadTime(t *testing.T) {
	f := newFixture(t, t0)

	task, _, err := f.taskSvc.CreateTask(context.Background(), TaskInput{UserID: userA, Title: "Read", TaskDate: "2026-03-02"})
	require.NoError(t, err)

	stored, err := f.tasks.FindByID(context.Background(), userA, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.ReminderMinutesBefore)
}
