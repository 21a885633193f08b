package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"life-planner/internal/action"
	"life-planner/internal/model"
	"life-planner/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	UserID                string `json:"user_id"`
	Title                 string `json:"title"`
	Description           string `json:"description"`
	Category              string `json:"category"`
	TaskDate              string `json:"task_date"`
	StartTime             string `json:"start_time"`
	EndTime               string `json:"end_time"`
	TelegramReminder      bool   `json:"telegram_reminder"`
	ReminderMinutesBefore *int   `json:"reminder_minutes_before"`
}

// TaskActionResult is the outcome of a button action on a task.
type TaskActionResult struct {
	Task           model.Task
	Action         string
	PreviousStatus string
	NewStatus      string
	RemindAt       *time.Time
	Reply          string
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	reminderRepo *repository.ReminderRepository
	activityRepo *repository.ActivityRepository
	clock        clockwork.Clock
	loc          *time.Location
	logger       *slog.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, reminderRepo *repository.ReminderRepository, activityRepo *repository.ActivityRepository, clock clockwork.Clock, loc *time.Location, logger *slog.Logger) *TaskService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{taskRepo: taskRepo, reminderRepo: reminderRepo, activityRepo: activityRepo, clock: clock, loc: loc, logger: logger}
}

// CreateTask stores a pending task. With TelegramReminder set it also
// schedules a reminder ReminderMinutesBefore the local start time.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, *model.Reminder, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.UserID == "" {
		return nil, nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Title == "" {
		return nil, nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if _, err := time.ParseInLocation(dateLayout, input.TaskDate, s.loc); err != nil {
		return nil, nil, fmt.Errorf("%w: task date must be YYYY-MM-DD", ErrInvalidInput)
	}

	start, err := normalizeClock(input.StartTime, taskDefaultFrom)
	if err != nil {
		return nil, nil, err
	}
	end, err := normalizeClock(input.EndTime, taskDefaultTo)
	if err != nil {
		return nil, nil, err
	}
	minutes := 15
	if input.ReminderMinutesBefore != nil {
		minutes = *input.ReminderMinutesBefore
	}
	if minutes < 0 {
		return nil, nil, fmt.Errorf("%w: reminder minutes must not be negative", ErrInvalidInput)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = taskDefaultCat
	}

	task := model.Task{
		UserID:                input.UserID,
		Title:                 input.Title,
		Description:           strings.TrimSpace(input.Description),
		Category:              category,
		TaskDate:              input.TaskDate,
		StartTime:             start,
		EndTime:               end,
		Status:                model.TaskPending,
		TelegramReminder:      input.TelegramReminder,
		ReminderMinutesBefore: minutes,
	}

	var reminder *model.Reminder
	if input.TelegramReminder {
		at, err := s.startsAt(task)
		if err != nil {
			return nil, nil, err
		}
		remindAt := at.Add(-time.Duration(minutes) * time.Minute).UTC()
		reminder = &model.Reminder{
			UserID:           input.UserID,
			RemindAt:         remindAt,
			OriginalRemindAt: remindAt,
			ReminderType:     model.ReminderTelegram,
		}
	}

	if err := s.taskRepo.Create(ctx, &task, reminder); err != nil {
		return nil, nil, err
	}
	return &task, reminder, nil
}

// startsAt resolves the task date and start time in the configured timezone.
func (s *TaskService) startsAt(task model.Task) (time.Time, error) {
	at, err := time.ParseInLocation(dateLayout+" "+clockLayout, task.TaskDate+" "+task.StartTime, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad start %q %q", ErrInvalidInput, task.TaskDate, task.StartTime)
	}
	return at, nil
}

// ListForDay returns the tasks of a user on a local date.
func (s *TaskService) ListForDay(ctx context.Context, userID, date string) ([]model.Task, error) {
	return s.taskRepo.ListForDate(ctx, userID, date)
}

// DeleteTask removes a task together with its reminders.
func (s *TaskService) DeleteTask(ctx context.Context, userID string, taskID uint) error {
	return s.taskRepo.Delete(ctx, userID, taskID)
}

// ApplyAction performs done, snooze or skip on a task owned by userID and
// records an activity log entry.
func (s *TaskService) ApplyAction(ctx context.Context, userID string, a action.Action) (TaskActionResult, error) {
	var taskID uint
	switch v := a.(type) {
	case action.TaskDone:
		taskID = v.TaskID
	case action.TaskSnooze:
		taskID = v.TaskID
	case action.TaskSkip:
		taskID = v.TaskID
	default:
		return TaskActionResult{}, fmt.Errorf("%w: %s is not a task action", ErrInvalidInput, a.Token())
	}

	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return TaskActionResult{}, err
	}
	if task == nil {
		return TaskActionResult{}, ErrTaskNotFound
	}

	now := s.clock.Now()
	res := TaskActionResult{PreviousStatus: task.Status}
	title := html.EscapeString(task.Title)

	switch v := a.(type) {
	case action.TaskDone:
		res.Action = "done"
		if err := s.taskRepo.UpdateStatus(ctx, task, model.TaskCompleted, &now); err != nil {
			return TaskActionResult{}, err
		}
		if err := s.reminderRepo.MarkSentForTask(ctx, task.ID, now); err != nil {
			return TaskActionResult{}, err
		}
		res.Reply = fmt.Sprintf("✅ Task completed: <b>%s</b>", title)
	case action.TaskSnooze:
		res.Action = "snooze"
		if err := s.taskRepo.UpdateStatus(ctx, task, model.TaskPending, nil); err != nil {
			return TaskActionResult{}, err
		}
		remindAt := now.Add(time.Duration(v.Minutes) * time.Minute)
		if err := s.snooze(ctx, task, remindAt); err != nil {
			return TaskActionResult{}, err
		}
		res.RemindAt = &remindAt
		res.Reply = fmt.Sprintf("⏸️ Snoozed <b>%s</b> for %d minutes. Next reminder at %s.",
			title, v.Minutes, remindAt.In(s.loc).Format("3:04 PM"))
	case action.TaskSkip:
		res.Action = "skip"
		if err := s.taskRepo.UpdateStatus(ctx, task, model.TaskCancelled, nil); err != nil {
			return TaskActionResult{}, err
		}
		res.Reply = fmt.Sprintf("⏭️ Task skipped: <b>%s</b>", title)
	}
	res.NewStatus = task.Status
	res.Task = *task

	if err := s.logActivity(ctx, userID, res); err != nil {
		return TaskActionResult{}, err
	}
	return res, nil
}

// snooze moves the latest reminder of the task, creating one when the task
// never had a reminder.
func (s *TaskService) snooze(ctx context.Context, task *model.Task, remindAt time.Time) error {
	reminder, err := s.reminderRepo.LatestForTask(ctx, task.ID)
	if err != nil {
		return err
	}
	if reminder != nil {
		return s.reminderRepo.Reschedule(ctx, reminder.ID, remindAt)
	}
	return s.reminderRepo.Create(ctx, &model.Reminder{
		TaskID:           task.ID,
		UserID:           task.UserID,
		RemindAt:         remindAt.UTC(),
		OriginalRemindAt: remindAt.UTC(),
		ReminderType:     model.ReminderTelegram,
	})
}

func (s *TaskService) logActivity(ctx context.Context, userID string, res TaskActionResult) error {
	actionType := "task_updated"
	if res.Action == "done" {
		actionType = "task_completed"
	}
	details, err := json.Marshal(map[string]string{
		"previous_status": res.PreviousStatus,
		"new_status":      res.NewStatus,
		"action":          res.Action,
	})
	if err != nil {
		return fmt.Errorf("encode activity details: %w", err)
	}
	taskID := res.Task.ID
	return s.activityRepo.Append(ctx, &model.ActivityLog{
		UserID:         userID,
		TaskID:         &taskID,
		ActionType:     actionType,
		PreviousStatus: res.PreviousStatus,
		NewStatus:      res.NewStatus,
		Details:        string(details),
	})
}

func normalizeClock(raw, fallback string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	t, err := parseClock(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return t.Format(clockLayout), nil
}
