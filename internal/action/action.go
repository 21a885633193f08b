// Package action parses button callback tokens into typed actions.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknown is returned for tokens that do not name a known action.
var ErrUnknown = errors.New("unknown action token")

const (
	taskDomain    = "task"
	checkinPrefix = "checkin_q"

	tokenCheckinStart = "checkin_start"
	tokenStartDay     = "start_day"
	tokenViewProgress = "view_progress"

	// Callback data is capped at 64 bytes by Telegram.
	maxTokenLen = 64
)

// Action is a parsed callback token.
type Action interface {
	Token() string
	isAction()
}

// TaskDone marks a task completed.
type TaskDone struct{ TaskID uint }

// TaskSnooze pushes the task reminder forward by Minutes.
type TaskSnooze struct {
	TaskID  uint
	Minutes int
}

// TaskSkip cancels a task.
type TaskSkip struct{ TaskID uint }

// CheckinAnswer records the answer to one check-in question.
type CheckinAnswer struct {
	Question int
	Yes      bool
}

// CheckinStart asks the first check-in question.
type CheckinStart struct{}

// StartDay acknowledges the morning message.
type StartDay struct{}

// ViewProgress requests the weekly report.
type ViewProgress struct{}

func (a TaskDone) Token() string { return fmt.Sprintf("%s:%d:done", taskDomain, a.TaskID) }
func (a TaskSnooze) Token() string {
	return fmt.Sprintf("%s:%d:snooze:%d", taskDomain, a.TaskID, a.Minutes)
}
func (a TaskSkip) Token() string { return fmt.Sprintf("%s:%d:skip", taskDomain, a.TaskID) }
func (a CheckinAnswer) Token() string {
	answer := "no"
	if a.Yes {
		answer = "yes"
	}
	return fmt.Sprintf("%s%d_%s", checkinPrefix, a.Question, answer)
}
func (CheckinStart) Token() string { return tokenCheckinStart }
func (StartDay) Token() string     { return tokenStartDay }
func (ViewProgress) Token() string { return tokenViewProgress }

func (TaskDone) isAction()      {}
func (TaskSnooze) isAction()    {}
func (TaskSkip) isAction()      {}
func (CheckinAnswer) isAction() {}
func (CheckinStart) isAction()  {}
func (StartDay) isAction()      {}
func (ViewProgress) isAction()  {}

// Parse turns callback data into an Action.
func Parse(data string) (Action, error) {
	if data == "" || len(data) > maxTokenLen {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, data)
	}
	switch data {
	case tokenCheckinStart:
		return CheckinStart{}, nil
	case tokenStartDay:
		return StartDay{}, nil
	case tokenViewProgress:
		return ViewProgress{}, nil
	}
	if strings.HasPrefix(data, checkinPrefix) {
		return parseCheckin(data)
	}
	if strings.HasPrefix(data, taskDomain+":") {
		return parseTask(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, data)
}

// parseTask handles {domain}:{id}:{action}[:param].
func parseTask(data string) (Action, error) {
	parts := strings.SplitN(data, ":", 4)
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, data)
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: bad task id in %q", ErrUnknown, data)
	}
	taskID := uint(id)
	switch parts[2] {
	case "done":
		if len(parts) != 3 {
			break
		}
		return TaskDone{TaskID: taskID}, nil
	case "skip":
		if len(parts) != 3 {
			break
		}
		return TaskSkip{TaskID: taskID}, nil
	case "snooze":
		if len(parts) != 4 {
			break
		}
		minutes, err := strconv.Atoi(parts[3])
		if err != nil || minutes <= 0 || minutes > 24*60 {
			return nil, fmt.Errorf("%w: bad snooze minutes in %q", ErrUnknown, data)
		}
		return TaskSnooze{TaskID: taskID, Minutes: minutes}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, data)
}

// parseCheckin handles checkin_q{N}_yes|no.
func parseCheckin(data string) (Action, error) {
	rest := strings.TrimPrefix(data, checkinPrefix)
	num, answer, ok := strings.Cut(rest, "_")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, data)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 || n > Questions {
		return nil, fmt.Errorf("%w: bad question in %q", ErrUnknown, data)
	}
	switch answer {
	case "yes":
		return CheckinAnswer{Question: n, Yes: true}, nil
	case "no":
		return CheckinAnswer{Question: n, Yes: false}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, data)
}

// Questions is the length of the check-in sequence.
const Questions = 8
