package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"life-planner/internal/action"
	"life-planner/internal/model"
	"life-planner/internal/telegram"
)

const (
	dateLayout      = "2006-01-02"
	clockLayout     = "15:04:05"
	taskDefaultCat  = "other"
	taskDefaultFrom = "09:00:00"
	taskDefaultTo   = "10:00:00"
)

// ReminderMessage renders a task reminder with done, snooze and skip buttons.
func ReminderMessage(chatID int64, task model.Task, webURL string, snoozeMinutes int) telegram.Message {
	var b strings.Builder
	b.WriteString("🔔 <b>Task Reminder</b>\n\n")
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(strings.TrimSpace(task.Title)))
	desc := strings.TrimSpace(task.Description)
	if desc == "" {
		desc = "No description"
	}
	fmt.Fprintf(&b, "📝 %s\n", html.EscapeString(desc))
	fmt.Fprintf(&b, "⏰ %s - %s\n", displayClock(task.StartTime), displayClock(task.EndTime))
	category := task.Category
	if category == "" {
		category = taskDefaultCat
	}
	fmt.Fprintf(&b, "📂 %s", html.EscapeString(category))

	rows := [][]telegram.Button{{
		{Text: "✅ Done", Data: action.TaskDone{TaskID: task.ID}.Token()},
		{Text: fmt.Sprintf("⏸️ Snooze %dm", snoozeMinutes), Data: action.TaskSnooze{TaskID: task.ID, Minutes: snoozeMinutes}.Token()},
		{Text: "⏭️ Skip", Data: action.TaskSkip{TaskID: task.ID}.Token()},
	}}
	if webURL != "" {
		rows = append(rows, []telegram.Button{{Text: "View in Planner", URL: webURL + "/dashboard"}})
	}
	return telegram.Message{ChatID: chatID, Text: b.String(), Buttons: rows}
}

// displayClock turns "HH:MM[:SS]" into "9:00 AM". Unparseable input is returned as is.
func displayClock(raw string) string {
	t, err := parseClock(raw)
	if err != nil {
		return html.EscapeString(raw)
	}
	return t.Format("3:04 PM")
}

func parseClock(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{clockLayout, "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", raw)
}

// shortClock trims seconds off a stored "HH:MM:SS" value.
func shortClock(raw string) string {
	if len(raw) >= 5 {
		return raw[:5]
	}
	return raw
}

func yesNoButtons(question int) [][]telegram.Button {
	return [][]telegram.Button{{
		{Text: "✅ Yes", Data: action.CheckinAnswer{Question: question, Yes: true}.Token()},
		{Text: "❌ No", Data: action.CheckinAnswer{Question: question, Yes: false}.Token()},
	}}
}
