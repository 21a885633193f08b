package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		data string
		want Action
	}{
		{"task:42:done", TaskDone{TaskID: 42}},
		{"task:42:snooze:10", TaskSnooze{TaskID: 42, Minutes: 10}},
		{"task:7:skip", TaskSkip{TaskID: 7}},
		{"checkin_q3_yes", CheckinAnswer{Question: 3, Yes: true}},
		{"checkin_q8_no", CheckinAnswer{Question: 8, Yes: false}},
		{"checkin_start", CheckinStart{}},
		{"start_day", StartDay{}},
		{"view_progress", ViewProgress{}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := Parse(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.data, got.Token())
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, data := range []string{
		"",
		"task",
		"task:abc:done",
		"task:0:done",
		"task:1:done:extra",
		"task:1:snooze",
		"task:1:snooze:x",
		"task:1:snooze:0",
		"task:1:delete",
		"checkin_q0_yes",
		"checkin_q9_yes",
		"checkin_q3_maybe",
		"checkin_q3",
		"checkin_notes",
		"plan:1:done",
	} {
		t.Run(data, func(t *testing.T) {
			_, err := Parse(data)
			assert.ErrorIs(t, err, ErrUnknown)
		})
	}
}
