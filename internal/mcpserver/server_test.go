package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-planner/internal/model"
	"life-planner/internal/repository"
	"life-planner/internal/service"
	"life-planner/internal/telegram/telegramtest"
	"life-planner/internal/testutil"
)

const userID = "6f1c2a52-8a3e-4c39-9a51-0c7f8b1d2e01"

type env struct {
	srv    *Server
	clock  *clockwork.FakeClock
	sender *telegramtest.Sender
	links  *service.LinkService
	tasks  *repository.TaskRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	sender := telegramtest.New(clock)

	reminders := repository.NewReminderRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	links := service.NewLinkService(repository.NewSessionRepository(db), linkRepo, sender, clock, 10*time.Minute, "https://planner.example.com", logger)
	scanner := service.NewReminderScanner(reminders, linkRepo, 5*time.Minute, logger)
	dispatcher := service.NewDispatcher(sender, reminders, clock, service.DispatchConfig{MaxAttempts: 1}, logger)
	job := service.NewReminderJob(scanner, dispatcher, reminders, clock, logger)

	return &env{
		srv:    New(job, links),
		clock:  clock,
		sender: sender,
		links:  links,
		tasks:  repository.NewTaskRepository(db),
	}
}

func (e *env) call(t *testing.T, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	st := e.srv.MCPServer().GetTool(tool)
	require.NotNil(t, st, "tool %s not registered", tool)
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: tool, Arguments: args}}
	res, err := st.Handler(context.Background(), req)
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func (e *env) seed(t *testing.T) *model.Reminder {
	t.Helper()
	ctx := context.Background()
	issued, err := e.links.IssueCode(ctx, 55, "tester")
	require.NoError(t, err)
	_, err = e.links.VerifyCode(ctx, issued.Code, userID)
	require.NoError(t, err)

	at := e.clock.Now().Add(3 * time.Minute)
	task := &model.Task{UserID: userID, Title: "Meditate", TaskDate: "2026-03-02", StartTime: "08:18:00", EndTime: "08:30:00", Status: model.TaskPending, TelegramReminder: true}
	rem := &model.Reminder{UserID: userID, RemindAt: at, OriginalRemindAt: at, ReminderType: model.ReminderTelegram}
	require.NoError(t, e.tasks.Create(ctx, task, rem))
	return rem
}

func TestToolsRegistered(t *testing.T) {
	e := newEnv(t)
	tools := e.srv.MCPServer().ListTools()
	for _, name := range []string{"get_due_reminders", "mark_reminder_sent", "run_reminder_tick", "link_status"} {
		assert.Contains(t, tools, name)
	}
}

func TestDueAndMarkSent(t *testing.T) {
	e := newEnv(t)

	res := e.call(t, "get_due_reminders", nil)
	assert.Equal(t, "No due reminders.", text(t, res))

	rem := e.seed(t)
	res = e.call(t, "get_due_reminders", nil)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Meditate")

	res = e.call(t, "mark_reminder_sent", map[string]any{"reminder_id": float64(rem.ID)})
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "marked as sent")

	res = e.call(t, "mark_reminder_sent", map[string]any{"reminder_id": float64(rem.ID)})
	assert.Contains(t, text(t, res), "already marked")

	res = e.call(t, "mark_reminder_sent", map[string]any{"reminder_id": float64(9999)})
	assert.True(t, res.IsError)

	res = e.call(t, "mark_reminder_sent", map[string]any{})
	assert.True(t, res.IsError)
}

func TestRunTickDelivers(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	res := e.call(t, "run_reminder_tick", nil)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), `"sent": 1`)
	assert.Len(t, e.sender.DeliveredTo(55), 2)
}

func TestLinkStatus(t *testing.T) {
	e := newEnv(t)

	res := e.call(t, "link_status", map[string]any{"user_id": "nope"})
	assert.True(t, res.IsError)

	res = e.call(t, "link_status", map[string]any{"user_id": userID})
	assert.Contains(t, text(t, res), `"linked": false`)

	e.seed(t)
	res = e.call(t, "link_status", map[string]any{"user_id": userID})
	assert.Contains(t, text(t, res), `"linked": true`)
}
