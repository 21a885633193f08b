// Package mcpserver exposes the reminder query and ack operations as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"life-planner/internal/service"
)

const (
	serverName    = "life-planner"
	serverVersion = "1.0.0"
)

// Server is the MCP server for reminder delivery.
type Server struct {
	mcpServer *server.MCPServer
	job       *service.ReminderJob
	links     *service.LinkService
}

func New(job *service.ReminderJob, links *service.LinkService) *Server {
	s := &Server{job: job, links: links}
	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_due_reminders",
			mcp.WithDescription("List unsent Telegram reminders due within the lookahead window"),
		),
		s.handleDueReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("mark_reminder_sent",
			mcp.WithDescription("Record that a reminder was delivered. Marking twice is harmless"),
			mcp.WithNumber("reminder_id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleMarkSent,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("run_reminder_tick",
			mcp.WithDescription("Scan for due reminders and deliver them through Telegram"),
		),
		s.handleTick,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("link_status",
			mcp.WithDescription("Report whether a planner user has linked Telegram"),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("Planner user UUID")),
		),
		s.handleLinkStatus,
	)
}

type dueReminder struct {
	ReminderID uint      `json:"reminder_id"`
	TaskID     uint      `json:"task_id"`
	UserID     string    `json:"user_id"`
	ChatID     int64     `json:"chat_id"`
	Title      string    `json:"title"`
	TaskDate   string    `json:"task_date"`
	StartTime  string    `json:"start_time"`
	RemindAt   time.Time `json:"remind_at"`
}

func (s *Server) handleDueReminders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, _, err := s.job.Due(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get due reminders: %v", err)), nil
	}
	if len(res.Due) == 0 {
		return mcp.NewToolResultText("No due reminders."), nil
	}

	out := make([]dueReminder, 0, len(res.Due))
	for _, d := range res.Due {
		out = append(out, dueReminder{
			ReminderID: d.Reminder.ID,
			TaskID:     d.Task.ID,
			UserID:     d.Reminder.UserID,
			ChatID:     d.ChatID,
			Title:      d.Task.Title,
			TaskDate:   d.Task.TaskDate,
			StartTime:  d.Task.StartTime,
			RemindAt:   d.Reminder.RemindAt,
		})
	}
	output, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleMarkSent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idFloat := req.GetFloat("reminder_id", -1)
	if idFloat < 1 {
		return mcp.NewToolResultError("reminder_id is required and must be a positive number"), nil
	}
	id := uint(idFloat)

	changed, err := s.job.MarkSent(ctx, id)
	if errors.Is(err, service.ErrReminderNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("reminder %d not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to mark reminder sent: %v", err)), nil
	}
	if !changed {
		return mcp.NewToolResultText(fmt.Sprintf("Reminder %d was already marked as sent.", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %d marked as sent.", id)), nil
}

func (s *Server) handleTick(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.job.Tick(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reminder tick failed: %v", err)), nil
	}
	output, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleLinkStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := uuid.Parse(userID); err != nil {
		return mcp.NewToolResultError("user_id must be a UUID"), nil
	}

	status, err := s.links.Status(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load link: %v", err)), nil
	}
	output, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}
