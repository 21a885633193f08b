// Package bot turns inbound Telegram updates into service calls.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"life-planner/internal/action"
	"life-planner/internal/model"
	"life-planner/internal/service"
	"life-planner/internal/telegram"
)

const (
	textHelp = "🤖 <b>LIFE DISCIPLINE BOT COMMANDS</b>\n\n" +
		"/start - Link your account\n" +
		"/today - View today's schedule &amp; commitments\n" +
		"/summary - Get weekly performance report\n" +
		"/help - Show this message\n\n" +
		"You'll receive automatic:\n" +
		"• Morning messages at 6 AM\n" +
		"• Night checklists at 10 PM\n" +
		"• Weekly reports on Sundays\n" +
		"• Task reminders"
	textUnknownCommand = "❓ Unknown command. Use /help to see available commands."
	textHint           = "🤖 Send /start to begin or /help for commands."
	textLinkFirst      = "🔗 Your Telegram account is not linked yet. Send /start to get a code, then enter it in the planner."
	textDayStarted     = "✅ Day started! Remember your commitments. You got this! 💪"
	textTaskNotFound   = "⚠️ Task not found. It may have been deleted."
	textUnknownAction  = "❓ This button is no longer supported."
	textFailed         = "⚠️ Something went wrong. Please try again in a moment."
)

// Bot routes commands and button callbacks to the planner services.
type Bot struct {
	sender   telegram.Sender
	links    *service.LinkService
	tasks    *service.TaskService
	checkins *service.CheckinService
	digest   *service.DigestService
	reports  *service.ReportService
	logger   *slog.Logger
}

func New(sender telegram.Sender, links *service.LinkService, tasks *service.TaskService, checkins *service.CheckinService, digest *service.DigestService, reports *service.ReportService, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		sender:   sender,
		links:    links,
		tasks:    tasks,
		checkins: checkins,
		digest:   digest,
		reports:  reports,
		logger:   logger,
	}
}

// Poll handles updates from long polling until ctx is cancelled.
func (b *Bot) Poll(ctx context.Context, updates tgbotapi.UpdatesChannel, stop func()) {
	b.logger.Info("polling_started")

	go func() {
		<-ctx.Done()
		stop()
	}()

	for update := range updates {
		if err := b.HandleUpdate(ctx, update); err != nil {
			b.logger.Error("update_failed", "update_id", update.UpdateID, "error", err)
		}
	}
}

// HandleUpdate processes a single update from the webhook or from polling.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return nil
		}
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if !msg.IsCommand() {
		return b.sendText(ctx, chatID, textHint)
	}

	b.logger.Info("command", "chat_id", chatID, "command", msg.Command())
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, chatID, msg.From)
	case "help":
		return b.sendText(ctx, chatID, textHelp)
	case "today":
		link, ok, err := b.resolve(ctx, chatID)
		if !ok {
			return err
		}
		summary, err := b.digest.TodaySummary(ctx, link.UserID)
		if err != nil {
			return b.fail(ctx, chatID, err)
		}
		return b.sendText(ctx, chatID, summary)
	case "summary":
		link, ok, err := b.resolve(ctx, chatID)
		if !ok {
			return err
		}
		return b.reports.SendWeekly(ctx, link.UserID, chatID, false)
	default:
		return b.sendText(ctx, chatID, textUnknownCommand)
	}
}

// handleStart always issues a fresh code, even for linked chats.
func (b *Bot) handleStart(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	username := from.UserName
	if username == "" {
		username = strings.TrimSpace(from.FirstName + " " + from.LastName)
	}
	issued, err := b.links.IssueCode(ctx, chatID, username)
	if err != nil {
		return b.fail(ctx, chatID, err)
	}
	_, err = b.sender.Send(ctx, b.links.CodeMessage(issued))
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	// Ack first so the client stops its spinner; a failed ack does not stop processing.
	if err := b.sender.AnswerCallback(ctx, cb.ID, ""); err != nil {
		b.logger.Warn("callback_ack_failed", "callback_id", cb.ID, "error", err)
	}

	chatID := callbackChat(cb)
	if chatID == 0 {
		return nil
	}

	act, err := action.Parse(cb.Data)
	if err != nil {
		b.logger.Info("callback_unknown", "chat_id", chatID, "data", cb.Data)
		return b.sendText(ctx, chatID, textUnknownAction)
	}

	link, ok, err := b.resolve(ctx, chatID)
	if !ok {
		return err
	}

	switch a := act.(type) {
	case action.TaskDone, action.TaskSnooze, action.TaskSkip:
		res, err := b.tasks.ApplyAction(ctx, link.UserID, a)
		if errors.Is(err, service.ErrTaskNotFound) {
			return b.sendText(ctx, chatID, textTaskNotFound)
		}
		if err != nil {
			return b.fail(ctx, chatID, err)
		}
		return b.sendText(ctx, chatID, res.Reply)
	case action.CheckinAnswer:
		out, err := b.checkins.Answer(ctx, link.UserID, chatID, a)
		if err != nil {
			return b.fail(ctx, chatID, err)
		}
		if out.Reply == nil {
			return nil
		}
		_, err = b.sender.Send(ctx, *out.Reply)
		return err
	case action.CheckinStart:
		msg, err := b.checkins.Start(ctx, link.UserID, chatID)
		if err != nil {
			return b.fail(ctx, chatID, err)
		}
		_, err = b.sender.Send(ctx, msg)
		return err
	case action.StartDay:
		return b.sendText(ctx, chatID, textDayStarted)
	case action.ViewProgress:
		return b.reports.SendWeekly(ctx, link.UserID, chatID, false)
	}
	return nil
}

// resolve returns the verified link of a chat. When the chat is not linked
// it tells the user and reports ok=false.
func (b *Bot) resolve(ctx context.Context, chatID int64) (*model.TelegramLink, bool, error) {
	link, err := b.links.ResolveChat(ctx, chatID)
	if errors.Is(err, service.ErrNotLinked) {
		return nil, false, b.sendText(ctx, chatID, textLinkFirst)
	}
	if err != nil {
		return nil, false, b.fail(ctx, chatID, err)
	}
	return link, true, nil
}

// fail tells the user something went wrong and returns err for logging.
func (b *Bot) fail(ctx context.Context, chatID int64, err error) error {
	if sendErr := b.sendText(ctx, chatID, textFailed); sendErr != nil {
		b.logger.Warn("failure_notice_failed", "chat_id", chatID, "error", sendErr)
	}
	return err
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) error {
	_, err := b.sender.Send(ctx, telegram.Message{ChatID: chatID, Text: text})
	return err
}

func callbackChat(cb *tgbotapi.CallbackQuery) int64 {
	if cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}
	if cb.From != nil {
		return cb.From.ID
	}
	return 0
}
