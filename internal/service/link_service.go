package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"life-planner/internal/model"
	"life-planner/internal/repository"
	"life-planner/internal/telegram"
)

const (
	codeMin  = 100000
	codeSpan = 900000
)

// IssuedCode is a freshly stored one-time code. Superseded holds the code it
// replaced for the same chat, empty when there was none.
type IssuedCode struct {
	ChatID     int64
	Code       string
	ExpiresAt  time.Time
	Superseded string
}

// LinkResult is returned to the web application after a verification attempt.
type LinkResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ChatID  int64  `json:"-"`
}

// LinkStatus describes the link of a user.
type LinkStatus struct {
	Linked           bool   `json:"linked"`
	TelegramUsername string `json:"telegram_username,omitempty"`
	ChatID           int64  `json:"chat_id,omitempty"`
}

// LinkService issues one-time codes and exchanges them for chat links.
type LinkService struct {
	sessions *repository.SessionRepository
	links    *repository.LinkRepository
	sender   telegram.Sender
	clock    clockwork.Clock
	ttl      time.Duration
	webURL   string
	logger   *slog.Logger
}

func NewLinkService(sessions *repository.SessionRepository, links *repository.LinkRepository, sender telegram.Sender, clock clockwork.Clock, ttl time.Duration, webURL string, logger *slog.Logger) *LinkService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkService{sessions: sessions, links: links, sender: sender, clock: clock, ttl: ttl, webURL: webURL, logger: logger}
}

// IssueCode stores a new code for chatID. Any code issued earlier for the
// same chat stops working.
func (s *LinkService) IssueCode(ctx context.Context, chatID int64, username string) (IssuedCode, error) {
	code, err := newCode()
	if err != nil {
		return IssuedCode{}, err
	}
	expiresAt := s.clock.Now().Add(s.ttl)
	previous, err := s.sessions.Supersede(ctx, chatID, username, code, expiresAt)
	if err != nil {
		return IssuedCode{}, err
	}
	if previous != "" {
		s.logger.Debug("otp_superseded", "chat_id", chatID)
	}
	return IssuedCode{ChatID: chatID, Code: code, ExpiresAt: expiresAt, Superseded: previous}, nil
}

// CodeMessage renders the /start reply carrying the code.
func (s *LinkService) CodeMessage(issued IssuedCode) telegram.Message {
	var b strings.Builder
	b.WriteString("🤖 <b>LIFE DISCIPLINE BOT</b>\n\n")
	b.WriteString("Welcome to your personal discipline coach!\n\n")
	b.WriteString("Your verification code is:\n")
	fmt.Fprintf(&b, "<code>%s</code>\n\n", issued.Code)
	fmt.Fprintf(&b, "Go to %s and enter this code to link your account.\n", html.EscapeString(s.webURL))
	fmt.Fprintf(&b, "⚠️ Code expires in %d minutes.", int(s.ttl.Minutes()))
	return telegram.Message{ChatID: issued.ChatID, Text: b.String()}
}

// VerifyCode binds userID to the chat that requested code. The code is
// single use. A chat already verified for a different user is rejected
// with ErrLinkConflict and nothing is written.
func (s *LinkService) VerifyCode(ctx context.Context, code, userID string) (LinkResult, error) {
	code = strings.TrimSpace(code)
	userID = strings.TrimSpace(userID)
	if code == "" || userID == "" {
		return LinkResult{Message: "Code and user id are required"}, ErrInvalidInput
	}

	now := s.clock.Now()
	session, err := s.sessions.FindActiveByCode(ctx, code, now)
	if err != nil {
		return LinkResult{Message: "Could not verify code"}, err
	}
	if session == nil {
		return LinkResult{Message: "Invalid or expired OTP"}, ErrExpiredOrInvalidCode
	}

	existing, err := s.links.FindVerifiedByChat(ctx, session.ChatID)
	if err != nil {
		return LinkResult{Message: "Could not verify code"}, err
	}
	if existing != nil && existing.UserID != userID {
		s.logger.Warn("link_conflict", "chat_id", session.ChatID, "user_id", userID)
		return LinkResult{Message: "This Telegram account is already linked to another user"}, ErrLinkConflict
	}

	consumed, err := s.sessions.Consume(ctx, session.ID, code)
	if err != nil {
		return LinkResult{Message: "Could not verify code"}, err
	}
	if !consumed {
		return LinkResult{Message: "Invalid or expired OTP"}, ErrExpiredOrInvalidCode
	}

	if _, err := s.links.UpsertVerified(ctx, userID, session.ChatID, session.TelegramUsername, code, now); err != nil {
		return LinkResult{Message: "Could not link account"}, err
	}

	if _, err := s.sender.Send(ctx, linkedMessage(session.ChatID)); err != nil {
		s.logger.Warn("link_confirmation_failed", "chat_id", session.ChatID, "error", err)
	}
	s.logger.Info("telegram_linked", "user_id", userID, "chat_id", session.ChatID)
	return LinkResult{Success: true, Message: "Account linked successfully", ChatID: session.ChatID}, nil
}

// ResolveChat returns the verified link of a chat or ErrNotLinked.
func (s *LinkService) ResolveChat(ctx context.Context, chatID int64) (*model.TelegramLink, error) {
	link, err := s.links.FindVerifiedByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotLinked
	}
	return link, nil
}

// Status reports whether userID has a verified link.
func (s *LinkService) Status(ctx context.Context, userID string) (LinkStatus, error) {
	link, err := s.links.FindVerifiedByUser(ctx, userID)
	if err != nil {
		return LinkStatus{}, err
	}
	if link == nil {
		return LinkStatus{}, nil
	}
	return LinkStatus{Linked: true, TelegramUsername: link.TelegramUsername, ChatID: link.ChatID}, nil
}

// Unlink removes the link of userID. Unlinking an unlinked user returns ErrNotLinked.
func (s *LinkService) Unlink(ctx context.Context, userID string) error {
	removed, err := s.links.DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotLinked
	}
	s.logger.Info("telegram_unlinked", "user_id", userID)
	return nil
}

// IsUserFacing reports whether err should be shown to the caller as a rejection.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrExpiredOrInvalidCode) ||
		errors.Is(err, ErrLinkConflict) ||
		errors.Is(err, ErrNotLinked) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrReminderNotFound)
}

func linkedMessage(chatID int64) telegram.Message {
	text := "✅ <b>ACCOUNT LINKED SUCCESSFULLY!</b>\n\n" +
		"You will now receive:\n" +
		"• Daily morning messages at 6 AM\n" +
		"• Night checklists at 10 PM\n" +
		"• Weekly reports on Sunday\n" +
		"• Task reminders\n\n" +
		"Commands:\n" +
		"/today - View today's schedule\n" +
		"/summary - Get weekly report\n" +
		"/help - Show all commands"
	return telegram.Message{ChatID: chatID, Text: text}
}

// newCode returns a six digit code in [100000, 999999].
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", codeMin+n.Int64()), nil
}
