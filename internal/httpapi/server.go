// Package httpapi exposes the webhook, linking and reminder endpoints.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"life-planner/internal/service"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler processes one Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// Options configures authentication.
type Options struct {
	// WebhookSecret is compared with the secret token header on /webhook.
	WebhookSecret string
	// APIToken guards every other endpoint except /health when set.
	APIToken string
}

type Server struct {
	updates    UpdateHandler
	links      *service.LinkService
	job        *service.ReminderJob
	broadcasts *service.BroadcastService
	opts       Options
	logger     *slog.Logger

	inflight sync.WaitGroup
}

func New(updates UpdateHandler, links *service.LinkService, job *service.ReminderJob, broadcasts *service.BroadcastService, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		updates:    updates,
		links:      links,
		job:        job,
		broadcasts: broadcasts,
		opts:       opts,
		logger:     logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /webhook", s.webhook)
	mux.HandleFunc("POST /verify", s.authed(s.verify))
	mux.HandleFunc("GET /due-reminders", s.authed(s.dueReminders))
	mux.HandleFunc("POST /mark-sent", s.authed(s.markSent))
	mux.HandleFunc("POST /check-link", s.authed(s.checkLink))
	mux.HandleFunc("POST /unlink", s.authed(s.unlink))
	mux.HandleFunc("POST /run", s.authed(s.run))
	return mux
}

// Wait blocks until updates accepted by /webhook have been processed.
func (s *Server) Wait() {
	s.inflight.Wait()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// webhook answers 200 as soon as the update is decoded. Processing continues
// after the response so slow sends never make Telegram redeliver.
func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	if s.opts.WebhookSecret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.WebhookSecret)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.updates.HandleUpdate(ctx, update); err != nil {
			s.logger.Error("webhook_update_failed", "update_id", update.UpdateID, "error", err)
		}
	}()
	w.WriteHeader(http.StatusOK)
}

type verifyRequest struct {
	Code      string `json:"code"`
	OTP       string `json:"otp"`
	UserID    string `json:"userId"`
	UserIDAlt string `json:"user_id"`
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, service.LinkResult{Message: "invalid json"})
		return
	}
	code := firstNonEmpty(req.Code, req.OTP)
	userID := firstNonEmpty(req.UserID, req.UserIDAlt)
	if code == "" || userID == "" {
		writeJSON(w, http.StatusBadRequest, service.LinkResult{Message: "Code and user id are required"})
		return
	}
	if !validUserID(userID) {
		writeJSON(w, http.StatusBadRequest, service.LinkResult{Message: "user id must be a UUID"})
		return
	}

	res, err := s.links.VerifyCode(r.Context(), code, userID)
	if err != nil {
		s.logger.Info("verify_rejected", "user_id", userID, "error", err)
	}
	writeJSON(w, statusFor(err), res)
}

type dueReminder struct {
	ReminderID  uint      `json:"reminder_id"`
	TaskID      uint      `json:"task_id"`
	UserID      string    `json:"user_id"`
	ChatID      int64     `json:"chat_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TaskDate    string    `json:"task_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	RemindAt    time.Time `json:"remind_at"`
}

func (s *Server) dueReminders(w http.ResponseWriter, r *http.Request) {
	res, now, err := s.job.Due(r.Context())
	if err != nil {
		s.logger.Error("due_reminders_failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "could not load reminders")
		return
	}
	out := make([]dueReminder, 0, len(res.Due))
	for _, d := range res.Due {
		out = append(out, dueReminder{
			ReminderID:  d.Reminder.ID,
			TaskID:      d.Task.ID,
			UserID:      d.Reminder.UserID,
			ChatID:      d.ChatID,
			Title:       d.Task.Title,
			Description: d.Task.Description,
			TaskDate:    d.Task.TaskDate,
			StartTime:   d.Task.StartTime,
			EndTime:     d.Task.EndTime,
			RemindAt:    d.Reminder.RemindAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"count":     len(out),
		"reminders": out,
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

func (s *Server) markSent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReminderID uint `json:"reminder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReminderID == 0 {
		writeError(w, http.StatusBadRequest, "reminder_id is required")
		return
	}
	changed, err := s.job.MarkSent(r.Context(), req.ReminderID)
	if err != nil {
		writeError(w, statusFor(err), errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "already_sent": !changed})
}

type userRequest struct {
	UserID    string `json:"user_id"`
	UserIDAlt string `json:"userId"`
}

func (s *Server) decodeUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return "", false
	}
	userID := firstNonEmpty(req.UserID, req.UserIDAlt)
	if !validUserID(userID) {
		writeError(w, http.StatusBadRequest, "user_id must be a UUID")
		return "", false
	}
	return userID, true
}

func (s *Server) checkLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.decodeUser(w, r)
	if !ok {
		return
	}
	status, err := s.links.Status(r.Context(), userID)
	if err != nil {
		writeError(w, statusFor(err), errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) unlink(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.decodeUser(w, r)
	if !ok {
		return
	}
	if err := s.links.Unlink(r.Context(), userID); err != nil {
		writeError(w, statusFor(err), errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Telegram disconnected"})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	switch kind := r.URL.Query().Get("action"); kind {
	case "reminders":
		report, err := s.job.Tick(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "reminder tick failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "action": kind, "report": report})
	case service.BroadcastMorning, service.BroadcastNight, service.BroadcastWeekly:
		report, err := s.broadcasts.Run(r.Context(), kind)
		if err != nil {
			writeError(w, statusFor(err), errorMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "action": kind, "report": report})
	default:
		writeError(w, http.StatusBadRequest, "action must be one of reminders, morning, night, weekly")
	}
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.APIToken != "" && !checkAuth(r, s.opts.APIToken) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func checkAuth(r *http.Request, token string) bool {
	got := strings.TrimSpace(r.Header.Get("Authorization"))
	want := "Bearer " + strings.TrimSpace(token)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, service.ErrLinkConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotLinked), errors.Is(err, service.ErrReminderNotFound), errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrExpiredOrInvalidCode), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage hides internal failures from callers.
func errorMessage(err error) string {
	if service.IsUserFacing(err) {
		return err.Error()
	}
	return "internal error"
}

func validUserID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
