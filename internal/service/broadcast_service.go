package service

import (
	"context"
	"fmt"
	"log/slog"

	"life-planner/internal/model"
	"life-planner/internal/repository"
	"life-planner/internal/telegram"
)

// Broadcast kinds.
const (
	BroadcastMorning = "morning"
	BroadcastNight   = "night"
	BroadcastWeekly  = "weekly"
)

// BroadcastReport counts per-user outcomes of one broadcast.
type BroadcastReport struct {
	Kind   string `json:"kind"`
	Users  int    `json:"users"`
	Sent   int    `json:"sent"`
	Failed int    `json:"failed"`
}

// BroadcastService sends the scheduled messages to every linked user.
type BroadcastService struct {
	links    *repository.LinkRepository
	digest   *DigestService
	checkins *CheckinService
	reports  *ReportService
	sender   telegram.Sender
	logger   *slog.Logger
}

func NewBroadcastService(links *repository.LinkRepository, digest *DigestService, checkins *CheckinService, reports *ReportService, sender telegram.Sender, logger *slog.Logger) *BroadcastService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BroadcastService{links: links, digest: digest, checkins: checkins, reports: reports, sender: sender, logger: logger}
}

// Run sends one kind of broadcast. A failure for one user is logged and the
// loop moves on.
func (s *BroadcastService) Run(ctx context.Context, kind string) (BroadcastReport, error) {
	report := BroadcastReport{Kind: kind}
	var send func(context.Context, model.TelegramLink) error
	switch kind {
	case BroadcastMorning:
		send = s.morning
	case BroadcastNight:
		send = s.night
	case BroadcastWeekly:
		send = s.weekly
	default:
		return report, fmt.Errorf("%w: unknown broadcast %q", ErrInvalidInput, kind)
	}

	links, err := s.links.ListVerified(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Users++
		if err := send(ctx, link); err != nil {
			report.Failed++
			s.logger.Warn("broadcast_failed", "kind", kind, "user_id", link.UserID, "error", err)
			continue
		}
		report.Sent++
	}
	s.logger.Info("broadcast_done", "kind", kind, "users", report.Users, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

func (s *BroadcastService) morning(ctx context.Context, link model.TelegramLink) error {
	msg, err := s.digest.MorningMessage(ctx, link.UserID, link.ChatID)
	if err != nil {
		return err
	}
	_, err = s.sender.Send(ctx, msg)
	return err
}

func (s *BroadcastService) night(ctx context.Context, link model.TelegramLink) error {
	msg := s.checkins.NightMessage(link.ChatID)
	_, err := s.sender.Send(ctx, msg)
	return err
}

func (s *BroadcastService) weekly(ctx context.Context, link model.TelegramLink) error {
	return s.reports.SendWeekly(ctx, link.UserID, link.ChatID, true)
}
