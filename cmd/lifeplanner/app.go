package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"life-planner/internal/bot"
	"life-planner/internal/config"
	"life-planner/internal/logutil"
	"life-planner/internal/repository"
	"life-planner/internal/service"
	"life-planner/internal/telegram"
)

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	loc    *time.Location
	db     *gorm.DB

	gateway    *telegram.Gateway
	links      *service.LinkService
	job        *service.ReminderJob
	broadcasts *service.BroadcastService
	bot        *bot.Bot
}

// loadConfig reads the configuration and installs the process logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); strings.TrimSpace(level) != "" {
		cfg.Logging.Level = level
	}
	logger, err := logutil.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	gateway, err := telegram.NewGateway(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, cfg.Reminders.RequestTimeout)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("telegram: %w", err)
	}

	clock := clockwork.NewRealClock()

	taskRepo := repository.NewTaskRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)

	links := service.NewLinkService(repository.NewSessionRepository(db), linkRepo, gateway, clock, cfg.OTP.TTL, cfg.App.WebURL, logger)
	tasks := service.NewTaskService(taskRepo, reminderRepo, repository.NewActivityRepository(db), clock, loc, logger)
	checkins := service.NewCheckinService(checkinRepo, clock, loc, logger)
	digest := service.NewDigestService(repository.NewScheduleRepository(db), taskRepo, clock, loc)
	reports := service.NewReportService(checkinRepo, taskRepo, repository.NewPartnerRepository(db), gateway, clock, loc, logger)

	scanner := service.NewReminderScanner(reminderRepo, linkRepo, cfg.Reminders.Lookahead, logger)
	dispatcher := service.NewDispatcher(gateway, reminderRepo, clock, service.DispatchConfig{
		MaxAttempts:   cfg.Reminders.MaxAttempts,
		BackoffBase:   cfg.Reminders.BackoffBase,
		MaxBackoff:    cfg.Reminders.MaxBackoff,
		Concurrency:   cfg.Reminders.Concurrency,
		SnoozeMinutes: cfg.Reminders.SnoozeMinutes,
		WebURL:        cfg.App.WebURL,
	}, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		loc:        loc,
		db:         db,
		gateway:    gateway,
		links:      links,
		job:        service.NewReminderJob(scanner, dispatcher, reminderRepo, clock, logger),
		broadcasts: service.NewBroadcastService(linkRepo, digest, checkins, reports, gateway, logger),
		bot:        bot.New(gateway, links, tasks, checkins, digest, reports, logger),
	}, nil
}

func (a *app) Close() {
	closeDB(a.db)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
