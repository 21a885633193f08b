package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"life-planner/internal/config"
	"life-planner/internal/httpapi"
	"life-planner/internal/service"
)

const (
	pollTimeoutSeconds = 60
	shutdownTimeout    = 15 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			scheduler, err := a.schedule(ctx)
			if err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			api := httpapi.New(a.bot, a.links, a.job, a.broadcasts, httpapi.Options{
				WebhookSecret: a.cfg.Telegram.WebhookSecret,
				APIToken:      a.cfg.HTTP.APIToken,
			}, a.logger)
			srv := &http.Server{
				Addr:              a.cfg.HTTP.Addr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			switch a.cfg.Telegram.Mode {
			case config.ModePolling:
				if err := a.gateway.DeleteWebhook(); err != nil {
					return err
				}
				go a.bot.Poll(ctx, a.gateway.Updates(pollTimeoutSeconds), a.gateway.StopUpdates)
			case config.ModeWebhook:
				if a.cfg.Telegram.WebhookURL != "" {
					if err := a.gateway.SetWebhook(a.cfg.Telegram.WebhookURL, a.cfg.Telegram.WebhookSecret); err != nil {
						return err
					}
					a.logger.Info("webhook_registered", "url", a.cfg.Telegram.WebhookURL)
				}
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server_start", "addr", srv.Addr, "mode", a.cfg.Telegram.Mode, "bot", a.gateway.Username())
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
			}

			a.logger.Info("server_stopping")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("server_shutdown_failed", "error", err)
			}
			api.Wait()
			a.logger.Info("shutdown_complete")
			return nil
		},
	}
}

// schedule registers the reminder tick and the three broadcasts.
func (a *app) schedule(ctx context.Context) (*service.SchedulerService, error) {
	scheduler := service.NewSchedulerService(a.loc)

	interval := a.cfg.Reminders.ScanInterval
	if _, err := scheduler.ScheduleInterval(interval, func() {
		// A tick may outlive the interval while retries back off; cron skips
		// the next run until it returns.
		jobCtx, cancel := context.WithTimeout(ctx, interval+a.cfg.Reminders.MaxBackoff*time.Duration(a.cfg.Reminders.MaxAttempts))
		defer cancel()
		if _, err := a.job.Tick(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("reminder_tick_failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}

	jobs := []struct {
		kind string
		spec string
	}{
		{service.BroadcastMorning, a.cfg.Schedule.Morning},
		{service.BroadcastNight, a.cfg.Schedule.Night},
		{service.BroadcastWeekly, a.cfg.Schedule.Weekly},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		kind := j.kind
		id, err := scheduler.ScheduleSpec(j.spec, func() {
			report, err := a.broadcasts.Run(ctx, kind)
			if err != nil {
				a.logger.Error("broadcast_failed", "kind", kind, "error", err)
				return
			}
			a.logger.Info("broadcast_done", "kind", kind, "users", report.Users, "sent", report.Sent, "failed", report.Failed)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", kind, err)
		}
		a.logger.Debug("broadcast_scheduled", "kind", kind, "spec", j.spec, "entry", int(id))
	}
	return scheduler, nil
}
