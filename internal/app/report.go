package app

import (
	"context"
	"time"

	"github.com/milechy/ultra-autotrade-project/internal/backup"
	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
	"github.com/milechy/ultra-autotrade-project/internal/notify"
	"github.com/milechy/ultra-autotrade-project/internal/reporting"
	"github.com/milechy/ultra-autotrade-project/internal/scheduler"
	"github.com/milechy/ultra-autotrade-project/internal/storage"
)

// primaryChannel picks the channel stamped on outgoing report messages.
func (a *App) primaryChannel() notify.Channel {
	for _, channel := range a.Config.Alerting.Channels {
		return notify.Channel(channel)
	}
	return notify.ChannelInternalLog
}

// newReportJob builds the scheduled job that generates summaries, dispatches
// notifications, runs the configured backups, and prunes the event archive
// past its retention window.
func (a *App) newReportJob(monitor *monitoring.Service, reporter *reporting.Service, notifier notify.Notifier, store *storage.Store, backups *backup.Service) scheduler.JobFunc {
	channel := a.primaryChannel()

	return func(ctx context.Context, runAt time.Time) error {
		periods := make([]reporting.Period, 0, 2)
		if a.Config.Reporting.DailyEnabled {
			periods = append(periods, reporting.PeriodDaily)
		}
		if a.Config.Reporting.WeeklyEnabled && isWeeklyRun(runAt) {
			periods = append(periods, reporting.PeriodWeekly)
		}

		for _, period := range periods {
			summary := reporter.GenerateSummaryReport(period, runAt)

			if notifier == nil {
				continue
			}
			message := reporting.BuildNotificationMessage(summary, channel)
			if err := notifier.Notify(ctx, message); err != nil {
				a.Logger.Error().Err(err).Str("period", string(period)).Msg("report notification failed")
			}
		}

		if backups != nil && backups.HasHandlers() {
			result := backups.Run(ctx)
			monitor.RecordLatency(monitoring.ComponentBackup, result.FinishedAt.Sub(result.StartedAt), result.FinishedAt)
			event := a.Logger.Info()
			if result.Status != backup.StatusSuccess {
				event = a.Logger.Warn()
			}
			event.Str("status", string(result.Status)).Str("message", result.Message).Msg("backup run completed")
		}

		if store != nil && a.Config.Database.Retention > 0 {
			cutoff := runAt.Add(-a.Config.Database.Retention)
			if err := store.DeleteEventsBefore(ctx, cutoff); err != nil {
				a.Logger.Error().Err(err).Time("cutoff", cutoff).Msg("archive retention cleanup failed")
			}
		}

		return nil
	}
}

// isWeeklyRun gates the weekly summary to Monday runs so a daily-interval
// scheduler does not emit it seven times per week.
func isWeeklyRun(runAt time.Time) bool {
	return runAt.UTC().Weekday() == time.Monday
}
