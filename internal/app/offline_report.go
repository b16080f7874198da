package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
	"github.com/milechy/ultra-autotrade-project/internal/reporting"
	"github.com/milechy/ultra-autotrade-project/internal/storage"
)

// ReportOptions configure the one-off report command.
type ReportOptions struct {
	Period reporting.Period
	Send   bool
}

// Report rebuilds a summary for the requested period from archived events and
// prints it. With Send set, the summary also goes out via the configured
// alert channels.
func (a *App) Report(ctx context.Context, opts ReportOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot build offline report")
	}
	if closeStore != nil {
		defer closeStore()
	}

	now := time.Now().UTC()
	from, to := reporting.PeriodRange(opts.Period, now)

	archived, err := store.ListEventsBetween(ctx, from, to)
	if err != nil {
		return err
	}

	events := make([]monitoring.MonitoringEvent, 0, len(archived))
	for _, row := range archived {
		events = append(events, storage.FromArchivedEvent(row))
	}

	summary := reporting.SummarizeEvents(opts.Period, from, to, events)
	// The archive keeps only threshold events, so the health-factor bounds
	// here describe breaches rather than the full sample history.
	if agg, ok := summary.MetricAggregates[monitoring.MetricHealthFactor]; ok {
		summary.MinHealthFactor = agg.Min
		summary.MaxHealthFactor = agg.Max
		summary.LastHealthFactor = agg.Last
	}

	message := reporting.BuildNotificationMessage(summary, a.primaryChannel())
	fmt.Fprintln(os.Stdout, message.Title)
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, message.Body)

	if opts.Send {
		notifier := a.newNotifier()
		if notifier == nil {
			return errors.New("no alert channels configured; cannot send report")
		}
		if err := notifier.Notify(ctx, message); err != nil {
			return fmt.Errorf("send report notification: %w", err)
		}
	}

	return nil
}
