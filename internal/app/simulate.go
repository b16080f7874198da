package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
	"github.com/milechy/ultra-autotrade-project/internal/reporting"
)

// Simulate feeds synthetic samples through a throwaway monitoring service and
// prints the emergency report that would go out. Nothing touches the live
// state or the archive; the only external effect is an optional notification.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	monitor := monitoring.NewService(a.monitoringOptions(nil), a.Logger)
	reporter := reporting.NewService(monitor, a.Logger)

	now := time.Now().UTC()

	if opts.LatencySec > 0 {
		duration := time.Duration(opts.LatencySec * float64(time.Second))
		monitor.RecordLatency(monitoring.ComponentSignalRelay, duration, now.Add(-3*time.Minute))
	}
	if opts.HealthFactor > 0 {
		hf := decimal.NewFromFloat(opts.HealthFactor)
		monitor.RecordHealthFactor(&hf, now.Add(-2*time.Minute))
	}
	if opts.PriceChange != 0 {
		monitor.RecordPriceChange24h(decimal.NewFromFloat(opts.PriceChange), now.Add(-time.Minute))
	}
	if opts.WithEmergency && monitor.IsTradingAllowed() {
		monitor.ActivateEmergencyStop("simulated emergency drill", monitoring.ComponentSystem, now)
	}

	summary := reporter.GenerateSummaryReport(reporting.PeriodDaily, now)
	events := monitor.GetEventsInRange(summary.FromTimestamp, summary.ToTimestamp)

	builder := reporting.EmergencyReportBuilder{MaxEvents: a.Config.Reporting.NotableEvents}
	report := builder.Build(summary, events)

	fmt.Fprintln(os.Stdout, report.Title)
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, report.Body)

	if notifier := a.newNotifier(); notifier != nil {
		message := reporting.BuildNotificationMessage(summary, a.primaryChannel())
		if err := notifier.Notify(ctx, message); err != nil {
			return fmt.Errorf("send simulated notification: %w", err)
		}
	}

	return nil
}
