package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
)

func newTestMonitor() *monitoring.Service {
	return monitoring.NewService(monitoring.Options{}, zerolog.Nop())
}

func decimalPtr(raw string) *decimal.Decimal {
	v := decimal.RequireFromString(raw)
	return &v
}

func TestPeriodRangeDaily(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	from, to := PeriodRange(PeriodDaily, now)

	if !from.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("daily window must start at midnight UTC, got %v", from)
	}
	if !to.Equal(now) {
		t.Fatalf("daily window must end at now, got %v", to)
	}
}

func TestPeriodRangeWeekly(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	from, to := PeriodRange(PeriodWeekly, now)

	if !from.Equal(now.AddDate(0, 0, -7)) {
		t.Fatalf("weekly window must start 7 days back, got %v", from)
	}
	if !to.Equal(now) {
		t.Fatalf("weekly window must end at now, got %v", to)
	}
}

func TestGenerateSummaryReportDailyWindow(t *testing.T) {
	monitor := newTestMonitor()
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	// In window.
	monitor.RecordLatency(monitoring.ComponentNewsFeed, 11*time.Second, now.Add(-time.Hour))
	monitor.RecordLatency(monitoring.ComponentNewsFeed, 31*time.Second, now.Add(-30*time.Minute))
	// Yesterday; must not count.
	monitor.RecordLatency(monitoring.ComponentNewsFeed, 31*time.Second, now.Add(-24*time.Hour))

	svc := NewService(monitor, zerolog.Nop())
	summary := svc.GenerateSummaryReport(PeriodDaily, now)

	if summary.TotalEvents != 2 || summary.WarningCount != 1 || summary.AlertCount != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.EmergencyOccurred {
		t.Fatal("no emergency events were recorded")
	}
	if summary.Notes != "" {
		t.Fatalf("no notes expected for a quiet non-empty period, got %q", summary.Notes)
	}
}

func TestGenerateSummaryReportWeeklyWindow(t *testing.T) {
	monitor := newTestMonitor()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	monitor.RecordLatency(monitoring.ComponentNewsFeed, 31*time.Second, now.AddDate(0, 0, -6))
	monitor.RecordLatency(monitoring.ComponentNewsFeed, 31*time.Second, now.AddDate(0, 0, -8))

	svc := NewService(monitor, zerolog.Nop())
	summary := svc.GenerateSummaryReport(PeriodWeekly, now)

	if summary.TotalEvents != 1 {
		t.Fatalf("only the 6-day-old event falls inside the week, got %d", summary.TotalEvents)
	}
}

func TestGenerateSummaryReportHealthFactorAggregate(t *testing.T) {
	monitor := newTestMonitor()
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	// All above the warning threshold: no events, history only.
	monitor.RecordHealthFactor(decimalPtr("2.1"), now.Add(-3*time.Hour))
	monitor.RecordHealthFactor(decimalPtr("2.5"), now.Add(-2*time.Hour))
	monitor.RecordHealthFactor(nil, now.Add(-90*time.Minute))
	monitor.RecordHealthFactor(decimalPtr("2.3"), now.Add(-time.Hour))

	svc := NewService(monitor, zerolog.Nop())
	summary := svc.GenerateSummaryReport(PeriodDaily, now)

	if summary.MinHealthFactor == nil || !summary.MinHealthFactor.Equal(decimal.RequireFromString("2.1")) {
		t.Fatalf("unexpected min HF: %+v", summary.MinHealthFactor)
	}
	if summary.MaxHealthFactor == nil || !summary.MaxHealthFactor.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected max HF: %+v", summary.MaxHealthFactor)
	}
	if summary.LastHealthFactor == nil || !summary.LastHealthFactor.Equal(decimal.RequireFromString("2.3")) {
		t.Fatalf("unexpected last HF: %+v", summary.LastHealthFactor)
	}

	agg, ok := summary.MetricAggregates[monitoring.MetricHealthFactor]
	if !ok || agg.Count != 3 {
		t.Fatalf("HF aggregate must cover the 3 non-nil samples, got %+v", agg)
	}
}

func TestGenerateSummaryReportNotes(t *testing.T) {
	monitor := newTestMonitor()
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	svc := NewService(monitor, zerolog.Nop())
	summary := svc.GenerateSummaryReport(PeriodDaily, now)
	if !strings.Contains(summary.Notes, "No monitoring events") {
		t.Fatalf("empty period must be noted, got %q", summary.Notes)
	}

	monitor.RecordHealthFactor(decimalPtr("1.5"), now.Add(-time.Hour))
	summary = svc.GenerateSummaryReport(PeriodDaily, now)
	if !summary.EmergencyOccurred {
		t.Fatal("emergency flag must be set")
	}
	if !strings.Contains(summary.Notes, "Emergency events occurred") {
		t.Fatalf("emergency must be noted, got %q", summary.Notes)
	}
}
