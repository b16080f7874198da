package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
)

func eventAt(level monitoring.AlertLevel, code string, at time.Time) monitoring.MonitoringEvent {
	return monitoring.MonitoringEvent{
		Timestamp: at,
		Component: monitoring.ComponentSystem,
		Level:     level,
		Code:      code,
		Message:   "test event",
	}
}

func TestEmergencyReportNotableEventOrdering(t *testing.T) {
	base := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	events := []monitoring.MonitoringEvent{
		eventAt(monitoring.LevelWarning, "LATENCY_WARNING", base.Add(3*time.Minute)),
		eventAt(monitoring.LevelEmergency, "EMERGENCY_STOP", base),
		eventAt(monitoring.LevelAlert, "PRICE_CHANGE_ALERT", base.Add(time.Minute)),
		eventAt(monitoring.LevelEmergency, "HF_BELOW_EMERGENCY", base.Add(2*time.Minute)),
	}

	notable := selectNotableEvents(events, 3)
	if len(notable) != 3 {
		t.Fatalf("expected top 3, got %d", len(notable))
	}
	// Severity first, then recency within equal severity.
	if notable[0].Code != "HF_BELOW_EMERGENCY" || notable[1].Code != "EMERGENCY_STOP" || notable[2].Code != "PRICE_CHANGE_ALERT" {
		t.Fatalf("unexpected ordering: %s, %s, %s", notable[0].Code, notable[1].Code, notable[2].Code)
	}
}

func TestEmergencyReportBuild(t *testing.T) {
	summary := baseSummary()
	summary.TotalEvents = 2
	summary.EmergencyCount = 1
	summary.AlertCount = 1
	summary.EmergencyOccurred = true
	summary.MinHealthFactor = decimalPtr("1.5")
	summary.MaxHealthFactor = decimalPtr("2.0")
	summary.LastHealthFactor = decimalPtr("1.5")
	summary.Notes = "Emergency events occurred during this period."

	base := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	events := []monitoring.MonitoringEvent{
		eventAt(monitoring.LevelAlert, "PRICE_CHANGE_ALERT", base),
		eventAt(monitoring.LevelEmergency, "HF_BELOW_EMERGENCY", base.Add(time.Minute)),
	}

	report := EmergencyReportBuilder{}.Build(summary, events)
	if !strings.HasPrefix(report.Title, "[EMERGENCY] Automation emergency report") {
		t.Fatalf("unexpected title: %q", report.Title)
	}

	for _, want := range []string{
		"Severity: EMERGENCY",
		"Event counts: total=2, info=0, warning=0, alert=1, critical=0, emergency=1",
		"Health factor: min=1.5, max=2.0, last=1.5",
		"Recent notable events:",
		"- [emergency] " + base.Add(time.Minute).Format(time.RFC3339) + " system: HF_BELOW_EMERGENCY - test event",
		"Notes:",
	} {
		if !strings.Contains(report.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, report.Body)
		}
	}
}

func TestEmergencyReportNoEvents(t *testing.T) {
	report := EmergencyReportBuilder{}.Build(baseSummary(), nil)
	if !strings.Contains(report.Body, "Recent notable events: (none)") {
		t.Fatalf("empty event list must render the (none) marker:\n%s", report.Body)
	}
	if !strings.HasPrefix(report.Title, "[INFO]") {
		t.Fatalf("quiet summary must label INFO, got %q", report.Title)
	}
}

func TestEmergencyReportMaxEventsCap(t *testing.T) {
	base := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	events := make([]monitoring.MonitoringEvent, 0, 25)
	for i := 0; i < 25; i++ {
		events = append(events, eventAt(monitoring.LevelWarning, "LATENCY_WARNING", base.Add(time.Duration(i)*time.Minute)))
	}

	report := EmergencyReportBuilder{}.Build(baseSummary(), events)
	lines := strings.Count(report.Body, "- [warning]")
	if lines != DefaultNotableEvents {
		t.Fatalf("expected %d listed events, got %d", DefaultNotableEvents, lines)
	}
}
