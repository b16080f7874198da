package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
)

// DefaultNotableEvents caps how many events an emergency report lists.
const DefaultNotableEvents = 20

// EmergencyReport is the incident-communication document: a title plus a
// multi-line plain-text body reusable as chat message or saved report text.
type EmergencyReport struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// EmergencyReportBuilder renders a summary plus a raw event list (not
// necessarily from the same window) into an EmergencyReport.
type EmergencyReportBuilder struct {
	MaxEvents int
}

func (b EmergencyReportBuilder) maxEvents() int {
	if b.MaxEvents > 0 {
		return b.MaxEvents
	}
	return DefaultNotableEvents
}

// severityLabel follows the same precedence as report notifications but is
// computed independently from the summary's counters.
func severityLabel(summary Summary) string {
	if summary.EmergencyOccurred || summary.EmergencyCount > 0 {
		return "EMERGENCY"
	}
	if summary.AlertCount > 0 || summary.CriticalCount > 0 {
		return "ALERT"
	}
	if summary.WarningCount > 0 {
		return "WARNING"
	}
	return "INFO"
}

func formatPeriod(summary Summary) string {
	return fmt.Sprintf("%s %s - %s",
		summary.Period,
		summary.FromTimestamp.Format(time.RFC3339),
		summary.ToTimestamp.Format(time.RFC3339),
	)
}

// selectNotableEvents orders by severity rank descending, then timestamp
// descending, and keeps the top max entries.
func selectNotableEvents(events []monitoring.MonitoringEvent, max int) []monitoring.MonitoringEvent {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]monitoring.MonitoringEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Level.Rank(), sorted[j].Level.Rank()
		if ri != rj {
			return ri > rj
		}
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	if len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}

// Build assembles the emergency report.
func (b EmergencyReportBuilder) Build(summary Summary, events []monitoring.MonitoringEvent) EmergencyReport {
	label := severityLabel(summary)
	period := formatPeriod(summary)

	title := fmt.Sprintf("[%s] Automation emergency report (%s)", label, period)

	lines := []string{
		"Severity: " + label,
		"Period: " + period,
		fmt.Sprintf("Event counts: total=%d, info=%d, warning=%d, alert=%d, critical=%d, emergency=%d",
			summary.TotalEvents,
			summary.InfoCount,
			summary.WarningCount,
			summary.AlertCount,
			summary.CriticalCount,
			summary.EmergencyCount,
		),
	}

	if summary.MinHealthFactor != nil || summary.MaxHealthFactor != nil || summary.LastHealthFactor != nil {
		lines = append(lines, fmt.Sprintf("Health factor: min=%s, max=%s, last=%s",
			decimalOrNone(summary.MinHealthFactor),
			decimalOrNone(summary.MaxHealthFactor),
			decimalOrNone(summary.LastHealthFactor),
		))
	}

	notable := selectNotableEvents(events, b.maxEvents())
	if len(notable) > 0 {
		lines = append(lines, "", "Recent notable events:")
		for _, event := range notable {
			lines = append(lines, fmt.Sprintf("- [%s] %s %s: %s - %s",
				event.Level,
				event.Timestamp.Format(time.RFC3339),
				event.Component,
				event.Code,
				event.Message,
			))
		}
	} else {
		lines = append(lines, "", "Recent notable events: (none)")
	}

	if summary.Notes != "" {
		lines = append(lines, "", "Notes:", summary.Notes)
	}

	return EmergencyReport{Title: title, Body: strings.Join(lines, "\n")}
}
