package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/milechy/ultra-autotrade-project/internal/notify"
)

// BuildNotificationMessage renders a summary into a notification. Severity
// is driven purely by the counters on the summary, in precedence order
// emergency > alert/critical > warning > info.
func BuildNotificationMessage(summary Summary, channel notify.Channel) notify.Message {
	var severity notify.Severity
	var statusLabel string
	switch {
	case summary.EmergencyOccurred || summary.EmergencyCount > 0:
		severity, statusLabel = notify.SeverityEmergency, "EMERGENCY"
	case summary.AlertCount > 0 || summary.CriticalCount > 0:
		severity, statusLabel = notify.SeverityAlert, "ALERT"
	case summary.WarningCount > 0:
		severity, statusLabel = notify.SeverityWarning, "WARNING"
	default:
		severity, statusLabel = notify.SeverityInfo, "OK"
	}

	title := fmt.Sprintf("[AUTO-REPORT] %s summary (%s)", strings.ToUpper(string(summary.Period)), statusLabel)

	lines := []string{
		fmt.Sprintf("Period: %s (%s - %s)",
			summary.Period,
			summary.FromTimestamp.Format(time.RFC3339),
			summary.ToTimestamp.Format(time.RFC3339),
		),
		fmt.Sprintf("Events: total=%d, info=%d, warning=%d, alert=%d, critical=%d, emergency=%d",
			summary.TotalEvents,
			summary.InfoCount,
			summary.WarningCount,
			summary.AlertCount,
			summary.CriticalCount,
			summary.EmergencyCount,
		),
	}

	if summary.MinHealthFactor != nil || summary.LastHealthFactor != nil {
		lines = append(lines, fmt.Sprintf("Health factor: min=%s, max=%s, last=%s",
			decimalOrNone(summary.MinHealthFactor),
			decimalOrNone(summary.MaxHealthFactor),
			decimalOrNone(summary.LastHealthFactor),
		))
	}

	if summary.Notes != "" {
		lines = append(lines, "Notes: "+summary.Notes)
	}

	return notify.Message{
		Channel:   channel,
		Severity:  severity,
		Title:     title,
		Body:      strings.Join(lines, "\n"),
		CreatedAt: time.Now().UTC(),
	}
}

func decimalOrNone(v *decimal.Decimal) string {
	if v == nil {
		return "none"
	}
	return v.String()
}
