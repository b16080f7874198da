package reporting

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
)

// Period selects the report window.
type Period string

const (
	// PeriodDaily covers the start of now's calendar day (UTC) through now.
	PeriodDaily Period = "daily"
	// PeriodWeekly covers the trailing 7 days through now.
	PeriodWeekly Period = "weekly"
)

// Summary aggregates monitoring history over one report period. It is an
// immutable value object produced once per report generation.
type Summary struct {
	Period        Period    `json:"period"`
	FromTimestamp time.Time `json:"from_timestamp"`
	ToTimestamp   time.Time `json:"to_timestamp"`

	TotalEvents    int `json:"total_events"`
	InfoCount      int `json:"info_count"`
	WarningCount   int `json:"warning_count"`
	AlertCount     int `json:"alert_count"`
	CriticalCount  int `json:"critical_count"`
	EmergencyCount int `json:"emergency_count"`

	EmergencyOccurred bool `json:"emergency_occurred"`

	MinHealthFactor  *decimal.Decimal `json:"min_health_factor"`
	MaxHealthFactor  *decimal.Decimal `json:"max_health_factor"`
	LastHealthFactor *decimal.Decimal `json:"last_health_factor"`

	MetricAggregates map[string]monitoring.MetricAggregate `json:"metric_aggregates"`

	Notes string `json:"notes,omitempty"`
}

// Service turns monitoring history into periodic summaries. It holds no
// state of its own beyond the monitoring reference; it only ever reads.
type Service struct {
	monitor *monitoring.Service
	logger  zerolog.Logger
}

// NewService constructs the reporting service.
func NewService(monitor *monitoring.Service, logger zerolog.Logger) *Service {
	return &Service{
		monitor: monitor,
		logger:  logger.With().Str("component", "reporting").Logger(),
	}
}

// PeriodRange resolves the inclusive window a period covers, ending at now.
func PeriodRange(period Period, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch period {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), now
	default:
		// DAILY, and the fallback for unknown periods.
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return start, now
	}
}

// SummarizeEvents builds a summary from an explicit event slice. Used by the
// live path below and by offline consumers replaying archived events.
func SummarizeEvents(period Period, from, to time.Time, events []monitoring.MonitoringEvent) Summary {
	summary := Summary{
		Period:        period,
		FromTimestamp: from,
		ToTimestamp:   to,
		TotalEvents:   len(events),
	}
	for _, event := range events {
		switch event.Level {
		case monitoring.LevelWarning:
			summary.WarningCount++
		case monitoring.LevelAlert:
			summary.AlertCount++
		case monitoring.LevelCritical:
			summary.CriticalCount++
		case monitoring.LevelEmergency:
			summary.EmergencyCount++
		default:
			summary.InfoCount++
		}
	}
	summary.EmergencyOccurred = summary.EmergencyCount > 0
	summary.MetricAggregates = monitoring.AggregateEventMetrics(events)

	if summary.EmergencyOccurred {
		summary.Notes = "Emergency events occurred during this period."
	} else if summary.TotalEvents == 0 {
		summary.Notes = "No monitoring events recorded during this period."
	}
	return summary
}

// GenerateSummaryReport aggregates events and health-factor history for the
// requested period. A zero now means the current time.
func (s *Service) GenerateSummaryReport(period Period, now time.Time) Summary {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	now = now.UTC()
	from, to := PeriodRange(period, now)

	events := s.monitor.GetEventsInRange(from, to)
	summary := SummarizeEvents(period, from, to, events)

	// Health-factor aggregation comes straight from the sample history, so
	// it is present even when no HF threshold event fired in the window.
	history := s.monitor.GetHealthFactorHistory(from, to)
	values := make([]decimal.Decimal, 0, len(history))
	for _, sample := range history {
		if sample.Value != nil {
			values = append(values, *sample.Value)
		}
	}
	if len(values) > 0 {
		agg := monitoring.AggregateDecimals(monitoring.MetricHealthFactor, "ratio", values)
		summary.MetricAggregates[monitoring.MetricHealthFactor] = agg
		summary.MinHealthFactor = agg.Min
		summary.MaxHealthFactor = agg.Max
		summary.LastHealthFactor = agg.Last
	}

	s.logger.Debug().
		Str("period", string(period)).
		Int("total_events", summary.TotalEvents).
		Bool("emergency", summary.EmergencyOccurred).
		Msg("summary report generated")

	return summary
}
