package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Event codes emitted by the Service. Consumers (archive, reports) key on
// these rather than on message text.
const (
	CodeLatencyWarning   = "LATENCY_WARNING"
	CodeLatencyAlert     = "LATENCY_ALERT"
	CodeHFBelowWarning   = "HF_BELOW_WARNING"
	CodeHFBelowEmergency = "HF_BELOW_EMERGENCY"
	CodePriceChangeAlert = "PRICE_CHANGE_ALERT"
	CodeEmergencyStop    = "EMERGENCY_STOP"
)

// MetricHealthFactor is the metric id shared by health-factor events and the
// report-side synthesized aggregate.
const MetricHealthFactor = "aave_health_factor_current"

var maxTimestamp = time.Unix(1<<62-1, 0).UTC()

// Options parameterise a Service. Zero values fall back to conservative
// defaults.
type Options struct {
	LatencyWarningThreshold time.Duration
	LatencyAlertThreshold   time.Duration
	HFWarningThreshold      decimal.Decimal
	HFEmergencyThreshold    decimal.Decimal
	PriceChangeAlertPct     decimal.Decimal
	MaxEvents               int
	MaxLatencyRecords       int
	MaxTradeRecords         int
	MaxHealthFactorRecords  int

	// EventHook, when set, receives every emitted event after the owning
	// critical section is released. It must not block.
	EventHook func(MonitoringEvent)
}

func (o *Options) applyDefaults() {
	if o.LatencyWarningThreshold <= 0 {
		o.LatencyWarningThreshold = 10 * time.Second
	}
	if o.LatencyAlertThreshold <= 0 {
		o.LatencyAlertThreshold = 30 * time.Second
	}
	if o.HFWarningThreshold.IsZero() {
		o.HFWarningThreshold = decimal.RequireFromString("1.8")
	}
	if o.HFEmergencyThreshold.IsZero() {
		o.HFEmergencyThreshold = decimal.RequireFromString("1.6")
	}
	if o.PriceChangeAlertPct.IsZero() {
		o.PriceChangeAlertPct = decimal.NewFromInt(20)
	}
	if o.MaxEvents <= 0 {
		o.MaxEvents = 1000
	}
	if o.MaxLatencyRecords <= 0 {
		o.MaxLatencyRecords = 1000
	}
	if o.MaxTradeRecords <= 0 {
		o.MaxTradeRecords = 1000
	}
	if o.MaxHealthFactorRecords <= 0 {
		o.MaxHealthFactorRecords = 1000
	}
}

// Service is the single source of truth for "is it currently safe to trade"
// and for all raw measurement history. One instance is constructed at startup
// and handed to every collaborator; all mutable state lives behind one mutex
// so that append + threshold check + flag set is a single atomic step.
//
// Record and query methods never return errors: a value that cannot be
// classified is treated as INFO/non-emergency so a safety check can never be
// blocked by a failure inside the monitor itself.
type Service struct {
	opts   Options
	logger zerolog.Logger

	mu            sync.Mutex
	events        []MonitoringEvent
	latencies     []LatencyRecord
	trades        []TradeActivityRecord
	healthFactors []HealthFactorSample

	tradingPaused   bool
	emergencyReason string
	lastHF          *decimal.Decimal
	lastPriceChange *decimal.Decimal
	lastEventLevel  AlertLevel
}

// NewService constructs the monitoring service.
func NewService(opts Options, logger zerolog.Logger) *Service {
	opts.applyDefaults()
	return &Service{
		opts:           opts,
		logger:         logger.With().Str("component", "monitoring").Logger(),
		lastEventLevel: LevelInfo,
	}
}

// normalizeTime coerces the caller-supplied timestamp to UTC, substituting
// the current time when unset.
func normalizeTime(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}

// appendEvent stores the event and advances the last-event-level pointer.
// The stored level only moves up (or refreshes at equal severity); a later
// lower-severity event never erases a previously seen higher one.
// Callers must hold s.mu.
func (s *Service) appendEvent(event MonitoringEvent) MonitoringEvent {
	s.events = append(s.events, event)
	if n := len(s.events) - s.opts.MaxEvents; n > 0 {
		s.events = s.events[n:]
	}
	if event.Level.Rank() >= s.lastEventLevel.Rank() {
		s.lastEventLevel = event.Level
	}
	return event
}

func (s *Service) notify(event MonitoringEvent) {
	if s.opts.EventHook != nil {
		s.opts.EventHook(event)
	}
}

// RecordLatency stores a response-time sample and emits a WARNING or ALERT
// event when the duration exceeds the configured thresholds (strictly
// greater than, not greater-or-equal).
func (s *Service) RecordLatency(component ComponentType, duration time.Duration, at time.Time) *MonitoringEvent {
	now := normalizeTime(at)
	seconds := duration.Seconds()

	s.mu.Lock()
	s.latencies = append(s.latencies, LatencyRecord{
		Component:  component,
		Timestamp:  now,
		DurationMS: duration.Milliseconds(),
	})
	if n := len(s.latencies) - s.opts.MaxLatencyRecords; n > 0 {
		s.latencies = s.latencies[n:]
	}

	var level AlertLevel
	var code string
	switch {
	case duration > s.opts.LatencyAlertThreshold:
		level, code = LevelAlert, CodeLatencyAlert
	case duration > s.opts.LatencyWarningThreshold:
		level, code = LevelWarning, CodeLatencyWarning
	default:
		s.mu.Unlock()
		return nil
	}

	event := s.appendEvent(MonitoringEvent{
		Timestamp: now,
		Component: component,
		Level:     level,
		Code:      code,
		Message:   fmt.Sprintf("latency %.1fs exceeds %s threshold", seconds, level),
		Metric: &MetricPoint{
			MetricID:   fmt.Sprintf("latency_%s_s", component),
			Value:      decimal.NewFromFloat(seconds),
			Unit:       "s",
			Labels:     map[string]string{"component": string(component)},
			RecordedAt: now,
		},
	})
	s.mu.Unlock()

	s.logger.Warn().Str("code", code).Str("target", string(component)).Float64("seconds", seconds).Msg("latency threshold exceeded")
	s.notify(event)
	return &event
}

// RecordTrade appends to the trade-activity log. It never raises an event;
// rate limiting stays with the calling executor.
func (s *Service) RecordTrade(component ComponentType, action TradeAction, at time.Time) {
	now := normalizeTime(at)

	s.mu.Lock()
	s.trades = append(s.trades, TradeActivityRecord{
		Component: component,
		Action:    action,
		Timestamp: now,
	})
	if n := len(s.trades) - s.opts.MaxTradeRecords; n > 0 {
		s.trades = s.trades[n:]
	}
	s.mu.Unlock()
}

// RecordHealthFactor stores a health-factor observation and runs the
// warning/emergency judgement. A nil value records an unobservable fetch and
// classifies as INFO. Crossing the emergency threshold pauses trading; the
// pause is sticky and only ClearEmergencyStop releases it.
func (s *Service) RecordHealthFactor(value *decimal.Decimal, at time.Time) HealthFactorStatus {
	now := normalizeTime(at)

	s.mu.Lock()
	s.lastHF = value
	s.healthFactors = append(s.healthFactors, HealthFactorSample{Timestamp: now, Value: value})
	if n := len(s.healthFactors) - s.opts.MaxHealthFactorRecords; n > 0 {
		s.healthFactors = s.healthFactors[n:]
	}

	if value == nil {
		s.mu.Unlock()
		return HealthFactorStatus{Current: nil, Level: LevelInfo, IsEmergency: false}
	}

	level := LevelInfo
	isEmergency := false
	var emitted *MonitoringEvent

	switch {
	case value.LessThan(s.opts.HFEmergencyThreshold):
		level = LevelEmergency
		isEmergency = true
		s.tradingPaused = true
		if s.emergencyReason == "" {
			s.emergencyReason = fmt.Sprintf(
				"health factor %s below emergency threshold %s",
				value, s.opts.HFEmergencyThreshold,
			)
		}
		event := s.appendEvent(MonitoringEvent{
			Timestamp: now,
			Component: ComponentLending,
			Level:     level,
			Code:      CodeHFBelowEmergency,
			Message:   s.emergencyReason,
			Metric:    healthFactorMetric(*value, now),
		})
		emitted = &event
	case value.LessThan(s.opts.HFWarningThreshold):
		level = LevelWarning
		event := s.appendEvent(MonitoringEvent{
			Timestamp: now,
			Component: ComponentLending,
			Level:     level,
			Code:      CodeHFBelowWarning,
			Message: fmt.Sprintf(
				"health factor %s below warning threshold %s",
				value, s.opts.HFWarningThreshold,
			),
			Metric: healthFactorMetric(*value, now),
		})
		emitted = &event
	}
	s.mu.Unlock()

	if emitted != nil {
		s.logger.Warn().Str("code", emitted.Code).Str("health_factor", value.String()).Msg("health factor below threshold")
		s.notify(*emitted)
	}
	return HealthFactorStatus{Current: value, Level: level, IsEmergency: isEmergency}
}

func healthFactorMetric(value decimal.Decimal, at time.Time) *MetricPoint {
	return &MetricPoint{
		MetricID:   MetricHealthFactor,
		Value:      value,
		Unit:       "ratio",
		Labels:     map[string]string{"component": string(ComponentLending)},
		RecordedAt: at,
	}
}

// RecordPriceChange24h stores the latest 24h portfolio change percentage and
// emits an ALERT when its absolute value exceeds the configured threshold.
func (s *Service) RecordPriceChange24h(percentChange decimal.Decimal, at time.Time) *MonitoringEvent {
	now := normalizeTime(at)

	s.mu.Lock()
	pct := percentChange
	s.lastPriceChange = &pct

	if percentChange.Abs().LessThanOrEqual(s.opts.PriceChangeAlertPct) {
		s.mu.Unlock()
		return nil
	}

	event := s.appendEvent(MonitoringEvent{
		Timestamp: now,
		Component: ComponentSystem,
		Level:     LevelAlert,
		Code:      CodePriceChangeAlert,
		Message: fmt.Sprintf(
			"24h price change %s%% exceeds alert threshold %s%%",
			percentChange, s.opts.PriceChangeAlertPct,
		),
		Metric: &MetricPoint{
			MetricID:   "portfolio_value_change_1d_pct",
			Value:      percentChange,
			Unit:       "percent",
			Labels:     map[string]string{"window": "24h"},
			RecordedAt: now,
		},
	})
	s.mu.Unlock()

	s.logger.Warn().Str("change_pct", percentChange.String()).Msg("24h price change exceeds threshold")
	s.notify(event)
	return &event
}

// IsTradingAllowed is the mandatory gate every money-moving collaborator
// must consult before a deposit/withdraw-equivalent action.
func (s *Service) IsTradingAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.tradingPaused
}

// ActivateEmergencyStop pauses trading unconditionally. Manual activation
// always overwrites an existing reason.
func (s *Service) ActivateEmergencyStop(reason string, component ComponentType, at time.Time) MonitoringEvent {
	now := normalizeTime(at)
	if component == "" {
		component = ComponentSystem
	}

	s.mu.Lock()
	s.tradingPaused = true
	s.emergencyReason = reason
	event := s.appendEvent(MonitoringEvent{
		Timestamp: now,
		Component: component,
		Level:     LevelEmergency,
		Code:      CodeEmergencyStop,
		Message:   reason,
	})
	s.mu.Unlock()

	s.logger.Error().Str("reason", reason).Msg("emergency stop activated")
	s.notify(event)
	return event
}

// ClearEmergencyStop releases the pause and forgets the reason. Nothing in
// the service calls this automatically; it is an operator action only.
func (s *Service) ClearEmergencyStop() {
	s.mu.Lock()
	s.tradingPaused = false
	s.emergencyReason = ""
	s.mu.Unlock()

	s.logger.Info().Msg("emergency stop cleared")
}

// GetRecentEvents returns up to limit events, most recent first.
func (s *Service) GetRecentEvents(limit int) []MonitoringEvent {
	if limit <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.events)
	if limit > n {
		limit = n
	}
	out := make([]MonitoringEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.events[i])
	}
	return out
}

// GetEventsInRange returns events with from <= timestamp <= to in
// chronological order. A zero from means the epoch; a zero to means the far
// future.
func (s *Service) GetEventsInRange(from, to time.Time) []MonitoringEvent {
	start, end := normalizeRange(from, to)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]MonitoringEvent, 0)
	for _, event := range s.events {
		if !event.Timestamp.Before(start) && !event.Timestamp.After(end) {
			out = append(out, event)
		}
	}
	return out
}

// GetHealthFactorHistory returns health-factor samples inside the range,
// keeping nil values so gaps stay visible.
func (s *Service) GetHealthFactorHistory(from, to time.Time) []HealthFactorSample {
	start, end := normalizeRange(from, to)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]HealthFactorSample, 0)
	for _, sample := range s.healthFactors {
		if !sample.Timestamp.Before(start) && !sample.Timestamp.After(end) {
			out = append(out, sample)
		}
	}
	return out
}

// GetTradeActivity returns trade records inside the range in chronological
// order, same bound normalization as the other range queries.
func (s *Service) GetTradeActivity(from, to time.Time) []TradeActivityRecord {
	start, end := normalizeRange(from, to)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TradeActivityRecord, 0)
	for _, record := range s.trades {
		if !record.Timestamp.Before(start) && !record.Timestamp.After(end) {
			out = append(out, record)
		}
	}
	return out
}

func normalizeRange(from, to time.Time) (time.Time, time.Time) {
	start := time.Unix(0, 0).UTC()
	if !from.IsZero() {
		start = from.UTC()
	}
	end := maxTimestamp
	if !to.IsZero() {
		end = to.UTC()
	}
	return start, end
}

// GetStatus snapshots the current mutable state.
func (s *Service) GetStatus() AutomationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := make([]MonitoringEvent, len(s.events))
	copy(recent, s.events)

	return AutomationStatus{
		IsTradingPaused:  s.tradingPaused,
		LastHealthFactor: s.lastHF,
		LastPriceChange:  s.lastPriceChange,
		LastEventLevel:   s.lastEventLevel,
		EmergencyReason:  s.emergencyReason,
		RecentEvents:     recent,
	}
}

// BuildDashboardSnapshot aggregates metric points carried by events inside
// [now-lookback, now] and attaches the current status.
func (s *Service) BuildDashboardSnapshot(lookback time.Duration, now time.Time) DashboardSnapshot {
	end := normalizeTime(now)
	start := end.Add(-lookback)

	events := s.GetEventsInRange(start, end)

	return DashboardSnapshot{
		GeneratedAt:      end,
		PeriodStart:      start,
		PeriodEnd:        end,
		Status:           s.GetStatus(),
		MetricAggregates: AggregateEventMetrics(events),
	}
}
