package monitoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AlertLevel grades the severity of a monitoring event.
type AlertLevel string

const (
	LevelInfo      AlertLevel = "info"
	LevelWarning   AlertLevel = "warning"
	LevelAlert     AlertLevel = "alert"
	LevelCritical  AlertLevel = "critical"
	LevelEmergency AlertLevel = "emergency"
)

// Rank maps a level onto its position in the severity order
// INFO < WARNING < ALERT < CRITICAL < EMERGENCY. Unknown levels rank
// lowest so a malformed value can never escalate anything.
func (l AlertLevel) Rank() int {
	switch l {
	case LevelWarning:
		return 1
	case LevelAlert:
		return 2
	case LevelCritical:
		return 3
	case LevelEmergency:
		return 4
	default:
		return 0
	}
}

// ComponentType labels the subsystem a monitoring event is attributed to.
type ComponentType string

const (
	ComponentNewsFeed    ComponentType = "news_feed"
	ComponentClassifier  ComponentType = "classifier"
	ComponentSignalRelay ComponentType = "signal_relay"
	ComponentLending     ComponentType = "lending"
	ComponentSystem      ComponentType = "system"
	ComponentBackup      ComponentType = "backup"
	ComponentReport      ComponentType = "report"
)

// ParseComponentType validates a component string at the system boundary.
func ParseComponentType(raw string) (ComponentType, error) {
	switch ComponentType(strings.ToLower(strings.TrimSpace(raw))) {
	case ComponentNewsFeed:
		return ComponentNewsFeed, nil
	case ComponentClassifier:
		return ComponentClassifier, nil
	case ComponentSignalRelay:
		return ComponentSignalRelay, nil
	case ComponentLending:
		return ComponentLending, nil
	case ComponentSystem:
		return ComponentSystem, nil
	case ComponentBackup:
		return ComponentBackup, nil
	case ComponentReport:
		return ComponentReport, nil
	}
	return "", fmt.Errorf("unknown component type %q", raw)
}

// TradeAction is the closed set of actions trade executors may report.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
	ActionHold TradeAction = "HOLD"
)

// ParseTradeAction validates an action string at the system boundary.
func ParseTradeAction(raw string) (TradeAction, error) {
	switch TradeAction(strings.ToUpper(strings.TrimSpace(raw))) {
	case ActionBuy:
		return ActionBuy, nil
	case ActionSell:
		return ActionSell, nil
	case ActionHold:
		return ActionHold, nil
	}
	return "", fmt.Errorf("unknown trade action %q", raw)
}

// MetricPoint is a single labeled numeric observation. It is attached to a
// MonitoringEvent when the event was triggered by a threshold breach.
type MetricPoint struct {
	MetricID   string            `json:"metric_id"`
	Value      decimal.Decimal   `json:"value"`
	Unit       string            `json:"unit,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// MonitoringEvent is one immutable monitoring occurrence. Events are created
// only inside the Service's record/activate paths and never mutated after.
// Message must never carry sensitive data (keys, wallet addresses).
type MonitoringEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Component ComponentType `json:"component"`
	Level     AlertLevel    `json:"level"`
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Metric    *MetricPoint  `json:"metric,omitempty"`
}

// LatencyRecord is a raw response-time sample kept for analytics.
type LatencyRecord struct {
	Component  ComponentType `json:"component"`
	Timestamp  time.Time     `json:"timestamp"`
	DurationMS int64         `json:"duration_ms"`
}

// TradeActivityRecord is a raw trade/signal sample kept for analytics.
type TradeActivityRecord struct {
	Component ComponentType `json:"component"`
	Action    TradeAction   `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthFactorSample is one entry of the health-factor history. A nil Value
// records a fetch that returned nothing, so gaps stay visible in reports.
type HealthFactorSample struct {
	Timestamp time.Time        `json:"timestamp"`
	Value     *decimal.Decimal `json:"value"`
}

// HealthFactorStatus is the verdict for a single recorded health factor.
type HealthFactorStatus struct {
	Current     *decimal.Decimal `json:"current"`
	Level       AlertLevel       `json:"level"`
	IsEmergency bool             `json:"is_emergency"`
}

// AutomationStatus is a point-in-time view of the service's mutable state.
// It is always computed fresh, never stored.
type AutomationStatus struct {
	IsTradingPaused  bool              `json:"is_trading_paused"`
	LastHealthFactor *decimal.Decimal  `json:"last_health_factor"`
	LastPriceChange  *decimal.Decimal  `json:"last_price_change_24h"`
	LastEventLevel   AlertLevel        `json:"last_event_level"`
	EmergencyReason  string            `json:"emergency_reason,omitempty"`
	RecentEvents     []MonitoringEvent `json:"recent_events"`
}

// MetricAggregate summarises one metric_id over a time window. When Count is
// zero, Min/Max/Avg/Last are all nil rather than zero.
type MetricAggregate struct {
	MetricID string           `json:"metric_id"`
	Unit     string           `json:"unit,omitempty"`
	Count    int              `json:"count"`
	Min      *decimal.Decimal `json:"min"`
	Max      *decimal.Decimal `json:"max"`
	Avg      *decimal.Decimal `json:"avg"`
	Last     *decimal.Decimal `json:"last"`
}

// DashboardSnapshot bundles current status with metric aggregates over a
// rolling lookback window.
type DashboardSnapshot struct {
	GeneratedAt      time.Time                  `json:"generated_at"`
	PeriodStart      time.Time                  `json:"period_start"`
	PeriodEnd        time.Time                  `json:"period_end"`
	Status           AutomationStatus           `json:"status"`
	MetricAggregates map[string]MetricAggregate `json:"metric_aggregates"`
}
