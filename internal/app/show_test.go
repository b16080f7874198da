package app

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/milechy/ultra-autotrade-project/internal/storage"
)

func TestRenderEventTable(t *testing.T) {
	metricID := "health_factor"
	value := decimal.RequireFromString("1.55")
	events := []storage.ArchivedEvent{
		{
			Timestamp:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			Component:   "lending",
			Level:       "EMERGENCY",
			Code:        "HF_BELOW_EMERGENCY",
			Message:     "health factor 1.55\nbelow emergency threshold",
			MetricID:    &metricID,
			MetricValue: &value,
		},
		{
			Timestamp: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
			Component: "system",
			Level:     "INFO",
			Code:      "EMERGENCY_CLEARED",
			Message:   "resumed",
		},
	}

	var out strings.Builder
	renderEventTable(&out, events, 42)

	text := out.String()
	if !strings.HasPrefix(text, "42 events archived; showing most recent 2\n") {
		t.Fatalf("missing archive summary line: %q", text)
	}
	if !strings.Contains(text, "HF_BELOW_EMERGENCY") || !strings.Contains(text, "1.5500") {
		t.Fatalf("missing event columns: %q", text)
	}
	if strings.Contains(text, "1.55\nbelow") {
		t.Fatalf("message newlines must be flattened: %q", text)
	}
}

func TestRenderEventTableEmpty(t *testing.T) {
	var out strings.Builder
	renderEventTable(&out, nil, 0)

	text := out.String()
	if !strings.Contains(text, "0 events archived") || !strings.Contains(text, "no events found") {
		t.Fatalf("unexpected empty output: %q", text)
	}
}
