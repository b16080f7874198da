package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
)

type fakeArchive struct {
	mu       sync.Mutex
	inserted []ArchivedEvent
	block    chan struct{}
}

func (f *fakeArchive) InsertEvent(_ context.Context, event ArchivedEvent) (ArchivedEvent, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, event)
	return event, nil
}

func (f *fakeArchive) ListEventsBetween(_ context.Context, _, _ time.Time) ([]ArchivedEvent, error) {
	return nil, nil
}

func (f *fakeArchive) ListRecentEvents(_ context.Context, _ int) ([]ArchivedEvent, error) {
	return nil, nil
}

func (f *fakeArchive) DeleteEventsBefore(_ context.Context, _ time.Time) error { return nil }

func (f *fakeArchive) CountEvents(_ context.Context) (int64, error) { return 0, nil }

func (f *fakeArchive) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func testEvent(code string) monitoring.MonitoringEvent {
	return monitoring.MonitoringEvent{
		Timestamp: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
		Component: monitoring.ComponentLending,
		Level:     monitoring.LevelEmergency,
		Code:      code,
		Message:   "health factor 1.5 below emergency threshold 1.6",
		Metric: &monitoring.MetricPoint{
			MetricID:   "aave_health_factor_current",
			Value:      decimal.RequireFromString("1.5"),
			Unit:       "ratio",
			RecordedAt: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestArchiverWritesQueuedEvents(t *testing.T) {
	archive := &fakeArchive{}
	archiver := NewArchiver(archive, 8, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		archiver.Run(ctx)
		close(done)
	}()

	archiver.Enqueue(testEvent("HF_BELOW_EMERGENCY"))
	archiver.Enqueue(testEvent("EMERGENCY_STOP"))

	deadline := time.After(2 * time.Second)
	for archive.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected 2 archived events, got %d", archive.count())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	if archiver.Dropped() != 0 {
		t.Fatalf("nothing should have been dropped, got %d", archiver.Dropped())
	}
}

func TestArchiverDropsOnFullBuffer(t *testing.T) {
	archive := &fakeArchive{block: make(chan struct{})}
	archiver := NewArchiver(archive, 1, zerolog.Nop())

	// No run loop: the single buffer slot fills, the rest must drop.
	archiver.Enqueue(testEvent("A"))
	archiver.Enqueue(testEvent("B"))
	archiver.Enqueue(testEvent("C"))

	if got := archiver.Dropped(); got != 2 {
		t.Fatalf("expected 2 dropped events, got %d", got)
	}
}

func TestArchivedEventRoundTrip(t *testing.T) {
	event := testEvent("HF_BELOW_EMERGENCY")

	row := ToArchivedEvent(event)
	if row.MetricID == nil || *row.MetricID != "aave_health_factor_current" {
		t.Fatalf("metric id not carried over: %+v", row)
	}
	if row.MetricValue == nil || !row.MetricValue.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("metric value not carried over: %+v", row)
	}

	restored := FromArchivedEvent(row)
	if restored.Code != event.Code || restored.Level != event.Level || restored.Component != event.Component {
		t.Fatalf("event identity lost: %+v", restored)
	}
	if restored.Metric == nil || restored.Metric.Unit != "ratio" {
		t.Fatalf("metric lost: %+v", restored.Metric)
	}
}

func TestToArchivedEventWithoutMetric(t *testing.T) {
	event := testEvent("EMERGENCY_STOP")
	event.Metric = nil

	row := ToArchivedEvent(event)
	if row.MetricID != nil || row.MetricValue != nil || row.MetricUnit != nil {
		t.Fatalf("metric fields must stay nil: %+v", row)
	}

	restored := FromArchivedEvent(row)
	if restored.Metric != nil {
		t.Fatalf("restored event must have no metric: %+v", restored.Metric)
	}
}
