package storage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
)

const archiveWriteTimeout = 5 * time.Second

// Archiver drains emitted monitoring events into the archive on a single
// background goroutine. Enqueue never blocks: when the buffer is full the
// event is dropped and counted, so the monitor's record paths stay
// non-blocking no matter how slow the database is.
type Archiver struct {
	archive EventArchive
	events  chan monitoring.MonitoringEvent
	logger  zerolog.Logger
	dropped atomic.Int64
}

// NewArchiver constructs an archiver with the given buffer size.
func NewArchiver(archive EventArchive, buffer int, logger zerolog.Logger) *Archiver {
	if buffer <= 0 {
		buffer = 256
	}
	return &Archiver{
		archive: archive,
		events:  make(chan monitoring.MonitoringEvent, buffer),
		logger:  logger.With().Str("component", "event_archiver").Logger(),
	}
}

// Enqueue hands an event to the background writer. Safe to install as the
// monitoring service's event hook.
func (a *Archiver) Enqueue(event monitoring.MonitoringEvent) {
	select {
	case a.events <- event:
	default:
		a.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded due to a full buffer.
func (a *Archiver) Dropped() int64 {
	return a.dropped.Load()
}

// Run consumes the queue until ctx is cancelled, then drains what is left.
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return
		case event := <-a.events:
			a.write(event)
		}
	}
}

func (a *Archiver) drain() {
	for {
		select {
		case event := <-a.events:
			a.write(event)
		default:
			return
		}
	}
}

func (a *Archiver) write(event monitoring.MonitoringEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveWriteTimeout)
	defer cancel()

	if _, err := a.archive.InsertEvent(ctx, ToArchivedEvent(event)); err != nil {
		a.logger.Error().Err(err).Str("code", event.Code).Msg("failed to archive event")
	}
}

// FromArchivedEvent restores the in-memory event shape from an archive row.
// Labels are not archived and come back empty.
func FromArchivedEvent(row ArchivedEvent) monitoring.MonitoringEvent {
	event := monitoring.MonitoringEvent{
		Timestamp: row.Timestamp,
		Component: monitoring.ComponentType(row.Component),
		Level:     monitoring.AlertLevel(row.Level),
		Code:      row.Code,
		Message:   row.Message,
	}
	if row.MetricID != nil && row.MetricValue != nil {
		metric := &monitoring.MetricPoint{
			MetricID:   *row.MetricID,
			Value:      *row.MetricValue,
			RecordedAt: row.Timestamp,
		}
		if row.MetricUnit != nil {
			metric.Unit = *row.MetricUnit
		}
		event.Metric = metric
	}
	return event
}

// ToArchivedEvent flattens a monitoring event into its archive row shape.
func ToArchivedEvent(event monitoring.MonitoringEvent) ArchivedEvent {
	row := ArchivedEvent{
		Timestamp: event.Timestamp,
		Component: string(event.Component),
		Level:     string(event.Level),
		Code:      event.Code,
		Message:   event.Message,
	}
	if event.Metric != nil {
		id := event.Metric.MetricID
		value := event.Metric.Value
		row.MetricID = &id
		row.MetricValue = &value
		if event.Metric.Unit != "" {
			unit := event.Metric.Unit
			row.MetricUnit = &unit
		}
	}
	return row
}
