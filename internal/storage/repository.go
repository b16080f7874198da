package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	insertEventSQL = `INSERT INTO monitoring_events (
        ts,
        component,
        level,
        code,
        message,
        metric_id,
        metric_value,
        metric_unit
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    RETURNING id, created_at;`

	listEventsBetweenSQL = `SELECT
        id,
        ts,
        component,
        level,
        code,
        message,
        metric_id,
        metric_value,
        metric_unit,
        created_at
    FROM monitoring_events
    WHERE ts >= $1
      AND ts <= $2
    ORDER BY ts;`

	listRecentEventsSQL = `SELECT
        id,
        ts,
        component,
        level,
        code,
        message,
        metric_id,
        metric_value,
        metric_unit,
        created_at
    FROM monitoring_events
    ORDER BY ts DESC
    LIMIT $1;`

	deleteEventsBeforeSQL = `DELETE FROM monitoring_events WHERE ts < $1;`

	countEventsSQL = `SELECT COUNT(*) FROM monitoring_events;`
)

// EventArchive defines operations for the monitoring-event audit archive.
type EventArchive interface {
	InsertEvent(ctx context.Context, event ArchivedEvent) (ArchivedEvent, error)
	ListEventsBetween(ctx context.Context, from, to time.Time) ([]ArchivedEvent, error)
	ListRecentEvents(ctx context.Context, limit int) ([]ArchivedEvent, error)
	DeleteEventsBefore(ctx context.Context, olderThan time.Time) error
	CountEvents(ctx context.Context) (int64, error)
}

// Store is the pgx-backed EventArchive implementation.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertEvent appends one event to the archive.
func (s *Store) InsertEvent(ctx context.Context, event ArchivedEvent) (ArchivedEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return ArchivedEvent{}, err
	}

	var metricValue interface{}
	if event.MetricValue != nil {
		metricValue = event.MetricValue.String()
	}

	row := pool.QueryRow(ctx, insertEventSQL,
		event.Timestamp,
		event.Component,
		event.Level,
		event.Code,
		event.Message,
		event.MetricID,
		metricValue,
		event.MetricUnit,
	)

	if scanErr := row.Scan(&event.ID, &event.CreatedAt); scanErr != nil {
		return ArchivedEvent{}, fmt.Errorf("insert monitoring event: %w", scanErr)
	}
	return event, nil
}

// ListEventsBetween lists archived events inside the inclusive window.
func (s *Store) ListEventsBetween(ctx context.Context, from, to time.Time) ([]ArchivedEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listEventsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list events between: %w", queryErr)
	}
	defer rows.Close()

	return collectEvents(rows, 0)
}

// ListRecentEvents lists the most recent archived events, newest first.
func (s *Store) ListRecentEvents(ctx context.Context, limit int) ([]ArchivedEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentEventsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent events: %w", queryErr)
	}
	defer rows.Close()

	return collectEvents(rows, limit)
}

// DeleteEventsBefore drops archive rows older than the retention horizon.
func (s *Store) DeleteEventsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteEventsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete events before: %w", execErr)
	}
	return nil
}

// CountEvents counts archived events.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countEventsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count events: %w", scanErr)
	}
	return count, nil
}

func collectEvents(rows pgx.Rows, sizeHint int) ([]ArchivedEvent, error) {
	events := make([]ArchivedEvent, 0, sizeHint)
	for rows.Next() {
		event, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

func scanEvent(rows pgx.Rows) (ArchivedEvent, error) {
	var (
		event       ArchivedEvent
		metricID    sql.NullString
		metricValue sql.NullString
		metricUnit  sql.NullString
	)

	if err := rows.Scan(
		&event.ID,
		&event.Timestamp,
		&event.Component,
		&event.Level,
		&event.Code,
		&event.Message,
		&metricID,
		&metricValue,
		&metricUnit,
		&event.CreatedAt,
	); err != nil {
		return ArchivedEvent{}, err
	}

	if metricID.Valid {
		id := metricID.String
		event.MetricID = &id
	}
	if metricValue.Valid {
		value, err := decimal.NewFromString(metricValue.String)
		if err != nil {
			return ArchivedEvent{}, fmt.Errorf("parse metric value: %w", err)
		}
		event.MetricValue = &value
	}
	if metricUnit.Valid {
		unit := metricUnit.String
		event.MetricUnit = &unit
	}

	return event, nil
}

var _ EventArchive = (*Store)(nil)
