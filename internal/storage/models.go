package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArchivedEvent is one monitoring event persisted for audit and export.
// The archive is append-only and write-behind; live monitoring state is
// never rebuilt from it.
type ArchivedEvent struct {
	ID          int64
	Timestamp   time.Time
	Component   string
	Level       string
	Code        string
	Message     string
	MetricID    *string
	MetricValue *decimal.Decimal
	MetricUnit  *string
	CreatedAt   time.Time
}
