package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/milechy/ultra-autotrade-project/internal/backup"
	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
)

// newBackupService wires the configured backup targets. Only trade activity
// has a built-in source today; additional targets register here as they gain
// one. Returns nil when backups are disabled.
func (a *App) newBackupService(monitor *monitoring.Service) *backup.Service {
	if !a.Config.Backup.Enabled {
		return nil
	}

	dir := a.Config.Backup.Dir
	window := a.Config.Backup.Window

	svc := backup.NewService(a.Logger)
	svc.Register(backup.TargetTrades, func(ctx context.Context) (int, error) {
		now := time.Now().UTC()
		records := monitor.GetTradeActivity(now.Add(-window), now)
		return writeTradeBackupCSV(dir, now, records)
	})
	return svc
}

// writeTradeBackupCSV dumps trade records into a timestamped CSV under dir
// and returns the number of rows written.
func writeTradeBackupCSV(dir string, runAt time.Time, records []monitoring.TradeActivityRecord) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	path := filepath.Join(dir, fmt.Sprintf("trades_%s.csv", runAt.Format("20060102T150405Z")))
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"ts", "component", "action"}); err != nil {
		return 0, err
	}
	for _, record := range records {
		row := []string{
			record.Timestamp.Format(time.RFC3339),
			string(record.Component),
			string(record.Action),
		}
		if err := writer.Write(row); err != nil {
			return 0, err
		}
	}
	if err := writer.Error(); err != nil {
		return 0, err
	}
	return len(records), nil
}
