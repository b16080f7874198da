package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/milechy/ultra-autotrade-project/internal/backup"
	"github.com/milechy/ultra-autotrade-project/internal/config"
	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
	"github.com/milechy/ultra-autotrade-project/internal/reporting"
)

func newTestApp(cfg *config.Config) *App {
	return NewApp(cfg, zerolog.Nop())
}

func TestWriteTradeBackupCSV(t *testing.T) {
	dir := t.TempDir()
	runAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	records := []monitoring.TradeActivityRecord{
		{Component: monitoring.ComponentSignalRelay, Action: monitoring.ActionBuy, Timestamp: runAt.Add(-2 * time.Hour)},
		{Component: monitoring.ComponentSignalRelay, Action: monitoring.ActionSell, Timestamp: runAt.Add(-time.Hour)},
	}

	count, err := writeTradeBackupCSV(dir, runAt, records)
	if err != nil {
		t.Fatalf("writeTradeBackupCSV: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows written, got %d", count)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "trades_") {
		t.Fatalf("unexpected backup files: %v", entries)
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "ts,component,action" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "BUY") || !strings.Contains(lines[2], "SELL") {
		t.Fatalf("rows out of order or missing actions: %v", lines[1:])
	}
}

func TestNewBackupServiceDisabled(t *testing.T) {
	a := newTestApp(&config.Config{})
	monitor := monitoring.NewService(monitoring.Options{}, zerolog.Nop())

	if svc := a.newBackupService(monitor); svc != nil {
		t.Fatal("expected nil backup service when disabled")
	}
}

func TestNewBackupServiceBacksUpTrades(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(&config.Config{
		Backup: config.BackupConfig{Enabled: true, Dir: dir, Window: 24 * time.Hour},
	})
	monitor := monitoring.NewService(monitoring.Options{}, zerolog.Nop())
	now := time.Now().UTC()
	monitor.RecordTrade(monitoring.ComponentSignalRelay, monitoring.ActionBuy, now.Add(-time.Hour))
	monitor.RecordTrade(monitoring.ComponentSignalRelay, monitoring.ActionHold, now.Add(-time.Minute))

	svc := a.newBackupService(monitor)
	if svc == nil || !svc.HasHandlers() {
		t.Fatal("expected backup service with registered handlers")
	}

	result := svc.Run(context.Background())
	if result.Status != backup.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Status, result.Message)
	}
	if len(result.Items) != 1 || result.Items[0].Target != backup.TargetTrades {
		t.Fatalf("unexpected items: %+v", result.Items)
	}
	if result.Items[0].ItemsBackedUp != 2 {
		t.Fatalf("expected 2 trades backed up, got %d", result.Items[0].ItemsBackedUp)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one backup file, got %d", len(entries))
	}
}

func TestReportJobRunsBackups(t *testing.T) {
	a := newTestApp(&config.Config{
		Reporting: config.ReportingConfig{DailyEnabled: true},
	})
	monitor := monitoring.NewService(monitoring.Options{}, zerolog.Nop())
	reporter := reporting.NewService(monitor, zerolog.Nop())

	calls := 0
	backups := backup.NewService(zerolog.Nop())
	backups.Register(backup.TargetTrades, func(ctx context.Context) (int, error) {
		calls++
		return 5, nil
	})

	job := a.newReportJob(monitor, reporter, nil, nil, backups)
	if err := job(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("report job: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected backup handler to run once, got %d", calls)
	}
}
