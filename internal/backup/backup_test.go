package backup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRunAllHandlersSucceed(t *testing.T) {
	svc := NewService(zerolog.Nop())
	svc.Register(TargetTrades, func(context.Context) (int, error) { return 12, nil })
	svc.Register(TargetNotion, func(context.Context) (int, error) { return 3, nil })

	result := svc.Run(context.Background())
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 item results, got %d", len(result.Items))
	}
	// Registration order is preserved.
	if result.Items[0].Target != TargetTrades || result.Items[0].ItemsBackedUp != 12 {
		t.Fatalf("unexpected first item: %+v", result.Items[0])
	}
	if result.Message != "trades: ok (12 items); notion: ok (3 items)" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
	if result.FinishedAt.Before(result.StartedAt) {
		t.Fatalf("finished before started: %v / %v", result.StartedAt, result.FinishedAt)
	}
}

func TestRunPartialFailure(t *testing.T) {
	svc := NewService(zerolog.Nop())
	svc.Register(TargetTrades, func(context.Context) (int, error) { return 5, nil })
	svc.Register(TargetAIAnalysis, func(context.Context) (int, error) { return 0, errors.New("disk full") })

	result := svc.Run(context.Background())
	if result.Status != StatusPartial {
		t.Fatalf("one failed target must yield partial, got %s", result.Status)
	}

	failed := result.Items[1]
	if failed.Target != TargetAIAnalysis || failed.ItemsBackedUp != 0 || failed.Error != "disk full" {
		t.Fatalf("unexpected failed item: %+v", failed)
	}
	if !strings.Contains(result.Message, "ai_analysis: failed (disk full)") {
		t.Fatalf("message missing failure detail: %q", result.Message)
	}
	if !strings.Contains(result.Message, "trades: ok (5 items)") {
		t.Fatalf("message missing success detail: %q", result.Message)
	}
}

func TestRunAllHandlersFail(t *testing.T) {
	svc := NewService(zerolog.Nop())
	svc.Register(TargetTrades, func(context.Context) (int, error) { return 0, errors.New("a") })
	svc.Register(TargetNotion, func(context.Context) (int, error) { return 0, errors.New("b") })

	result := svc.Run(context.Background())
	if result.Status != StatusFailure {
		t.Fatalf("all targets failing must yield failure, got %s", result.Status)
	}
}

func TestRunFailingHandlerDoesNotStopOthers(t *testing.T) {
	ran := false
	svc := NewService(zerolog.Nop())
	svc.Register(TargetNotion, func(context.Context) (int, error) { return 0, errors.New("boom") })
	svc.Register(TargetTrades, func(context.Context) (int, error) {
		ran = true
		return 1, nil
	})

	svc.Run(context.Background())
	if !ran {
		t.Fatal("handlers after a failure must still run")
	}
}

func TestRunWithoutHandlers(t *testing.T) {
	svc := NewService(zerolog.Nop())
	if svc.HasHandlers() {
		t.Fatal("fresh service must report no handlers")
	}

	result := svc.Run(context.Background())
	if result.Status != StatusFailure {
		t.Fatalf("empty run must be a failure, got %s", result.Status)
	}
	if result.Message != "No backup handlers configured. Nothing was backed up." {
		t.Fatalf("unexpected message: %q", result.Message)
	}
	if len(result.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(result.Items))
	}
}

func TestRunNegativeCountClampedToZero(t *testing.T) {
	svc := NewService(zerolog.Nop())
	svc.Register(TargetTrades, func(context.Context) (int, error) { return -4, nil })

	result := svc.Run(context.Background())
	if result.Items[0].ItemsBackedUp != 0 {
		t.Fatalf("negative counts must clamp to zero, got %d", result.Items[0].ItemsBackedUp)
	}
}
