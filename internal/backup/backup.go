package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Target labels one backup destination category.
type Target string

const (
	TargetNotion     Target = "notion"
	TargetAIAnalysis Target = "ai_analysis"
	TargetTrades     Target = "trades"
)

// Status grades a whole backup run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// Handler performs one target's backup and reports how many records it
// wrote. The service never does I/O itself; callers inject the real work so
// tests can pass plain counting functions.
type Handler func(ctx context.Context) (int, error)

// ItemResult is the outcome for a single target.
type ItemResult struct {
	Target        Target `json:"target"`
	ItemsBackedUp int    `json:"items_backed_up"`
	Error         string `json:"error,omitempty"`
}

// Result aggregates one backup run.
type Result struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Status     Status       `json:"status"`
	Items      []ItemResult `json:"items"`
	Message    string       `json:"message"`
}

// Service runs registered backup handlers in registration order and
// aggregates their results. A failing handler never stops the others.
type Service struct {
	order    []Target
	handlers map[Target]Handler
	logger   zerolog.Logger
}

// NewService constructs an empty backup service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		handlers: make(map[Target]Handler),
		logger:   logger.With().Str("component", "backup").Logger(),
	}
}

// Register installs the handler for a target, replacing any previous one.
func (s *Service) Register(target Target, handler Handler) {
	if handler == nil {
		return
	}
	if _, exists := s.handlers[target]; !exists {
		s.order = append(s.order, target)
	}
	s.handlers[target] = handler
}

// HasHandlers reports whether at least one target is registered.
func (s *Service) HasHandlers() bool {
	return len(s.handlers) > 0
}

// Run executes every registered handler and aggregates the outcome:
// all failed = failure, some failed = partial, none failed = success. With no
// handlers registered the run itself counts as a failure.
func (s *Service) Run(ctx context.Context) Result {
	startedAt := time.Now().UTC()

	items := make([]ItemResult, 0, len(s.order))
	for _, target := range s.order {
		count, err := s.handlers[target](ctx)
		if err != nil {
			s.logger.Error().Err(err).Str("target", string(target)).Msg("backup target failed")
			items = append(items, ItemResult{Target: target, Error: err.Error()})
			continue
		}
		if count < 0 {
			count = 0
		}
		items = append(items, ItemResult{Target: target, ItemsBackedUp: count})
	}

	finishedAt := time.Now().UTC()

	if len(items) == 0 {
		return Result{
			StartedAt:  startedAt,
			FinishedAt: finishedAt,
			Status:     StatusFailure,
			Items:      items,
			Message:    "No backup handlers configured. Nothing was backed up.",
		}
	}

	failed := 0
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Error != "" {
			failed++
			parts = append(parts, fmt.Sprintf("%s: failed (%s)", item.Target, item.Error))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: ok (%d items)", item.Target, item.ItemsBackedUp))
	}

	status := StatusSuccess
	switch {
	case failed == len(items):
		status = StatusFailure
	case failed > 0:
		status = StatusPartial
	}

	return Result{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Status:     status,
		Items:      items,
		Message:    strings.Join(parts, "; "),
	}
}
