package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/milechy/ultra-autotrade-project/internal/storage"
)

// Show prints recent archived events together with the archive's total size.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show events")
	}
	if closeStore != nil {
		defer closeStore()
	}

	total, err := store.CountEvents(ctx)
	if err != nil {
		return err
	}

	events, err := store.ListRecentEvents(ctx, opts.Limit)
	if err != nil {
		return err
	}

	renderEventTable(os.Stdout, events, total)
	return nil
}

// renderEventTable writes the archive summary line and the event table.
func renderEventTable(w io.Writer, events []storage.ArchivedEvent, total int64) {
	fmt.Fprintf(w, "%d events archived; showing most recent %d\n", total, len(events))
	if len(events) == 0 {
		fmt.Fprintln(w, "no events found")
		return
	}

	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tLevel\tComponent\tCode\tMetric\tValue\tMessage")

	for _, event := range events {
		metricID := ""
		if event.MetricID != nil {
			metricID = *event.MetricID
		}
		value := ""
		if event.MetricValue != nil {
			value = event.MetricValue.StringFixed(4)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			event.Timestamp.UTC().Format(time.RFC3339),
			event.Level,
			event.Component,
			event.Code,
			metricID,
			value,
			sanitizeInline(event.Message),
		)
	}

	writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
