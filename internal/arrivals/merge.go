// Package arrivals gathers arrival estimates from every configured stop,
// merges them into one timeline and feeds the display mailbox.
package arrivals

import (
	"context"
	"log/slog"

	"busmonitor.dev/internal/logging"
	"busmonitor.dev/internal/models"
)

// Source fetches the arrivals of a single stop.
type Source interface {
	Arrivals(ctx context.Context, stopID string) ([]models.ArrivalTime, error)
}

// StopResult is the outcome of fetching one stop.
type StopResult struct {
	StopID   string
	Arrivals []models.ArrivalTime
	Err      error
}

// FetchAll queries the stops one after another, in order.
func FetchAll(ctx context.Context, source Source, stopIDs []string) []StopResult {
	results := make([]StopResult, 0, len(stopIDs))
	for _, stopID := range stopIDs {
		list, err := source.Arrivals(ctx, stopID)
		results = append(results, StopResult{StopID: stopID, Arrivals: list, Err: err})
	}
	return results
}

// Merge concatenates the arrivals of every successful stop and sorts them
// soonest first; ties keep fetch order. Failed stops are logged and
// contribute nothing. The result is empty, never nil, when nothing
// succeeded.
func Merge(ctx context.Context, results []StopResult) []models.ArrivalTime {
	logger := logging.FromContext(ctx)

	total := 0
	for _, r := range results {
		if r.Err == nil {
			total += len(r.Arrivals)
		}
	}

	merged := make([]models.ArrivalTime, 0, total)
	for _, r := range results {
		if r.Err != nil {
			logging.LogError(logger, "skipping stop after failed fetch", r.Err,
				slog.String("stop_id", r.StopID),
				slog.String("component", "arrival_aggregator"))
			continue
		}
		merged = append(merged, r.Arrivals...)
	}

	models.SortBySeconds(merged)
	return merged
}
