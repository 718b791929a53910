// Package gtfs serves bus arrivals from a GTFS-Realtime trip-updates feed,
// as an alternative to the EMT API for agencies that publish one.
package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jamespfennell/gtfs"

	"busmonitor.dev/internal/clock"
	"busmonitor.dev/internal/logging"
	"busmonitor.dev/internal/models"
	"busmonitor.dev/internal/transit"
	"busmonitor.dev/internal/utils"
)

const maxFeedBytes = 8 << 20

// RealtimeSource downloads the trip-updates feed on every call and picks
// the stop-time updates of the requested stop. Nothing is cached between
// calls.
type RealtimeSource struct {
	config     Config
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
}

func NewRealtimeSource(config Config, clk clock.Clock, logger *slog.Logger) *RealtimeSource {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RealtimeSource{
		config:     config,
		httpClient: httpClient,
		clock:      clk,
		logger:     logger.With(slog.String("component", "gtfs_realtime")),
	}
}

// Arrivals returns the upcoming arrivals at stopID, soonest first. Errors
// are *transit.FetchError values, like the EMT client's.
func (s *RealtimeSource) Arrivals(ctx context.Context, stopID string) ([]models.ArrivalTime, error) {
	if err := utils.ValidateID(stopID); err != nil {
		return nil, &transit.FetchError{Kind: transit.KindNetwork, StopID: stopID, Err: fmt.Errorf("invalid stop id: %w", err)}
	}

	feed, err := s.loadRealtimeData(ctx, stopID)
	if err != nil {
		return nil, err
	}

	arrivals := ArrivalsAtStop(feed.Trips, stopID, s.clock.Now(), s.config.Headsigns)
	logging.LogOperation(s.logger, "gtfs_realtime_arrivals",
		slog.String("stop_id", stopID),
		slog.Int("trips", len(feed.Trips)),
		slog.Int("arrivals", len(arrivals)))
	return arrivals, nil
}

func (s *RealtimeSource) loadRealtimeData(ctx context.Context, stopID string) (*gtfs.Realtime, error) {
	fail := func(kind transit.Kind, status int, err error) (*gtfs.Realtime, error) {
		return nil, &transit.FetchError{Kind: kind, StopID: stopID, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.TripUpdatesURL, nil)
	if err != nil {
		return fail(transit.KindNetwork, 0, err)
	}
	for key, value := range s.config.headers() {
		req.Header.Add(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fail(transit.KindNetwork, 0, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, s.logger, "http_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(transit.KindNetwork, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return fail(transit.KindNetwork, resp.StatusCode, err)
	}

	feed, err := gtfs.ParseRealtime(b, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return fail(transit.KindParse, resp.StatusCode, err)
	}
	return feed, nil
}

// ArrivalsAtStop converts the stop-time updates for stopID into arrivals
// relative to now. The arrival time is used when present, the departure
// time otherwise; updates already in the past are dropped. The line is the
// route id and the destination comes from headsigns.
func ArrivalsAtStop(trips []gtfs.Trip, stopID string, now time.Time, headsigns map[string]string) []models.ArrivalTime {
	arrivals := make([]models.ArrivalTime, 0)
	for _, trip := range trips {
		for _, update := range trip.StopTimeUpdates {
			if update.StopID == nil || *update.StopID != stopID {
				continue
			}
			at, ok := eventTime(update)
			if !ok {
				continue
			}
			wait := at.Sub(now)
			if wait < 0 {
				continue
			}
			arrivals = append(arrivals, models.ArrivalTime{
				StopID:      stopID,
				Line:        trip.ID.RouteID,
				Destination: headsigns[trip.ID.RouteID],
				Seconds:     uint64(wait / time.Second),
			})
		}
	}
	models.SortBySeconds(arrivals)
	return arrivals
}

func eventTime(update gtfs.StopTimeUpdate) (time.Time, bool) {
	if update.Arrival != nil && update.Arrival.Time != nil {
		return *update.Arrival.Time, true
	}
	if update.Departure != nil && update.Departure.Time != nil {
		return *update.Departure.Time, true
	}
	return time.Time{}, false
}
