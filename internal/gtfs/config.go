package gtfs

import (
	"net/http"
	"time"
)

type Config struct {
	TripUpdatesURL          string
	RealTimeAuthHeaderKey   string
	RealTimeAuthHeaderValue string
	// Headsigns maps a route id to the destination shown for it.
	Headsigns map[string]string
	Timeout   time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

func (config Config) headers() map[string]string {
	headers := map[string]string{}
	if config.RealTimeAuthHeaderKey != "" && config.RealTimeAuthHeaderValue != "" {
		headers[config.RealTimeAuthHeaderKey] = config.RealTimeAuthHeaderValue
	}
	return headers
}
