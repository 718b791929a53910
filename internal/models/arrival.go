package models

import (
	"fmt"
	"sort"
)

// NoEstimateThreshold is the largest Seconds value that is a real estimate.
// The transit API reports larger values when it has no prediction.
const NoEstimateThreshold = 19999

// ArrivalTime is one predicted bus arrival at a stop.
type ArrivalTime struct {
	StopID      string `json:"stopId"`
	Line        string `json:"line"`
	Destination string `json:"destination"`
	// Seconds until the bus reaches the stop. Zero means it is arriving now.
	Seconds uint64 `json:"secondsUntilArrival"`
}

// HasEstimate reports whether the arrival carries a usable prediction.
func (a ArrivalTime) HasEstimate() bool {
	return a.Seconds <= NoEstimateThreshold
}

// TimeString formats the ETA column: ">>>>>>>" for an arriving bus, blanks
// when there is no estimate and "Mm SSs" otherwise.
func TimeString(a ArrivalTime) string {
	switch {
	case a.Seconds == 0:
		return ">>>>>>>"
	case !a.HasEstimate():
		return "      "
	}
	return fmt.Sprintf("%2dm %02ds", a.Seconds/60, a.Seconds%60)
}

// SortBySeconds sorts arrivals in place, soonest first. Ties keep their
// relative order.
func SortBySeconds(arrivals []ArrivalTime) {
	sort.SliceStable(arrivals, func(i, j int) bool {
		return arrivals[i].Seconds < arrivals[j].Seconds
	})
}
