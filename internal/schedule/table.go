// Package schedule holds the static table of per-line connection offsets and
// the rules that derive onward arrival times from a bus ETA.
package schedule

import (
	"time"

	"busmonitor.dev/internal/models"
)

// Table is an immutable lookup of line schedules keyed by line name.
type Table struct {
	lines map[string]models.LineScheduleInfo
}

// New builds a table from lines. When two records share a name the later
// one wins.
func New(lines []models.LineScheduleInfo) *Table {
	t := &Table{lines: make(map[string]models.LineScheduleInfo, len(lines))}
	for _, l := range lines {
		t.lines[l.Name] = l
	}
	return t
}

// Default returns the table for the stops near home: lines through stop
// 874 are a five minute walk away, line 138 at stop 1455 three minutes.
func Default() *Table {
	const (
		secondsTo874  = 5 * 60
		secondsTo1455 = 3 * 60
	)
	return New([]models.LineScheduleInfo{
		{Name: "31", SecondsFromStopToHome: secondsTo874, SecondsToSchool: (4 + 4) * 60, SecondsToWork: (8 + 8) * 60},
		{Name: "33", SecondsFromStopToHome: secondsTo874, SecondsToSchool: (5 + 6) * 60},
		{Name: "36", SecondsFromStopToHome: secondsTo874, SecondsToSchool: (5 + 1) * 60},
		{Name: "39", SecondsFromStopToHome: secondsTo874, SecondsToSchool: (5 + 6) * 60, SecondsToWork: (7 + 7) * 60},
		{Name: "65", SecondsFromStopToHome: secondsTo874, SecondsToSchool: (4 + 4) * 60, SecondsToWork: (8 + 8) * 60},
		{Name: "138", SecondsFromStopToHome: secondsTo1455, SecondsToSchool: (6 + 6) * 60, SecondsToWork: (12 + 7) * 60},
	})
}

// Lookup returns the schedule of line, or the zero-offset record named
// "??" when the line is not in the table.
func (t *Table) Lookup(line string) models.LineScheduleInfo {
	if t != nil {
		if info, ok := t.lines[line]; ok {
			return info
		}
	}
	return models.UnknownLine()
}

// Len returns the number of lines in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.lines)
}

// DeriveConnectionTime returns the wall-clock time, as HH:MM, at which the
// onward destination is reached when catching arrival. A zero offset means
// the connection is not tracked for the line; arrivals without an estimate
// have no connection time either.
func DeriveConnectionTime(now time.Time, arrival models.ArrivalTime, offsetSeconds uint64) (string, bool) {
	if offsetSeconds == 0 || !arrival.HasEstimate() {
		return "", false
	}
	at := now.Add(time.Duration(arrival.Seconds+offsetSeconds) * time.Second)
	return at.Format("15:04"), true
}

// IsMissed reports whether the bus leaves before it can be reached from
// home: the arrival is no further away than the walk to the stop.
func IsMissed(arrival models.ArrivalTime, line models.LineScheduleInfo) bool {
	return arrival.Seconds <= line.SecondsFromStopToHome
}
