package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeString(t *testing.T) {
	testCases := []struct {
		name    string
		seconds uint64
		want    string
	}{
		{name: "arriving now", seconds: 0, want: ">>>>>>>"},
		{name: "under a minute", seconds: 5, want: " 0m 05s"},
		{name: "minutes and seconds", seconds: 125, want: " 2m 05s"},
		{name: "two digit minutes", seconds: 754, want: "12m 34s"},
		{name: "threshold is still an estimate", seconds: NoEstimateThreshold, want: "333m 19s"},
		{name: "above threshold is blank", seconds: NoEstimateThreshold + 1, want: "      "},
		{name: "api sentinel", seconds: 999999, want: "      "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TimeString(ArrivalTime{Seconds: tc.seconds}))
		})
	}
}

func TestSortBySeconds(t *testing.T) {
	arrivals := []ArrivalTime{
		{StopID: "874", Line: "31", Seconds: 120},
		{StopID: "874", Line: "39", Seconds: 60},
		{StopID: "1455", Line: "138", Seconds: 60},
		{StopID: "1455", Line: "65", Seconds: 0},
	}

	SortBySeconds(arrivals)

	lines := make([]string, 0, len(arrivals))
	for _, a := range arrivals {
		lines = append(lines, a.Line)
	}
	assert.Equal(t, []string{"65", "39", "138", "31"}, lines, "ties keep their input order")
}

func TestUnknownLine(t *testing.T) {
	line := UnknownLine()
	assert.Equal(t, "??", line.Name)
	assert.Zero(t, line.SecondsFromStopToHome)
	assert.Zero(t, line.SecondsToSchool)
	assert.Zero(t, line.SecondsToWork)
}
