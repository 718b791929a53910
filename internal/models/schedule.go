package models

// UnknownLineName is the name of the record returned for lines missing from
// the schedule table.
const UnknownLineName = "??"

// LineScheduleInfo holds the connection offsets of one bus line: the walk
// from the stop towards home and the rides on to school and work. A zero
// offset means the connection is not tracked for that line.
type LineScheduleInfo struct {
	Name                  string `json:"name"`
	SecondsFromStopToHome uint64 `json:"secondsFromStopToHome"`
	SecondsToSchool       uint64 `json:"secondsToSchool"`
	SecondsToWork         uint64 `json:"secondsToWork"`
}

// UnknownLine returns the zero-offset record used for lines that are not in
// the table.
func UnknownLine() LineScheduleInfo {
	return LineScheduleInfo{Name: UnknownLineName}
}
