package convert

import "time"

// RunStats tracks counters across one batch run. The Driver is its sole
// writer; it updates the counters once per object, so at every step
// Processed+Skipped+Failed equals Index.
type RunStats struct {
	Total     int
	Index     int
	Processed int
	Skipped   int
	Failed    int
	StartTime time.Time
}

// NewRunStats returns stats for a run over total objects, started now.
func NewRunStats(total int) *RunStats {
	return &RunStats{Total: total, StartTime: time.Now()}
}

// Visited returns how many objects have been tallied so far.
func (s *RunStats) Visited() int {
	return s.Processed + s.Skipped + s.Failed
}
