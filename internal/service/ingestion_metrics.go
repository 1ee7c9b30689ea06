package service

import (
	"fmt"
	"time"
)

// Import kinds
const (
	KindMatches     = "matches"
	KindPlayerStats = "player_stats"
)

// ImportReport tracks statistics about one import run
type ImportReport struct {
	Kind        string
	Source      string
	StartTime   time.Time
	Duration    time.Duration
	TotalRows   int
	Imported    int
	Skipped     int
	Batches     int
	Invalidated int
	Rejections  map[string]int
}

func newImportReport(kind, source string) *ImportReport {
	return &ImportReport{
		Kind:       kind,
		Source:     source,
		StartTime:  time.Now(),
		Rejections: make(map[string]int),
	}
}

func (r *ImportReport) reject(code string) {
	r.Skipped++
	r.Rejections[code]++
}

// String returns a formatted string representation of the report
func (r *ImportReport) String() string {
	successRate := float64(0)
	if r.TotalRows > 0 {
		successRate = float64(r.Imported) / float64(r.TotalRows) * 100
	}

	return fmt.Sprintf(
		"ImportReport{Kind=%s, Total=%d, Imported=%d (%.1f%%), Skipped=%d, Batches=%d, Invalidated=%d, Duration=%v}",
		r.Kind,
		r.TotalRows,
		r.Imported,
		successRate,
		r.Skipped,
		r.Batches,
		r.Invalidated,
		r.Duration,
	)
}
