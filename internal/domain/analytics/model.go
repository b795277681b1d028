package analytics

import (
	"errors"
	"time"
)

// DateLayout is the wire format for bucket dates and query bounds.
const DateLayout = "2006-01-02"

// DailyStats is one day's statistics bucket. AgeSum and AgeCount are the
// sufficient statistics for the running mean; the average itself is derived,
// never stored.
type DailyStats struct {
	Date          time.Time `db:"stat_date" json:"date"`
	TotalPatients int64     `db:"total_patients" json:"total_patients"`
	NewPatients   int64     `db:"new_patients" json:"new_patients"`
	AgeSum        int64     `db:"age_sum" json:"age_sum"`
	AgeCount      int64     `db:"age_count" json:"age_count"`
}

// AverageAge derives the bucket's mean age, 0 when no samples exist.
func (s *DailyStats) AverageAge() float64 {
	if s.AgeCount == 0 {
		return 0
	}
	return float64(s.AgeSum) / float64(s.AgeCount)
}

// Delta is an atomic adjustment applied to a bucket. Negative Total values
// are floored at zero by the store.
type Delta struct {
	Total    int64
	New      int64
	AgeSum   int64
	AgeCount int64
}

// AggregateStats is the answer to a range query: bucket values summed over
// the matching dates.
type AggregateStats struct {
	FromDate      string  `json:"from_date,omitempty"`
	ToDate        string  `json:"to_date,omitempty"`
	TotalPatients int64   `json:"total_patients"`
	NewPatients   int64   `json:"new_patients"`
	AverageAge    float64 `json:"average_age"`
}

var (
	ErrInvalidRange = errors.New("from_date is after to_date")
	ErrNoData       = errors.New("no statistics recorded for the requested range")
)
