package analytics

import (
	"context"
	"time"
)

type Repository interface {
	// Apply atomically folds a delta into the bucket for the given day,
	// creating the bucket at zero if it does not exist. The bucket's
	// totalPatients never drops below zero.
	Apply(ctx context.Context, day time.Time, d Delta) (*DailyStats, error)

	// Range returns the buckets whose date falls in [from, to] inclusive.
	// A nil bound is unbounded on that side.
	Range(ctx context.Context, from, to *time.Time) ([]*DailyStats, error)
}
