package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pm/patient-platform/internal/events"
	"github.com/pm/patient-platform/internal/platform/metrics"
)

type Service struct {
	repo    Repository
	metrics metrics.Recorder
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, rec metrics.Recorder, log zerolog.Logger) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{repo: repo, metrics: rec, log: log, now: time.Now}
}

// Apply folds one lifecycle event into the bucket for the current processing
// day. Events are attributed to the day they are processed, not the day they
// were emitted, so a backlog replay lands in the catch-up day's bucket.
func (s *Service) Apply(ctx context.Context, ev events.PatientEvent) error {
	now := s.now().UTC()
	day := now.Truncate(24 * time.Hour)

	var d Delta
	switch ev.EventType {
	case events.KindCreated:
		d.Total = 1
		d.New = 1
		s.foldAge(&d, ev, now)
	case events.KindUpdated:
		// Every update counts as a fresh age sample; earlier samples from
		// the same patient are not retracted.
		s.foldAge(&d, ev, now)
	case events.KindDeleted:
		d.Total = -1
	default:
		s.log.Warn().
			Str("event_type", string(ev.EventType)).
			Str("patient_id", ev.PatientID).
			Msg("unknown event kind ignored")
		return nil
	}

	if _, err := s.repo.Apply(ctx, day, d); err != nil {
		return fmt.Errorf("apply %s for patient %s: %w", ev.EventType, ev.PatientID, err)
	}
	s.metrics.EventConsumed(ev.EventType.Label())
	return nil
}

func (s *Service) foldAge(d *Delta, ev events.PatientEvent, now time.Time) {
	dob, err := time.Parse(events.DateLayout, ev.DateOfBirth)
	if err != nil {
		s.log.Warn().
			Str("patient_id", ev.PatientID).
			Str("date_of_birth", ev.DateOfBirth).
			Msg("unparseable date of birth, age sample skipped")
		return
	}
	age := ageInYears(dob, now)
	if age < 0 {
		return
	}
	d.AgeSum = int64(age)
	d.AgeCount = 1
}

// Stats answers a range query by summing all matching buckets. Bounds are
// inclusive; omitting either bound widens the query to every bucket.
func (s *Service) Stats(ctx context.Context, fromDate, toDate string) (*AggregateStats, error) {
	from, err := parseBound(fromDate)
	if err != nil {
		return nil, err
	}
	to, err := parseBound(toDate)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, ErrInvalidRange
	}
	if from == nil || to == nil {
		from, to = nil, nil
	}

	buckets, err := s.repo.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return nil, ErrNoData
	}

	agg := &AggregateStats{FromDate: fromDate, ToDate: toDate}
	var ageSum, ageCount int64
	for _, b := range buckets {
		agg.TotalPatients += b.TotalPatients
		agg.NewPatients += b.NewPatients
		ageSum += b.AgeSum
		ageCount += b.AgeCount
	}
	if ageCount > 0 {
		agg.AverageAge = float64(ageSum) / float64(ageCount)
	}
	return agg, nil
}

func parseBound(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrInvalidRange, s)
	}
	return &t, nil
}

// ageInYears returns whole years between dob and now.
func ageInYears(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if dob.AddDate(years, 0, 0).After(now) {
		years--
	}
	return years
}
