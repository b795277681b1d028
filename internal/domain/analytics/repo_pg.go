package analytics

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const statsCols = `stat_date, total_patients, new_patients, age_sum, age_count`

const applyStmt = `
	INSERT INTO daily_stats (stat_date, total_patients, new_patients, age_sum, age_count)
	VALUES ($1, GREATEST($2, 0), $3, $4, $5)
	ON CONFLICT (stat_date) DO UPDATE SET
		total_patients = GREATEST(daily_stats.total_patients + $2, 0),
		new_patients   = daily_stats.new_patients + $3,
		age_sum        = daily_stats.age_sum + $4,
		age_count      = daily_stats.age_count + $5,
		updated_at     = NOW()
	RETURNING ` + statsCols

// Apply is a single upsert so concurrent consumers adjusting the same bucket
// serialize on the row, not in the application.
func (r *repoPG) Apply(ctx context.Context, day time.Time, d Delta) (*DailyStats, error) {
	var s DailyStats
	err := r.pool.QueryRow(ctx, applyStmt,
		day, d.Total, d.New, d.AgeSum, d.AgeCount).
		Scan(&s.Date, &s.TotalPatients, &s.NewPatients, &s.AgeSum, &s.AgeCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Range(ctx context.Context, from, to *time.Time) ([]*DailyStats, error) {
	var conds []string
	var args []interface{}
	if from != nil {
		args = append(args, *from)
		conds = append(conds, `stat_date >= $1`)
	}
	if to != nil {
		args = append(args, *to)
		if len(args) == 1 {
			conds = append(conds, `stat_date <= $1`)
		} else {
			conds = append(conds, `stat_date <= $2`)
		}
	}
	query := `SELECT ` + statsCols + ` FROM daily_stats`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY stat_date`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*DailyStats
	for rows.Next() {
		var s DailyStats
		if err := rows.Scan(&s.Date, &s.TotalPatients, &s.NewPatients, &s.AgeSum, &s.AgeCount); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}
