package trends

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"trendshub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	Limit  int
	Offset int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const runColumns = `
	SELECT r.id, r.timeframe, r.keywords, r.created_at,
	       (SELECT COUNT(*) FROM trend_records t WHERE t.run_id = r.id)
	FROM fetch_runs r
`

// GetRun returns nil, nil when the run does not exist.
func (r *Repo) GetRun(ctx context.Context, id string) (*models.FetchRun, error) {
	row := r.DB.QueryRowContext(ctx, runColumns+` WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getRun: %w", err)
	}
	return run, nil
}

// LatestRun returns nil, nil when nothing has been stored yet.
func (r *Repo) LatestRun(ctx context.Context) (*models.FetchRun, error) {
	row := r.DB.QueryRowContext(ctx, runColumns+` ORDER BY r.created_at DESC, r.rowid DESC LIMIT 1`)
	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan latestRun: %w", err)
	}
	return run, nil
}

func (r *Repo) CountRuns(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM fetch_runs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

// ListRuns returns runs newest first.
func (r *Repo) ListRuns(ctx context.Context, q ListQuery) ([]models.FetchRun, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, runColumns+` ORDER BY r.created_at DESC, r.rowid DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.FetchRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Records returns the run's records in the order they were saved.
func (r *Repo) Records(ctx context.Context, runID string) ([]models.TrendRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT date, keyword, interest
		FROM trend_records
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("records query: %w", err)
	}
	defer rows.Close()

	var out []models.TrendRecord
	for rows.Next() {
		var (
			rec      models.TrendRecord
			date     string
			interest sql.NullFloat64
		)
		if err := rows.Scan(&date, &rec.Keyword, &interest); err != nil {
			return nil, fmt.Errorf("records scan: %w", err)
		}
		rec.Interest = math.NaN()
		if interest.Valid {
			rec.Interest = interest.Float64
		}
		rec.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("parse record date %q: %w", date, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*models.FetchRun, error) {
	var (
		run          models.FetchRun
		keywordsJSON string
	)
	if err := s.Scan(&run.ID, &run.Timeframe, &keywordsJSON, &run.CreatedAt, &run.RecordCount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &run.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords of run %s: %w", run.ID, err)
	}
	return &run, nil
}
