package trends

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"trendshub/pkg/models"
)

// SaveRun stores one fetch run and its records in a single transaction.
// Records keep their slice order through the seq column. The run ID and
// creation time are filled in when empty.
func SaveRun(ctx context.Context, db *sql.DB, run *models.FetchRun, records []models.TrendRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.RecordCount = len(records)

	keywordsJSON, err := json.Marshal(run.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords for run %s: %w", run.ID, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO fetch_runs (id, timeframe, keywords, created_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Timeframe, string(keywordsJSON), run.CreatedAt); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trend_records (run_id, seq, date, keyword, interest)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(
			ctx,
			run.ID,
			i,
			r.Date.UTC().Format(time.RFC3339),
			r.Keyword,
			sql.NullFloat64{Float64: r.Interest, Valid: !math.IsNaN(r.Interest)},
		); err != nil {
			return fmt.Errorf("insert record %d of run %s: %w", i, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
