package reshape

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"trendshub/pkg/models"
)

// DuplicateEntryError reports a (date, keyword) pair seen more than once.
type DuplicateEntryError struct {
	Date    time.Time
	Keyword string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("duplicate entry for keyword %q on %s", e.Keyword, e.Date.UTC().Format(time.RFC3339))
}

// Wide is a date-indexed table with one column per keyword. Values is
// indexed [row][column]; cells with no observation are invalid.
type Wide struct {
	Dates    []time.Time
	Keywords []string
	Values   [][]sql.NullFloat64
}

// Shape returns (rows, columns).
func (w *Wide) Shape() (int, int) {
	return len(w.Dates), len(w.Keywords)
}

// Pivot turns long records into a Wide table sorted by date ascending.
// Columns follow the order in which keywords first appear. NaN interests
// still claim their (date, keyword) cell but leave it missing.
func Pivot(records []models.TrendRecord) (*Wide, error) {
	w := &Wide{}
	colOf := make(map[string]int)
	rowOf := make(map[int64]int)
	type cell struct {
		row, col int
		value    float64
	}
	cells := make([]cell, 0, len(records))
	seen := make(map[[2]int]struct{}, len(records))

	for _, r := range records {
		col, ok := colOf[r.Keyword]
		if !ok {
			col = len(w.Keywords)
			colOf[r.Keyword] = col
			w.Keywords = append(w.Keywords, r.Keyword)
		}
		key := r.Date.UnixNano()
		row, ok := rowOf[key]
		if !ok {
			row = len(w.Dates)
			rowOf[key] = row
			w.Dates = append(w.Dates, r.Date.UTC())
		}
		if _, dup := seen[[2]int{row, col}]; dup {
			return nil, &DuplicateEntryError{Date: r.Date, Keyword: r.Keyword}
		}
		seen[[2]int{row, col}] = struct{}{}
		cells = append(cells, cell{row: row, col: col, value: r.Interest})
	}

	// order rows chronologically and remap the cells onto the sorted rows
	order := make([]int, len(w.Dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return w.Dates[order[a]].Before(w.Dates[order[b]])
	})
	sortedDates := make([]time.Time, len(order))
	newRow := make([]int, len(order))
	for pos, old := range order {
		sortedDates[pos] = w.Dates[old]
		newRow[old] = pos
	}
	w.Dates = sortedDates

	w.Values = make([][]sql.NullFloat64, len(w.Dates))
	for i := range w.Values {
		w.Values[i] = make([]sql.NullFloat64, len(w.Keywords))
	}
	for _, c := range cells {
		w.Values[newRow[c.row]][c.col] = sql.NullFloat64{Float64: c.value, Valid: !math.IsNaN(c.value)}
	}
	return w, nil
}

// Diff returns the row-over-row difference of w. The first row, and any cell
// whose own or preceding value is missing, is invalid in the result.
func (w *Wide) Diff() *Wide {
	out := &Wide{
		Dates:    append([]time.Time(nil), w.Dates...),
		Keywords: append([]string(nil), w.Keywords...),
		Values:   make([][]sql.NullFloat64, len(w.Values)),
	}
	for i := range w.Values {
		out.Values[i] = make([]sql.NullFloat64, len(w.Keywords))
		if i == 0 {
			continue
		}
		for j := range w.Keywords {
			prev, cur := w.Values[i-1][j], w.Values[i][j]
			if prev.Valid && cur.Valid {
				out.Values[i][j] = sql.NullFloat64{Float64: cur.Float64 - prev.Float64, Valid: true}
			}
		}
	}
	return out
}

// Melt flattens w back to long format, column by column and then by date.
func (w *Wide) Melt() []models.DeltaRecord {
	out := make([]models.DeltaRecord, 0, len(w.Dates)*len(w.Keywords))
	for j, kw := range w.Keywords {
		for i, d := range w.Dates {
			out = append(out, models.DeltaRecord{
				Date:    d,
				Keyword: kw,
				Delta:   w.Values[i][j],
			})
		}
	}
	return out
}
