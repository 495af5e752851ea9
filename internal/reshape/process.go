package reshape

import (
	"errors"
	"fmt"
	"log"

	"trendshub/internal/trendcsv"
	"trendshub/pkg/models"
)

const (
	DefaultRawPath      = "data/raw/google_trends.csv"
	DefaultInterestPath = "data/processed/google_trends_interest.csv"
	DefaultDeltaPath    = "data/processed/google_trends_delta.csv"
)

// ErrNoData is returned when the input CSV holds no records.
var ErrNoData = errors.New("no data found")

var DeltaHeader = []string{"date", "keyword", "interest_delta"}

type Paths struct {
	Raw      string
	Interest string
	Delta    string
}

func DefaultPaths() Paths {
	return Paths{Raw: DefaultRawPath, Interest: DefaultInterestPath, Delta: DefaultDeltaPath}
}

type Result struct {
	Wide   *Wide
	Deltas []models.DeltaRecord
}

// Build pivots the records and computes the melted deltas.
func Build(records []models.TrendRecord) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}
	wide, err := Pivot(records)
	if err != nil {
		return nil, fmt.Errorf("pivot: %w", err)
	}
	return &Result{Wide: wide, Deltas: wide.Diff().Melt()}, nil
}

// Process reads p.Raw and writes the interest and delta tables. Nothing is
// written when the input is empty.
func Process(p Paths) (*Result, error) {
	records, err := trendcsv.ReadRecords(p.Raw)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.Raw, err)
	}
	if len(records) == 0 {
		log.Printf("[reshape] no data found at %s", p.Raw)
		return nil, ErrNoData
	}

	res, err := Build(records)
	if err != nil {
		return nil, err
	}
	rows, cols := res.Wide.Shape()
	log.Printf("[reshape] pivoted to wide format: %d rows x %d keywords", rows, cols)
	log.Printf("[reshape] computed deltas: %d total records", len(res.Deltas))

	if err := WriteWide(p.Interest, res.Wide); err != nil {
		return nil, fmt.Errorf("write %s: %w", p.Interest, err)
	}
	if err := WriteDeltas(p.Delta, res.Deltas); err != nil {
		return nil, fmt.Errorf("write %s: %w", p.Delta, err)
	}
	log.Printf("[reshape] wrote interest data to %s", p.Interest)
	log.Printf("[reshape] wrote delta data to %s", p.Delta)
	return res, nil
}

func WriteWide(path string, w *Wide) error {
	header := append([]string{"date"}, w.Keywords...)
	rows := make([][]string, 0, len(w.Dates))
	for i, d := range w.Dates {
		row := make([]string, 0, len(header))
		row = append(row, trendcsv.FormatDate(d))
		for _, v := range w.Values[i] {
			row = append(row, formatNull(v.Float64, v.Valid))
		}
		rows = append(rows, row)
	}
	return trendcsv.WriteTable(path, header, rows)
}

func WriteDeltas(path string, deltas []models.DeltaRecord) error {
	rows := make([][]string, 0, len(deltas))
	for _, d := range deltas {
		rows = append(rows, []string{
			trendcsv.FormatDate(d.Date),
			d.Keyword,
			formatNull(d.Delta.Float64, d.Delta.Valid),
		})
	}
	return trendcsv.WriteTable(path, DeltaHeader, rows)
}

func formatNull(v float64, valid bool) string {
	if !valid {
		return ""
	}
	return trendcsv.FormatValue(v)
}
