// Package trendcsv reads and writes the long-format trend CSV
// (date,keyword,interest) and the small helpers the reshaped tables share.
package trendcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"trendshub/pkg/models"
)

var RecordHeader = []string{"date", "keyword", "interest"}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// FormatDate writes midnight timestamps as a bare date, everything else with
// a time of day.
func FormatDate(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}

func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{dateLayout, dateTimeLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// FormatValue renders v in its shortest form; NaN renders as an empty field.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteTable creates the parent directory of path and writes header + rows.
func WriteTable(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func WriteRecords(path string, records []models.TrendRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{FormatDate(r.Date), r.Keyword, FormatValue(r.Interest)})
	}
	return WriteTable(path, RecordHeader, rows)
}

// ReadRecords loads a long-format CSV. A zero-byte or header-only file yields
// no records and no error; a missing file is an error.
func ReadRecords(path string) ([]models.TrendRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeRecords(f)
}

func DecodeRecords(src io.Reader) ([]models.TrendRecord, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, col := range RecordHeader {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var out []models.TrendRecord
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		date, err := ParseDate(valueAt(header, row, "date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		keyword := valueAt(header, row, "keyword")
		if keyword == "" {
			return nil, fmt.Errorf("line %d: empty keyword", line)
		}
		interest, err := parseInterest(valueAt(header, row, "interest"))
		if err != nil {
			return nil, fmt.Errorf("line %d: parse interest: %w", line, err)
		}

		out = append(out, models.TrendRecord{Date: date, Keyword: keyword, Interest: interest})
	}
	return out, nil
}

// parseInterest reads an empty cell as a missing value (NaN).
func parseInterest(raw string) (float64, error) {
	if raw == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(raw, 64)
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
