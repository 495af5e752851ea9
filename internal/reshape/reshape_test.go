package reshape

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendshub/pkg/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func scenarioRecords() []models.TrendRecord {
	return []models.TrendRecord{
		{Date: day("2024-01-01"), Keyword: "TSLA", Interest: 50},
		{Date: day("2024-01-02"), Keyword: "TSLA", Interest: 60},
		{Date: day("2024-01-01"), Keyword: "AAPL", Interest: 30},
		{Date: day("2024-01-02"), Keyword: "AAPL", Interest: 25},
	}
}

func TestPivotScenario(t *testing.T) {
	w, err := Pivot(scenarioRecords())
	require.NoError(t, err)

	require.Equal(t, []string{"TSLA", "AAPL"}, w.Keywords)
	require.Equal(t, []time.Time{day("2024-01-01"), day("2024-01-02")}, w.Dates)

	assert.Equal(t, 50.0, w.Values[0][0].Float64)
	assert.Equal(t, 30.0, w.Values[0][1].Float64)
	assert.Equal(t, 60.0, w.Values[1][0].Float64)
	assert.Equal(t, 25.0, w.Values[1][1].Float64)
}

func TestDeltaScenario(t *testing.T) {
	res, err := Build(scenarioRecords())
	require.NoError(t, err)
	require.Len(t, res.Deltas, 4)

	byKey := make(map[string]models.DeltaRecord)
	for _, d := range res.Deltas {
		byKey[d.Keyword+"@"+d.Date.Format("2006-01-02")] = d
	}

	assert.False(t, byKey["TSLA@2024-01-01"].Delta.Valid)
	assert.False(t, byKey["AAPL@2024-01-01"].Delta.Valid)

	tsla := byKey["TSLA@2024-01-02"].Delta
	require.True(t, tsla.Valid)
	assert.Equal(t, 10.0, tsla.Float64)

	aapl := byKey["AAPL@2024-01-02"].Delta
	require.True(t, aapl.Valid)
	assert.Equal(t, -5.0, aapl.Float64)
}

func TestMeltOrderGroupsByColumnThenDate(t *testing.T) {
	res, err := Build(scenarioRecords())
	require.NoError(t, err)

	var got []string
	for _, d := range res.Deltas {
		got = append(got, d.Keyword+"@"+d.Date.Format("2006-01-02"))
	}
	require.Equal(t, []string{
		"TSLA@2024-01-01", "TSLA@2024-01-02",
		"AAPL@2024-01-01", "AAPL@2024-01-02",
	}, got)
}

func TestPivotSortsByDateNotFileOrder(t *testing.T) {
	records := []models.TrendRecord{
		{Date: day("2024-01-03"), Keyword: "GME", Interest: 9},
		{Date: day("2024-01-01"), Keyword: "GME", Interest: 1},
		{Date: day("2024-01-02"), Keyword: "GME", Interest: 4},
	}
	res, err := Build(records)
	require.NoError(t, err)

	require.Equal(t, []time.Time{day("2024-01-01"), day("2024-01-02"), day("2024-01-03")}, res.Wide.Dates)
	require.False(t, res.Deltas[0].Delta.Valid)
	assert.Equal(t, 3.0, res.Deltas[1].Delta.Float64)
	assert.Equal(t, 5.0, res.Deltas[2].Delta.Float64)
}

func TestPivotDuplicateIsError(t *testing.T) {
	records := append(scenarioRecords(), models.TrendRecord{Date: day("2024-01-02"), Keyword: "AAPL", Interest: 99})

	_, err := Pivot(records)
	require.Error(t, err)

	var dup *DuplicateEntryError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "AAPL", dup.Keyword)
	assert.True(t, dup.Date.Equal(day("2024-01-02")))

	_, err = Build(records)
	require.True(t, errors.As(err, &dup))
}

func TestShapeMatchesDatesAndKeywords(t *testing.T) {
	keywords := []string{"a", "b", "c"}
	var records []models.TrendRecord
	for i := 0; i < 7; i++ {
		for k, kw := range keywords {
			records = append(records, models.TrendRecord{
				Date:     day("2024-03-01").AddDate(0, 0, i),
				Keyword:  kw,
				Interest: float64(i*k + 1),
			})
		}
	}

	w, err := Pivot(records)
	require.NoError(t, err)
	rows, cols := w.Shape()
	assert.Equal(t, 7, rows)
	assert.Equal(t, 3, cols)
}

func TestDiffCumSumRoundTrip(t *testing.T) {
	records := []models.TrendRecord{
		{Date: day("2024-01-04"), Keyword: "x", Interest: 12},
		{Date: day("2024-01-01"), Keyword: "x", Interest: 3},
		{Date: day("2024-01-02"), Keyword: "x", Interest: 8},
		{Date: day("2024-01-03"), Keyword: "x", Interest: 8},
		{Date: day("2024-01-01"), Keyword: "y", Interest: 100},
		{Date: day("2024-01-02"), Keyword: "y", Interest: 40},
		{Date: day("2024-01-03"), Keyword: "y", Interest: 0},
		{Date: day("2024-01-04"), Keyword: "y", Interest: 77},
	}
	w, err := Pivot(records)
	require.NoError(t, err)
	d := w.Diff()

	for j := range w.Keywords {
		acc := w.Values[0][j].Float64
		for i := 1; i < len(w.Dates); i++ {
			require.True(t, d.Values[i][j].Valid)
			acc += d.Values[i][j].Float64
			assert.Equal(t, w.Values[i][j].Float64, acc, "keyword %s row %d", w.Keywords[j], i)
		}
	}
}

func TestDiffMissingCellLeavesGap(t *testing.T) {
	records := []models.TrendRecord{
		{Date: day("2024-01-01"), Keyword: "a", Interest: 1},
		{Date: day("2024-01-02"), Keyword: "a", Interest: 2},
		{Date: day("2024-01-03"), Keyword: "a", Interest: 4},
		{Date: day("2024-01-01"), Keyword: "b", Interest: 10},
		{Date: day("2024-01-03"), Keyword: "b", Interest: 30},
	}
	w, err := Pivot(records)
	require.NoError(t, err)
	require.False(t, w.Values[1][1].Valid)

	d := w.Diff()
	assert.False(t, d.Values[1][1].Valid)
	assert.False(t, d.Values[2][1].Valid)
	assert.Equal(t, 2.0, d.Values[2][0].Float64)
}

func TestBuildEmpty(t *testing.T) {
	_, err := Build(nil)
	require.ErrorIs(t, err, ErrNoData)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestProcessWritesBothTables(t *testing.T) {
	dir := t.TempDir()
	p := Paths{
		Raw:      filepath.Join(dir, "raw.csv"),
		Interest: filepath.Join(dir, "processed", "interest.csv"),
		Delta:    filepath.Join(dir, "processed", "nested", "delta.csv"),
	}
	writeFile(t, p.Raw, strings.Join([]string{
		"date,keyword,interest",
		"2024-01-02,TSLA,60",
		"2024-01-01,TSLA,50",
		"2024-01-01,AAPL,30",
		"2024-01-02,AAPL,25",
	}, "\n")+"\n")

	_, err := Process(p)
	require.NoError(t, err)

	interest, err := os.ReadFile(p.Interest)
	require.NoError(t, err)
	assert.Equal(t, "date,TSLA,AAPL\n2024-01-01,50,30\n2024-01-02,60,25\n", string(interest))

	delta, err := os.ReadFile(p.Delta)
	require.NoError(t, err)
	assert.Equal(t, "date,keyword,interest_delta\n"+
		"2024-01-01,TSLA,\n"+
		"2024-01-02,TSLA,10\n"+
		"2024-01-01,AAPL,\n"+
		"2024-01-02,AAPL,-5\n", string(delta))
}

func TestProcessEmptyInputWritesNothing(t *testing.T) {
	for name, body := range map[string]string{
		"zero bytes":  "",
		"header only": "date,keyword,interest\n",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			p := Paths{
				Raw:      filepath.Join(dir, "raw.csv"),
				Interest: filepath.Join(dir, "out", "interest.csv"),
				Delta:    filepath.Join(dir, "out", "delta.csv"),
			}
			writeFile(t, p.Raw, body)

			_, err := Process(p)
			require.ErrorIs(t, err, ErrNoData)
			assert.NoFileExists(t, p.Interest)
			assert.NoFileExists(t, p.Delta)
		})
	}
}

func TestProcessMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := Process(Paths{
		Raw:      filepath.Join(dir, "absent.csv"),
		Interest: filepath.Join(dir, "i.csv"),
		Delta:    filepath.Join(dir, "d.csv"),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestProcessDuplicateInput(t *testing.T) {
	dir := t.TempDir()
	p := Paths{
		Raw:      filepath.Join(dir, "raw.csv"),
		Interest: filepath.Join(dir, "i.csv"),
		Delta:    filepath.Join(dir, "d.csv"),
	}
	writeFile(t, p.Raw, "date,keyword,interest\n2024-01-01,TSLA,50\n2024-01-01,TSLA,51\n")

	_, err := Process(p)
	var dup *DuplicateEntryError
	require.True(t, errors.As(err, &dup))
	assert.NoFileExists(t, p.Interest)
}

func TestProcessEmptyInterestCellIsMissing(t *testing.T) {
	dir := t.TempDir()
	p := Paths{
		Raw:      filepath.Join(dir, "raw.csv"),
		Interest: filepath.Join(dir, "interest.csv"),
		Delta:    filepath.Join(dir, "delta.csv"),
	}
	writeFile(t, p.Raw, strings.Join([]string{
		"date,keyword,interest",
		"2024-01-01,TSLA,50",
		"2024-01-02,TSLA,",
		"2024-01-03,TSLA,70",
		"2024-01-01,GME,",
	}, "\n")+"\n")

	res, err := Process(p)
	require.NoError(t, err)
	rows, cols := res.Wide.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)

	interest, err := os.ReadFile(p.Interest)
	require.NoError(t, err)
	assert.Equal(t, "date,TSLA,GME\n2024-01-01,50,\n2024-01-02,,\n2024-01-03,70,\n", string(interest))

	delta, err := os.ReadFile(p.Delta)
	require.NoError(t, err)
	assert.Equal(t, "date,keyword,interest_delta\n"+
		"2024-01-01,TSLA,\n"+
		"2024-01-02,TSLA,\n"+
		"2024-01-03,TSLA,\n"+
		"2024-01-01,GME,\n"+
		"2024-01-02,GME,\n"+
		"2024-01-03,GME,\n", string(delta))
}

func TestPivotMissingValueStillCountsAsDuplicate(t *testing.T) {
	_, err := Pivot([]models.TrendRecord{
		{Date: day("2024-01-01"), Keyword: "TSLA", Interest: math.NaN()},
		{Date: day("2024-01-01"), Keyword: "TSLA", Interest: 5},
	})
	var dup *DuplicateEntryError
	require.True(t, errors.As(err, &dup))
}
