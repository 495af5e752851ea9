package trends

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"trendshub/pkg/models"
)

// DefaultTimeframe is the provider window used when none is given.
const DefaultTimeframe = "today 12-m"

// ErrNoData is returned when no keyword produced any rows.
var ErrNoData = errors.New("no trend data fetched for any keyword")

// Progress types reported to Fetcher.OnProgress.
const (
	ProgressStarted  = "fetch_started"
	ProgressKeyword  = "keyword_fetched"
	ProgressEmpty    = "keyword_empty"
	ProgressFinished = "fetch_finished"
	ProgressFailed   = "fetch_failed"
)

type Progress struct {
	Type      string `json:"type"`
	Keyword   string `json:"keyword,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	Rows      int    `json:"rows"`
	Error     string `json:"error,omitempty"`
}

// Fetcher queries a Provider once per keyword and concatenates the results
// into a single long-format table.
type Fetcher struct {
	Provider   Provider
	OnProgress func(Progress)
}

func NewFetcher(p Provider) *Fetcher {
	return &Fetcher{Provider: p}
}

// Fetch runs the keywords sequentially. Keywords the provider returns nothing
// for are skipped; any provider error aborts the whole batch.
func (f *Fetcher) Fetch(ctx context.Context, keywords []string, timeframe string) ([]models.TrendRecord, error) {
	keywords = NormalizeKeywords(keywords)
	if len(keywords) == 0 {
		return nil, errors.New("fetch: at least one keyword is required")
	}
	if strings.TrimSpace(timeframe) == "" {
		timeframe = DefaultTimeframe
	}

	f.report(Progress{Type: ProgressStarted, Timeframe: timeframe})

	var all []models.TrendRecord
	for _, kw := range keywords {
		log.Printf("[fetch] fetching %s trends for %q (%s)", f.Provider.Name(), kw, timeframe)
		points, err := f.Provider.InterestOverTime(ctx, kw, timeframe)
		if err != nil {
			err = fmt.Errorf("fetch %q: %w", kw, err)
			f.report(Progress{Type: ProgressFailed, Keyword: kw, Rows: len(all), Error: err.Error()})
			return nil, err
		}
		if len(points) == 0 {
			log.Printf("[fetch] no data returned for %q", kw)
			f.report(Progress{Type: ProgressEmpty, Keyword: kw})
			continue
		}

		for _, p := range points {
			all = append(all, models.TrendRecord{
				Date:     p.Time,
				Keyword:  kw,
				Interest: p.Interest,
			})
		}
		f.report(Progress{Type: ProgressKeyword, Keyword: kw, Rows: len(points)})
	}

	if len(all) == 0 {
		log.Printf("[fetch] no trend data fetched for any keyword")
		f.report(Progress{Type: ProgressFailed, Timeframe: timeframe, Error: ErrNoData.Error()})
		return nil, ErrNoData
	}

	f.report(Progress{Type: ProgressFinished, Timeframe: timeframe, Rows: len(all)})
	return all, nil
}

func (f *Fetcher) report(p Progress) {
	if f.OnProgress != nil {
		f.OnProgress(p)
	}
}

// NormalizeKeywords splits comma-separated values, trims whitespace and drops
// empty entries. First-seen order is kept; repeats are dropped.
func NormalizeKeywords(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, kw := range strings.Split(r, ",") {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			out = appendIfMissing(out, kw)
		}
	}
	return out
}

func appendIfMissing(slice []string, v string) []string {
	for _, x := range slice {
		if x == v {
			return slice
		}
	}
	return append(slice, v)
}

// KeywordsOf lists the distinct keywords of records in first-seen order.
func KeywordsOf(records []models.TrendRecord) []string {
	var out []string
	for _, r := range records {
		out = appendIfMissing(out, r.Keyword)
	}
	return out
}
