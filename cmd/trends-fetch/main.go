package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"trendshub/internal/trendcsv"
	"trendshub/internal/trends"
	"trendshub/pkg/database"
	"trendshub/pkg/models"
	"trendshub/pkg/utils"
)

// keywordList collects --keywords values; each value may hold several
// comma-separated keywords and the flag may be repeated.
type keywordList []string

func (k *keywordList) String() string { return strings.Join(*k, ",") }

func (k *keywordList) Set(v string) error {
	*k = append(*k, v)
	return nil
}

type options struct {
	Keywords  []string
	Timeframe string
	Output    string
	Save      bool
	DBPath    string
}

var errNoKeywords = errors.New("at least one keyword is required")

// parseArgs accepts keywords as a space-separated list after --keywords
// (or anywhere between flags), so flags following the list still apply.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("trends-fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var keywords keywordList
	fs.Var(&keywords, "keywords", "keywords or tickers, space- or comma-separated, repeatable (e.g. --keywords TSLA AAPL GME)")
	var (
		timeframe = fs.String("timeframe", trends.DefaultTimeframe, "provider timeframe (e.g. 'today 12-m', 'now 7-d')")
		output    = fs.String("output", "data/raw/google_trends.csv", "path to write the CSV")
		save      = fs.Bool("save", false, "also store the run in the sqlite database")
		dbPath    = fs.String("db", "", "sqlite path for --save (default TRENDS_DB_PATH or ~/.trendshub/data.db)")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: trends-fetch --keywords TSLA AAPL [--timeframe 'now 7-d'] [--output path] [flags]\n")
		fs.PrintDefaults()
	}

	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return options{}, err
		}
		consumed := rest[:len(rest)-len(fs.Args())]
		rest = fs.Args()
		// everything after a "--" terminator is a keyword
		if n := len(consumed); n > 0 && consumed[n-1] == "--" {
			keywords = append(keywords, rest...)
			break
		}
		for len(rest) > 0 && !isFlag(rest[0]) {
			keywords = append(keywords, rest[0])
			rest = rest[1:]
		}
		if len(rest) == 0 {
			break
		}
	}

	opts := options{
		Keywords:  trends.NormalizeKeywords(keywords),
		Timeframe: *timeframe,
		Output:    *output,
		Save:      *save,
		DBPath:    *dbPath,
	}
	if len(opts.Keywords) == 0 {
		fs.Usage()
		return options{}, errNoKeywords
	}
	return opts, nil
}

func isFlag(arg string) bool {
	return len(arg) > 1 && arg[0] == '-'
}

// run fetches, writes the CSV and optionally stores the run. No data is not
// an error: it is logged and nothing is written.
func run(ctx context.Context, opts options, provider trends.Provider) error {
	records, err := trends.NewFetcher(provider).Fetch(ctx, opts.Keywords, opts.Timeframe)
	if errors.Is(err, trends.ErrNoData) {
		log.Printf("no data to save, exiting")
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if err := trendcsv.WriteRecords(opts.Output, records); err != nil {
		return fmt.Errorf("write %s failed: %w", opts.Output, err)
	}
	log.Printf("✅ saved %d trend records to %s", len(records), opts.Output)

	if !opts.Save && opts.DBPath == "" {
		return nil
	}

	cfg := database.DefaultConfig()
	if opts.DBPath != "" {
		cfg.Path = opts.DBPath
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("db migrate failed: %w", err)
	}

	fr := &models.FetchRun{Timeframe: opts.Timeframe, Keywords: opts.Keywords}
	if err := trends.SaveRun(ctx, db, fr, records); err != nil {
		return fmt.Errorf("save run failed: %w", err)
	}
	log.Printf("✅ stored run %s in %s", fr.ID, cfg.Path)
	return nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		if !errors.Is(err, errNoKeywords) {
			log.Printf("%v", err)
		}
		os.Exit(2)
	}

	provider := trends.NewGoogleTrends(utils.LoadTrendsConfig())
	if err := run(context.Background(), opts, provider); err != nil {
		log.Fatalf("%v", err)
	}
}
