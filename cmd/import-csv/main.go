package main

import (
	"context"
	"flag"
	"log"
	"time"

	"trendshub/internal/trendcsv"
	"trendshub/internal/trends"
	"trendshub/pkg/database"
	"trendshub/pkg/models"
)

func main() {
	var (
		in        = flag.String("in", "data/raw/google_trends.csv", "input long-format CSV (date,keyword,interest)")
		timeframe = flag.String("timeframe", trends.DefaultTimeframe, "timeframe the CSV was fetched with")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := trendcsv.ReadRecords(*in)
	if err != nil {
		log.Fatalf("read %s failed: %v", *in, err)
	}
	if len(records) == 0 {
		log.Printf("no data found at %s", *in)
		return
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	run := &models.FetchRun{Timeframe: *timeframe, Keywords: trends.KeywordsOf(records)}
	if err := trends.SaveRun(ctx, db, run, records); err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("✅ imported %d records from %s as run %s", len(records), *in, run.ID)
}
