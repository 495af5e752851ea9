package main

import (
	"context"
	"flag"
	"log"
	"time"

	"trendshub/internal/reshape"
	"trendshub/internal/trendcsv"
	"trendshub/internal/trends"
	"trendshub/pkg/database"
	"trendshub/pkg/models"
)

func main() {
	var (
		runID    = flag.String("run", "", "run id to export (default: latest run)")
		out      = flag.String("out", "data/raw/google_trends.csv", "output CSV path for the long-format records")
		interest = flag.String("interest", "", "optional output path for the wide interest table")
		delta    = flag.String("delta", "", "optional output path for the delta table")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := trends.NewRepo(db)
	var (
		run *models.FetchRun
		err error
	)
	if *runID == "" {
		run, err = repo.LatestRun(ctx)
	} else {
		run, err = repo.GetRun(ctx, *runID)
	}
	if err != nil {
		log.Fatalf("load run failed: %v", err)
	}
	if run == nil {
		log.Printf("no stored run to export")
		return
	}

	records, err := repo.Records(ctx, run.ID)
	if err != nil {
		log.Fatalf("load records failed: %v", err)
	}
	if err := trendcsv.WriteRecords(*out, records); err != nil {
		log.Fatalf("export records failed: %v", err)
	}
	log.Printf("✅ exported run %s (%d records) to %s", run.ID, len(records), *out)

	if *interest == "" && *delta == "" {
		return
	}

	res, err := reshape.Build(records)
	if err != nil {
		log.Fatalf("reshape failed: %v", err)
	}
	if *interest != "" {
		if err := reshape.WriteWide(*interest, res.Wide); err != nil {
			log.Fatalf("export interest failed: %v", err)
		}
		log.Printf("✅ exported interest table to %s", *interest)
	}
	if *delta != "" {
		if err := reshape.WriteDeltas(*delta, res.Deltas); err != nil {
			log.Fatalf("export delta failed: %v", err)
		}
		log.Printf("✅ exported delta table to %s", *delta)
	}
}
