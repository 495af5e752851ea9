package main

import (
	"errors"
	"flag"
	"log"

	"trendshub/internal/reshape"
)

func main() {
	var (
		raw      = flag.String("input", reshape.DefaultRawPath, "long-format trends CSV (date,keyword,interest)")
		interest = flag.String("interest", reshape.DefaultInterestPath, "output path for the wide interest table")
		delta    = flag.String("delta", reshape.DefaultDeltaPath, "output path for the melted delta table")
	)
	flag.Parse()

	_, err := reshape.Process(reshape.Paths{Raw: *raw, Interest: *interest, Delta: *delta})
	if errors.Is(err, reshape.ErrNoData) {
		return
	}
	if err != nil {
		log.Fatalf("process failed: %v", err)
	}

	log.Printf("✅ wrote %s and %s", *interest, *delta)
}
