package trends

import (
	"context"
	"time"
)

// Point is a single provider sample for one keyword.
type Point struct {
	Time     time.Time
	Interest float64
}

// Provider is implemented by each interest-over-time backend. An empty,
// nil-error result means the provider had no data for the keyword.
type Provider interface {
	Name() string
	InterestOverTime(ctx context.Context, keyword, timeframe string) ([]Point, error)
}
