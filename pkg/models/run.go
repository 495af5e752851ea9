package models

import "time"

// FetchRun describes one stored fetch invocation.
type FetchRun struct {
	ID          string    `json:"id"`
	Timeframe   string    `json:"timeframe"`
	Keywords    []string  `json:"keywords"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}
