package models

import (
	"database/sql"
	"time"
)

// TrendRecord is one interest-over-time observation for a single keyword.
// Long-format tables are ordered slices of TrendRecord. Interest is NaN when
// the observation is missing.
type TrendRecord struct {
	Date     time.Time `json:"date"`
	Keyword  string    `json:"keyword"`
	Interest float64   `json:"interest"`
}

// DeltaRecord is one row of the melted delta table. Delta is invalid for the
// first date of every keyword and wherever either neighbouring cell is missing.
type DeltaRecord struct {
	Date    time.Time       `json:"date"`
	Keyword string          `json:"keyword"`
	Delta   sql.NullFloat64 `json:"-"`
}
