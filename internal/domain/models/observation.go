package models

import "time"

// Observation is one cleaned dataset row: a calendar date and its closing value.
type Observation struct {
	Date  time.Time
	Close float64
}

// Dataset identifies one trainable unit discovered by a dataset source.
type Dataset struct {
	Key      string // entity key, file name without extension
	Location string // file path or table reference, for logs only
}

// FeatureVector is the calendar encoding of a single date.
type FeatureVector struct {
	OrdinalDate int64
	Year        int
	Month       int
	DayOfWeek   int // Monday = 0
}
