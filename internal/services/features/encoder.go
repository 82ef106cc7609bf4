// Package features turns calendar dates into model inputs.
//
// The feature order returned by Names is shared by training and prediction
// and is written into every model artifact; never reorder it without
// retraining every entity.
package features

import (
	"time"

	"FinCast/internal/domain/models"
	"FinCast/pkg/util"
)

const (
	OrdinalDate = "ordinal_date"
	Year        = "year"
	Month       = "month"
	DayOfWeek   = "day_of_week"
)

var names = [...]string{OrdinalDate, Year, Month, DayOfWeek}

// Width is the number of features per date.
const Width = len(names)

// Names returns the canonical feature order.
func Names() []string {
	out := make([]string, Width)
	copy(out, names[:])
	return out
}

// SameLayout reports whether got is exactly the canonical feature order.
func SameLayout(got []string) bool {
	if len(got) != Width {
		return false
	}
	for i, n := range names {
		if got[i] != n {
			return false
		}
	}
	return true
}

// Encode computes the feature vector of d's calendar date.
func Encode(d time.Time) models.FeatureVector {
	d = util.DateOf(d)
	return models.FeatureVector{
		OrdinalDate: util.Ordinal(d),
		Year:        d.Year(),
		Month:       int(d.Month()),
		DayOfWeek:   (int(d.Weekday()) + 6) % 7,
	}
}

// EncodeBatch encodes each date independently, preserving order.
func EncodeBatch(dates []time.Time) []models.FeatureVector {
	out := make([]models.FeatureVector, len(dates))
	for i, d := range dates {
		out[i] = Encode(d)
	}
	return out
}

// Row renders v in canonical order.
func Row(v models.FeatureVector) []float64 {
	return []float64{float64(v.OrdinalDate), float64(v.Year), float64(v.Month), float64(v.DayOfWeek)}
}

// Matrix encodes dates into a rows x Width matrix in canonical order.
func Matrix(dates []time.Time) [][]float64 {
	vs := EncodeBatch(dates)
	out := make([][]float64, len(vs))
	for i, v := range vs {
		out[i] = Row(v)
	}
	return out
}
