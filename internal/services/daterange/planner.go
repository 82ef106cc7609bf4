// Package daterange expands a target date and period into the daily dates
// a prediction covers.
package daterange

import (
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	"FinCast/pkg/util"
)

// DayRadius is the number of days on each side of the target for PeriodDay.
const DayRadius = 7

// Bounds returns the inclusive first and last date of the window.
func Bounds(target time.Time, p models.Period) (time.Time, time.Time, error) {
	target = util.DateOf(target)
	switch p {
	case models.PeriodDay:
		return target.AddDate(0, 0, -DayRadius), target.AddDate(0, 0, DayRadius), nil
	case models.PeriodMonth:
		first := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first, first.AddDate(0, 1, 0).AddDate(0, 0, -1), nil
	case models.PeriodYear:
		return time.Date(target.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(target.Year(), time.December, 31, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidPeriod, string(p))
	}
}

// Plan returns every date of the window in ascending order, one day apart.
// The result always contains target.
func Plan(target time.Time, p models.Period) ([]time.Time, error) {
	start, end, err := Bounds(target, p)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out, nil
}
