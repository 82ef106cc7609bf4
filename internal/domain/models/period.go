package models

import (
	"fmt"
	"strings"
)

// Period selects the date-range policy around a target date.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Periods lists every accepted period tag.
func Periods() []Period { return []Period{PeriodDay, PeriodMonth, PeriodYear} }

// ParsePeriod accepts exactly "day", "month" or "year".
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDay, PeriodMonth, PeriodYear:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrInvalidPeriod, s, periodList())
	}
}

func periodList() string {
	ps := Periods()
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return strings.Join(out, ", ")
}
