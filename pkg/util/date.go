package util

import (
	"strings"
	"time"
)

// DateLayout is the ISO 8601 calendar date layout used on the wire.
const DateLayout = "2006-01-02"

// unixEpochOrdinal is the proleptic Gregorian ordinal of 1970-01-01,
// counting 0001-01-01 as day 1.
const unixEpochOrdinal = 719163

// dayFirstLayouts are tried in order when reading dataset dates.
var dayFirstLayouts = []string{
	DateLayout,
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"2-1-2006",
	"2/1/2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses a strict ISO calendar date (YYYY-MM-DD) to midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDayFirst parses the loose date spellings found in exported price
// histories, preferring day-before-month when ambiguous. The time of day,
// if any, is dropped.
func ParseDayFirst(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return time.Time{}, false
}

// DateOf truncates t to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// Ordinal returns the proleptic Gregorian day number of t's date.
func Ordinal(t time.Time) int64 {
	secs := DateOf(t).Unix()
	days := secs / 86400
	if secs%86400 != 0 && secs < 0 {
		days--
	}
	return days + unixEpochOrdinal
}

// SameDate compares calendar dates, ignoring time of day and zone.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
