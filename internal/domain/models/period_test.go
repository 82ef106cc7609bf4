package models

import (
	"errors"
	"testing"
)

func TestParsePeriod(t *testing.T) {
	for _, p := range Periods() {
		got, err := ParsePeriod(string(p))
		if err != nil {
			t.Fatalf("ParsePeriod(%q): %v", p, err)
		}
		if got != p {
			t.Fatalf("ParsePeriod(%q) = %q", p, got)
		}
	}

	for _, s := range []string{"", "week", "Day", " month", "years"} {
		if _, err := ParsePeriod(s); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("ParsePeriod(%q) err = %v, want ErrInvalidPeriod", s, err)
		}
	}
}
