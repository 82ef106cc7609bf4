package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestEncodeKnownDate(t *testing.T) {
	// 2025-03-15 is a Saturday.
	got := Encode(date(2025, 3, 15))
	assert.Equal(t, models.FeatureVector{OrdinalDate: 739325, Year: 2025, Month: 3, DayOfWeek: 5}, got)

	// Monday is zero.
	assert.Equal(t, 0, Encode(date(2025, 3, 10)).DayOfWeek)
	assert.Equal(t, 6, Encode(date(2025, 3, 16)).DayOfWeek)
}

func TestEncodeIgnoresTimeOfDay(t *testing.T) {
	d := date(2024, 2, 29)
	assert.Equal(t, Encode(d), Encode(d.Add(23*time.Hour+59*time.Minute)))
}

func TestEncodeDeterministic(t *testing.T) {
	d := date(1999, 12, 31)
	for i := 0; i < 10; i++ {
		require.Equal(t, Encode(d), Encode(d))
	}
}

func TestOrdinalStrictlyMonotonic(t *testing.T) {
	prev := Encode(date(1899, 12, 25))
	for d := date(1899, 12, 26); d.Before(date(2101, 1, 10)); d = d.AddDate(0, 0, 1) {
		cur := Encode(d)
		require.Less(t, prev.OrdinalDate, cur.OrdinalDate, "at %s", d.Format("2006-01-02"))
		require.Equal(t, int64(1), cur.OrdinalDate-prev.OrdinalDate)
		prev = cur
	}
}

func TestEncodeBatchMatchesEncode(t *testing.T) {
	dates := []time.Time{date(2024, 1, 1), date(2020, 6, 15), date(2024, 12, 31)}
	batch := EncodeBatch(dates)
	require.Len(t, batch, len(dates))
	for i, d := range dates {
		assert.Equal(t, Encode(d), batch[i])
	}
	assert.Empty(t, EncodeBatch(nil))
}

func TestMatrixUsesCanonicalOrder(t *testing.T) {
	m := Matrix([]time.Time{date(2025, 3, 15)})
	require.Len(t, m, 1)
	assert.Equal(t, []float64{739325, 2025, 3, 5}, m[0])
	assert.Equal(t, []string{"ordinal_date", "year", "month", "day_of_week"}, Names())
}

func TestNamesReturnsCopy(t *testing.T) {
	n := Names()
	n[0] = "mutated"
	assert.Equal(t, OrdinalDate, Names()[0])
	assert.True(t, SameLayout(Names()))
	assert.False(t, SameLayout(n))
	assert.False(t, SameLayout([]string{Year, OrdinalDate, Month, DayOfWeek}))
}
