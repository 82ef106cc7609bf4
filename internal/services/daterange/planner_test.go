package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func requireContiguous(t *testing.T, dates []time.Time) {
	t.Helper()
	require.NotEmpty(t, dates)
	for i := 1; i < len(dates); i++ {
		require.Equal(t, dates[i-1].AddDate(0, 0, 1), dates[i], "gap after %s", dates[i-1].Format("2006-01-02"))
	}
}

func TestPlanDay(t *testing.T) {
	d := date(2025, 3, 15)
	got, err := Plan(d, models.PeriodDay)
	require.NoError(t, err)
	require.Len(t, got, 15)
	assert.Equal(t, date(2025, 3, 8), got[0])
	assert.Equal(t, date(2025, 3, 22), got[14])
	assert.Equal(t, d, got[7])
	requireContiguous(t, got)
}

func TestPlanDayCrossesYearBoundary(t *testing.T) {
	got, err := Plan(date(2024, 1, 3), models.PeriodDay)
	require.NoError(t, err)
	assert.Equal(t, date(2023, 12, 27), got[0])
	assert.Equal(t, date(2024, 1, 10), got[len(got)-1])
	requireContiguous(t, got)
}

func TestPlanMonth(t *testing.T) {
	cases := []struct {
		target time.Time
		last   time.Time
		n      int
	}{
		{date(2024, 2, 10), date(2024, 2, 29), 29},
		{date(2023, 2, 10), date(2023, 2, 28), 28},
		{date(1900, 2, 1), date(1900, 2, 28), 28},
		{date(2000, 2, 29), date(2000, 2, 29), 29},
		{date(2025, 12, 31), date(2025, 12, 31), 31},
		{date(2025, 4, 1), date(2025, 4, 30), 30},
	}
	for _, tc := range cases {
		got, err := Plan(tc.target, models.PeriodMonth)
		require.NoError(t, err)
		require.Len(t, got, tc.n, tc.target.Format("2006-01-02"))
		assert.Equal(t, 1, got[0].Day())
		assert.Equal(t, tc.target.Month(), got[0].Month())
		assert.Equal(t, tc.last, got[len(got)-1])
		requireContiguous(t, got)
	}
}

func TestPlanYear(t *testing.T) {
	leap, err := Plan(date(2024, 6, 1), models.PeriodYear)
	require.NoError(t, err)
	assert.Len(t, leap, 366)
	assert.Equal(t, date(2024, 1, 1), leap[0])
	assert.Equal(t, date(2024, 12, 31), leap[365])
	requireContiguous(t, leap)

	common, err := Plan(date(2023, 6, 1), models.PeriodYear)
	require.NoError(t, err)
	assert.Len(t, common, 365)
}

func TestPlanAlwaysContainsTarget(t *testing.T) {
	for d := date(2023, 12, 1); d.Before(date(2025, 3, 1)); d = d.AddDate(0, 0, 3) {
		for _, p := range models.Periods() {
			got, err := Plan(d, p)
			require.NoError(t, err)
			assert.Contains(t, got, d, "%s %s", p, d.Format("2006-01-02"))
		}
	}
}

func TestPlanTruncatesTimeOfDay(t *testing.T) {
	got, err := Plan(date(2025, 3, 15).Add(13*time.Hour), models.PeriodDay)
	require.NoError(t, err)
	assert.Contains(t, got, date(2025, 3, 15))
}

func TestPlanInvalidPeriod(t *testing.T) {
	for _, p := range []models.Period{"", "week", "Day", "YEAR"} {
		got, err := Plan(date(2025, 3, 15), p)
		require.ErrorIs(t, err, models.ErrInvalidPeriod)
		assert.Nil(t, got)
	}
}
