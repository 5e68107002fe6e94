package lag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crspindex/internal/panel"
)

func date(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func point(entity int, period time.Time, value float64) Point {
	return Point{EntityID: entity, Period: period, Value: panel.NewFloat(value)}
}

func TestMonthlyContiguous(t *testing.T) {
	points := []Point{
		point(1, date(2023, 1), 100),
		point(1, date(2023, 2), 110),
		point(1, date(2023, 3), 120),
	}

	lagged, err := Monthly(points, 1)
	require.NoError(t, err)
	require.Len(t, lagged, 3)

	assert.False(t, lagged[0].Valid, "first observed period has no prior value")
	assert.Equal(t, panel.NewFloat(100), lagged[1])
	assert.Equal(t, panel.NewFloat(110), lagged[2])
}

// The gap case is the canonical regression distinguishing a calendar-aware
// lag from a naive positional shift: with observations at Jan, Feb, Mar and
// May (Apr missing), the May row must not inherit March's value.
func TestMonthlyGap(t *testing.T) {
	points := []Point{
		point(1, date(2023, 1), 100),
		point(1, date(2023, 2), 110),
		point(1, date(2023, 3), 120),
		point(1, date(2023, 5), 140),
	}

	lagged, err := Monthly(points, 1)
	require.NoError(t, err)
	require.Len(t, lagged, 4)

	assert.False(t, lagged[0].Valid)
	assert.Equal(t, panel.NewFloat(100), lagged[1])
	assert.Equal(t, panel.NewFloat(110), lagged[2])
	assert.False(t, lagged[3].Valid, "April is absent from the entity's calendar, so May has no one-month lag")
}

func TestMonthlyNoCrossEntityLeakage(t *testing.T) {
	// Entities interleaved in arbitrary row order; a positional shift over
	// the flat slice would mix their values.
	points := []Point{
		point(2, date(2023, 2), 900),
		point(1, date(2023, 1), 100),
		point(2, date(2023, 1), 800),
		point(1, date(2023, 2), 200),
	}

	lagged, err := Monthly(points, 1)
	require.NoError(t, err)
	require.Len(t, lagged, 4)

	assert.Equal(t, panel.NewFloat(800), lagged[0], "entity 2 Feb lags from entity 2 Jan")
	assert.False(t, lagged[1].Valid, "entity 1 Jan has no prior")
	assert.False(t, lagged[2].Valid, "entity 2 Jan has no prior")
	assert.Equal(t, panel.NewFloat(100), lagged[3], "entity 1 Feb lags from entity 1 Jan")
}

func TestMonthlyMultiPeriodLag(t *testing.T) {
	points := []Point{
		point(1, date(2023, 1), 100),
		point(1, date(2023, 2), 110),
		point(1, date(2023, 3), 120),
		point(1, date(2023, 4), 130),
	}

	lagged, err := Monthly(points, 2)
	require.NoError(t, err)

	assert.False(t, lagged[0].Valid)
	assert.False(t, lagged[1].Valid)
	assert.Equal(t, panel.NewFloat(100), lagged[2])
	assert.Equal(t, panel.NewFloat(110), lagged[3])
}

func TestMonthlyAcrossYearBoundary(t *testing.T) {
	points := []Point{
		point(1, date(2022, 12), 100),
		point(1, date(2023, 1), 110),
	}

	lagged, err := Monthly(points, 1)
	require.NoError(t, err)
	assert.Equal(t, panel.NewFloat(100), lagged[1])
}

func TestMonthlyMissingValuePropagates(t *testing.T) {
	points := []Point{
		{EntityID: 1, Period: date(2023, 1), Value: panel.Missing()},
		point(1, date(2023, 2), 110),
	}

	lagged, err := Monthly(points, 1)
	require.NoError(t, err)
	assert.False(t, lagged[1].Valid, "a missing prior value lags as missing, not zero")
}

func TestMonthlyNormalizesPeriods(t *testing.T) {
	points := []Point{
		{EntityID: 1, Period: time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), Value: panel.NewFloat(100)},
		{EntityID: 1, Period: time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), Value: panel.NewFloat(110)},
	}

	lagged, err := Monthly(points, 1)
	require.NoError(t, err)
	assert.Equal(t, panel.NewFloat(100), lagged[1], "month-end stamps align to the same monthly grid")
}

func TestMonthlyErrors(t *testing.T) {
	t.Run("lag below one", func(t *testing.T) {
		_, err := Monthly([]Point{point(1, date(2023, 1), 100)}, 0)
		assert.Error(t, err)
	})

	t.Run("duplicate grid point", func(t *testing.T) {
		points := []Point{
			point(1, date(2023, 1), 100),
			point(1, date(2023, 1), 200),
		}
		_, err := Monthly(points, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate observation")
	})
}

func TestMonthlyPreservesInputOrder(t *testing.T) {
	points := []Point{
		point(1, date(2023, 3), 120),
		point(1, date(2023, 1), 100),
		point(1, date(2023, 2), 110),
	}

	lagged, err := Monthly(points, 1)
	require.NoError(t, err)
	require.Len(t, lagged, 3)

	// Output is aligned with the unsorted input, not re-sorted.
	assert.Equal(t, panel.NewFloat(110), lagged[0])
	assert.False(t, lagged[1].Valid)
	assert.Equal(t, panel.NewFloat(100), lagged[2])
}

func TestMarketValuePoints(t *testing.T) {
	obs := []panel.Observation{
		{EntityID: 1, Period: date(2023, 1), Price: panel.NewFloat(-10), SharesOut: panel.NewFloat(50)},
		{EntityID: 2, Period: date(2023, 1), Price: panel.Missing(), SharesOut: panel.NewFloat(50)},
	}

	points := MarketValuePoints(obs)
	require.Len(t, points, 2)
	assert.Equal(t, panel.NewFloat(500), points[0].Value)
	assert.False(t, points[1].Value.Valid)
}
