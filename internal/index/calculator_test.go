package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crspindex/internal/panel"
)

func date(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// row builds an observation with both return kinds set to ret and a market
// value of price*shares.
func row(entity int, period time.Time, ret, price, shares float64) panel.Observation {
	return panel.Observation{
		EntityID:  entity,
		Period:    period,
		Ret:       panel.NewFloat(ret),
		RetX:      panel.NewFloat(ret),
		Price:     panel.NewFloat(price),
		SharesOut: panel.NewFloat(shares),
	}
}

func findPeriod(t *testing.T, series []MonthlyValue, period time.Time) MonthlyValue {
	t.Helper()
	for _, mv := range series {
		if mv.Period.Equal(period) {
			return mv
		}
	}
	t.Fatalf("period %s not in series", period.Format("2006-01"))
	return MonthlyValue{}
}

func TestEqualWeighted(t *testing.T) {
	t.Run("missing returns excluded from numerator and denominator", func(t *testing.T) {
		obs := []panel.Observation{
			row(1, date(2023, 1), 0.01, 10, 100),
			row(2, date(2023, 1), 0.03, 10, 100),
			{EntityID: 3, Period: date(2023, 1), Price: panel.NewFloat(10), SharesOut: panel.NewFloat(100)},
		}

		series, err := NewCalculator(nil).ComputeEqualWeighted(context.Background(), obs)
		require.NoError(t, err)
		mv := findPeriod(t, series, date(2023, 1))

		require.True(t, mv.EqualWeightedRet.Valid)
		assert.InDelta(t, 0.02, mv.EqualWeightedRet.Float64, 1e-12, "mean of 0.01 and 0.03, missing excluded")
	})

	t.Run("all returns missing yields missing index value", func(t *testing.T) {
		obs := []panel.Observation{
			{EntityID: 1, Period: date(2023, 1)},
			{EntityID: 2, Period: date(2023, 1)},
		}

		series, err := NewCalculator(nil).ComputeEqualWeighted(context.Background(), obs)
		require.NoError(t, err)
		mv := findPeriod(t, series, date(2023, 1))
		assert.False(t, mv.EqualWeightedRet.Valid)
		assert.False(t, mv.EqualWeightedRetX.Valid)
	})
}

func TestValueWeighted(t *testing.T) {
	t.Run("weights are prior-month market values", func(t *testing.T) {
		// January establishes the weights: A at 100, B at 300.
		obs := []panel.Observation{
			row(1, date(2023, 1), 0.00, 1, 100),
			row(2, date(2023, 1), 0.00, 3, 100),
			row(1, date(2023, 2), 0.10, 1, 100),
			row(2, date(2023, 2), 0.02, 3, 100),
		}

		series, err := NewCalculator(nil).ComputeValueWeighted(context.Background(), obs)
		require.NoError(t, err)

		feb := findPeriod(t, series, date(2023, 2))
		require.True(t, feb.ValueWeightedRet.Valid)
		assert.InDelta(t, 0.04, feb.ValueWeightedRet.Float64, 1e-12,
			"(100*0.10 + 300*0.02) / 400")

		jan := findPeriod(t, series, date(2023, 1))
		assert.False(t, jan.ValueWeightedRet.Valid, "first observed month has no lagged weight")
	})

	t.Run("negative prices enter weights absoluted", func(t *testing.T) {
		obs := []panel.Observation{
			row(1, date(2023, 1), 0.00, -1, 100),
			row(2, date(2023, 1), 0.00, 3, 100),
			row(1, date(2023, 2), 0.10, 1, 100),
			row(2, date(2023, 2), 0.02, 3, 100),
		}

		series, err := NewCalculator(nil).ComputeValueWeighted(context.Background(), obs)
		require.NoError(t, err)
		feb := findPeriod(t, series, date(2023, 2))
		assert.InDelta(t, 0.04, feb.ValueWeightedRet.Float64, 1e-12)
	})

	t.Run("entity without lagged weight excluded entirely", func(t *testing.T) {
		// Entity 3 first appears in February: its 0.50 return must not leak
		// into February's value-weighted figure with an implicit zero weight,
		// nor dilute the denominator.
		obs := []panel.Observation{
			row(1, date(2023, 1), 0.00, 1, 100),
			row(2, date(2023, 1), 0.00, 3, 100),
			row(1, date(2023, 2), 0.10, 1, 100),
			row(2, date(2023, 2), 0.02, 3, 100),
			row(3, date(2023, 2), 0.50, 9, 100),
		}

		series, err := NewCalculator(nil).ComputeValueWeighted(context.Background(), obs)
		require.NoError(t, err)
		feb := findPeriod(t, series, date(2023, 2))
		assert.InDelta(t, 0.04, feb.ValueWeightedRet.Float64, 1e-12)
	})

	t.Run("gap month resets the weight", func(t *testing.T) {
		// Entity 1 misses February; in March its January market value is two
		// months stale and must not serve as the one-month lag.
		obs := []panel.Observation{
			row(1, date(2023, 1), 0.00, 1, 100),
			row(2, date(2023, 1), 0.00, 3, 100),
			row(2, date(2023, 2), 0.00, 3, 100),
			row(1, date(2023, 3), 0.10, 1, 100),
			row(2, date(2023, 3), 0.02, 3, 100),
		}

		series, err := NewCalculator(nil).ComputeValueWeighted(context.Background(), obs)
		require.NoError(t, err)
		mar := findPeriod(t, series, date(2023, 3))
		require.True(t, mar.ValueWeightedRet.Valid)
		assert.InDelta(t, 0.02, mar.ValueWeightedRet.Float64, 1e-12,
			"only entity 2 carries a valid one-month lagged weight in March")
	})

	t.Run("zero total weight yields missing value", func(t *testing.T) {
		// Single month: nobody has a lagged weight.
		obs := []panel.Observation{
			row(1, date(2023, 1), 0.10, 1, 100),
			row(2, date(2023, 1), 0.02, 3, 100),
		}

		series, err := NewCalculator(nil).ComputeValueWeighted(context.Background(), obs)
		require.NoError(t, err)
		jan := findPeriod(t, series, date(2023, 1))
		assert.False(t, jan.ValueWeightedRet.Valid)
		assert.False(t, jan.ValueWeightedRetX.Valid)
	})

	t.Run("missing return excludes the entity's weight too", func(t *testing.T) {
		obs := []panel.Observation{
			row(1, date(2023, 1), 0.00, 1, 100),
			row(2, date(2023, 1), 0.00, 3, 100),
			row(1, date(2023, 2), 0.10, 1, 100),
			{
				EntityID: 2, Period: date(2023, 2),
				Price: panel.NewFloat(3), SharesOut: panel.NewFloat(100),
			},
		}

		series, err := NewCalculator(nil).ComputeValueWeighted(context.Background(), obs)
		require.NoError(t, err)
		feb := findPeriod(t, series, date(2023, 2))
		require.True(t, feb.ValueWeightedRet.Valid)
		assert.InDelta(t, 0.10, feb.ValueWeightedRet.Float64, 1e-12,
			"entity 2 drops from both numerator and denominator")
	})
}

func TestComputeBothKinds(t *testing.T) {
	// ret and retx differ; the weight (lagged market value) is shared.
	obs := []panel.Observation{
		row(1, date(2023, 1), 0.00, 1, 100),
		row(2, date(2023, 1), 0.00, 3, 100),
		{
			EntityID: 1, Period: date(2023, 2),
			Ret: panel.NewFloat(0.10), RetX: panel.NewFloat(0.08),
			Price: panel.NewFloat(1), SharesOut: panel.NewFloat(100),
		},
		{
			EntityID: 2, Period: date(2023, 2),
			Ret: panel.NewFloat(0.02), RetX: panel.NewFloat(0.01),
			Price: panel.NewFloat(3), SharesOut: panel.NewFloat(100),
		},
	}

	series, err := NewCalculator(nil).Compute(context.Background(), obs)
	require.NoError(t, err)
	feb := findPeriod(t, series, date(2023, 2))

	assert.InDelta(t, 0.04, feb.ValueWeightedRet.Float64, 1e-12)
	assert.InDelta(t, (100*0.08+300*0.01)/400.0, feb.ValueWeightedRetX.Float64, 1e-12)
	assert.InDelta(t, 0.06, feb.EqualWeightedRet.Float64, 1e-12)
	assert.InDelta(t, 0.045, feb.EqualWeightedRetX.Float64, 1e-12)
}

func TestComputeSeriesSorted(t *testing.T) {
	obs := []panel.Observation{
		row(1, date(2023, 3), 0.01, 1, 100),
		row(1, date(2023, 1), 0.01, 1, 100),
		row(1, date(2023, 2), 0.01, 1, 100),
	}

	series, err := NewCalculator(nil).Compute(context.Background(), obs)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.True(t, series[0].Period.Before(series[1].Period))
	assert.True(t, series[1].Period.Before(series[2].Period))
}

func TestComputePreconditions(t *testing.T) {
	t.Run("empty panel", func(t *testing.T) {
		_, err := NewCalculator(nil).Compute(context.Background(), nil)
		assert.Error(t, err)
	})

	t.Run("duplicate keys are fatal", func(t *testing.T) {
		obs := []panel.Observation{
			row(1, date(2023, 1), 0.01, 1, 100),
			row(1, date(2023, 1), 0.02, 1, 100),
		}
		_, err := NewCalculator(nil).Compute(context.Background(), obs)
		require.Error(t, err)

		var dupErr *panel.DuplicateKeyError
		assert.ErrorAs(t, err, &dupErr)
	})

	t.Run("off-grid periods are fatal", func(t *testing.T) {
		obs := []panel.Observation{{
			EntityID: 1,
			Period:   time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
			Ret:      panel.NewFloat(0.01),
		}}
		_, err := NewCalculator(nil).Compute(context.Background(), obs)
		assert.Error(t, err)
	})
}
