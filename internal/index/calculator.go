// Package index aggregates a filtered security-month panel into monthly
// equal-weighted and value-weighted market return series.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"crspindex/internal/lag"
	"crspindex/internal/panel"
)

// WeightLagMonths is how far market-capitalization weights trail the return
// they weight. The value-weighted return for month t uses each security's
// market value at t-1 on that security's own calendar.
const WeightLagMonths = 1

// Calculator computes the monthly index series from a filtered panel.
type Calculator struct {
	logger *slog.Logger
}

// NewCalculator creates a calculator. A nil logger falls back to slog.Default.
func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{logger: logger}
}

// Compute produces the full monthly series: equal-weighted and value-weighted
// returns, each with and without distributions, one row per calendar month
// observed in the panel, sorted by period. Duplicate (entity, period) keys are
// a fatal precondition failure.
func (c *Calculator) Compute(ctx context.Context, obs []panel.Observation) ([]MonthlyValue, error) {
	start := time.Now()
	c.logger.InfoContext(ctx, "starting index computation",
		slog.Int("observations", len(obs)),
		slog.Int("weight_lag_months", WeightLagMonths),
	)

	if err := c.validate(obs); err != nil {
		c.logger.ErrorContext(ctx, "panel validation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("validate panel: %w", err)
	}

	weights, err := lag.Monthly(lag.MarketValuePoints(obs), WeightLagMonths)
	if err != nil {
		return nil, fmt.Errorf("lag market values: %w", err)
	}

	byPeriod := groupByPeriod(obs)
	periods := sortedPeriods(byPeriod)

	series := make([]MonthlyValue, 0, len(periods))
	for _, period := range periods {
		rows := byPeriod[period]
		mv := MonthlyValue{
			Period:            period,
			EqualWeightedRet:  equalWeighted(obs, rows, WithDistributions),
			EqualWeightedRetX: equalWeighted(obs, rows, WithoutDistributions),
			ValueWeightedRet:  valueWeighted(obs, weights, rows, WithDistributions),
			ValueWeightedRetX: valueWeighted(obs, weights, rows, WithoutDistributions),
		}
		series = append(series, mv)
	}

	c.logger.InfoContext(ctx, "index computation completed",
		slog.Int("periods", len(series)),
		slog.Duration("duration", time.Since(start)),
	)
	return series, nil
}

// ComputeEqualWeighted produces only the equal-weighted columns.
func (c *Calculator) ComputeEqualWeighted(ctx context.Context, obs []panel.Observation) ([]MonthlyValue, error) {
	if err := c.validate(obs); err != nil {
		return nil, fmt.Errorf("validate panel: %w", err)
	}
	byPeriod := groupByPeriod(obs)
	series := make([]MonthlyValue, 0, len(byPeriod))
	for _, period := range sortedPeriods(byPeriod) {
		rows := byPeriod[period]
		series = append(series, MonthlyValue{
			Period:            period,
			EqualWeightedRet:  equalWeighted(obs, rows, WithDistributions),
			EqualWeightedRetX: equalWeighted(obs, rows, WithoutDistributions),
		})
	}
	return series, nil
}

// ComputeValueWeighted produces only the value-weighted columns.
func (c *Calculator) ComputeValueWeighted(ctx context.Context, obs []panel.Observation) ([]MonthlyValue, error) {
	if err := c.validate(obs); err != nil {
		return nil, fmt.Errorf("validate panel: %w", err)
	}
	weights, err := lag.Monthly(lag.MarketValuePoints(obs), WeightLagMonths)
	if err != nil {
		return nil, fmt.Errorf("lag market values: %w", err)
	}
	byPeriod := groupByPeriod(obs)
	series := make([]MonthlyValue, 0, len(byPeriod))
	for _, period := range sortedPeriods(byPeriod) {
		rows := byPeriod[period]
		series = append(series, MonthlyValue{
			Period:            period,
			ValueWeightedRet:  valueWeighted(obs, weights, rows, WithDistributions),
			ValueWeightedRetX: valueWeighted(obs, weights, rows, WithoutDistributions),
		})
	}
	return series, nil
}

func (c *Calculator) validate(obs []panel.Observation) error {
	if len(obs) == 0 {
		return fmt.Errorf("empty panel")
	}
	if err := panel.ValidatePeriods(obs); err != nil {
		return err
	}
	return panel.ValidateUnique(obs)
}

// groupByPeriod maps each normalized period to the indices of its rows.
func groupByPeriod(obs []panel.Observation) map[time.Time][]int {
	byPeriod := make(map[time.Time][]int)
	for i, o := range obs {
		p := panel.NormalizePeriod(o.Period)
		byPeriod[p] = append(byPeriod[p], i)
	}
	return byPeriod
}

func sortedPeriods(byPeriod map[time.Time][]int) []time.Time {
	periods := make([]time.Time, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	return periods
}

// equalWeighted is the simple mean of the selected return over entities with a
// non-missing return in the period. Missing returns leave both numerator and
// denominator untouched; an empty set yields a missing index value.
func equalWeighted(obs []panel.Observation, rows []int, kind ReturnKind) panel.Float {
	sum := 0.0
	n := 0
	for _, i := range rows {
		r := returnField(obs[i], kind)
		if !r.Valid {
			continue
		}
		sum += r.Float64
		n++
	}
	if n == 0 {
		return panel.Missing()
	}
	return panel.NewFloat(sum / float64(n))
}

// valueWeighted sums weight*return over entities holding both a valid lagged
// market-value weight and a valid return, divided by the summed weights.
// Entities lacking a valid lagged weight are excluded entirely rather than
// entering with an implicit zero. A period with zero total weight yields a
// missing index value.
func valueWeighted(obs []panel.Observation, weights []panel.Float, rows []int, kind ReturnKind) panel.Float {
	num := 0.0
	den := 0.0
	for _, i := range rows {
		w := weights[i]
		r := returnField(obs[i], kind)
		if !w.Valid || !r.Valid {
			continue
		}
		num += w.Float64 * r.Float64
		den += w.Float64
	}
	if den == 0 {
		return panel.Missing()
	}
	return panel.NewFloat(num / den)
}
