// Package report compares the computed index series against an externally
// supplied reference series: pairwise Pearson correlation, cumulative returns
// and a plain-text summary for the report CLI.
package report

import (
	"fmt"
	"math"

	"crspindex/internal/panel"
)

// PearsonCorrelation computes the Pearson correlation over pairwise-complete
// observations: positions where either series is missing are skipped. Returns
// the correlation and the number of pairs used. Fewer than two complete pairs,
// or a zero-variance series, is an error.
func PearsonCorrelation(x, y []panel.Float) (float64, int, error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("correlation: length mismatch %d vs %d", len(x), len(y))
	}

	var xs, ys []float64
	for i := range x {
		if !x[i].Valid || !y[i].Valid {
			continue
		}
		xs = append(xs, x[i].Float64)
		ys = append(ys, y[i].Float64)
	}
	n := len(xs)
	if n < 2 {
		return 0, n, fmt.Errorf("correlation: need at least 2 complete pairs, have %d", n)
	}

	meanX, meanY := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, n, fmt.Errorf("correlation: zero variance series")
	}
	return cov / math.Sqrt(varX*varY), n, nil
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// CumulativeReturns compounds a return series into gross cumulative returns,
// cum[t] = Π(1 + r[i]) for i <= t. Missing returns yield a missing point and
// the product resumes from the last valid value.
func CumulativeReturns(returns []panel.Float) []panel.Float {
	out := make([]panel.Float, len(returns))
	prod := 1.0
	for i, r := range returns {
		if !r.Valid {
			continue
		}
		prod *= 1 + r.Float64
		out[i] = panel.NewFloat(prod)
	}
	return out
}
