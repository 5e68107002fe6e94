// Package lag shifts per-entity time series along a canonical monthly grid.
//
// A panel that interleaves many securities in one flat slice cannot be lagged
// with a positional shift: consecutive rows may belong to different entities,
// and one entity's consecutive rows may be separated by a gap in calendar
// time. Both cases must yield a missing lag, never a value borrowed from a
// neighboring row. This package partitions by entity, aligns each partition to
// its own monthly calendar, and resolves the lag by exact grid match.
package lag

import (
	"fmt"
	"time"

	"crspindex/internal/panel"
)

// Point is one (entity, period, value) observation.
type Point struct {
	EntityID int
	Period   time.Time
	Value    panel.Float
}

// Monthly returns the k-month lagged values aligned index-for-index with the
// input. The result at position i holds the value the same entity recorded
// exactly k calendar months before points[i].Period, or missing when that grid
// point is absent from the entity's observation calendar. Input order and
// length are preserved; the input is not mutated.
func Monthly(points []Point, k int) ([]panel.Float, error) {
	if k < 1 {
		return nil, fmt.Errorf("lag: k must be >= 1, got %d", k)
	}

	// Per-entity calendar: normalized period -> value. Duplicate grid points
	// make the lag ambiguous and violate the one-row-per-(entity, period)
	// panel invariant.
	calendars := make(map[int]map[time.Time]panel.Float)
	for _, p := range points {
		period := panel.NormalizePeriod(p.Period)
		cal, ok := calendars[p.EntityID]
		if !ok {
			cal = make(map[time.Time]panel.Float)
			calendars[p.EntityID] = cal
		}
		if _, dup := cal[period]; dup {
			return nil, fmt.Errorf("lag: duplicate observation for entity %d at %s",
				p.EntityID, period.Format("2006-01"))
		}
		cal[period] = p.Value
	}

	out := make([]panel.Float, len(points))
	for i, p := range points {
		target := panel.NormalizePeriod(p.Period).AddDate(0, -k, 0)
		if v, ok := calendars[p.EntityID][target]; ok {
			out[i] = v
		}
	}
	return out, nil
}

// MarketValuePoints projects a panel into lag points carrying each
// observation's market value, in panel order.
func MarketValuePoints(obs []panel.Observation) []Point {
	points := make([]Point, len(obs))
	for i, o := range obs {
		points[i] = Point{EntityID: o.EntityID, Period: o.Period, Value: o.MarketValue()}
	}
	return points
}
