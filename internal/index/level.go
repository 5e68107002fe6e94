package index

import "crspindex/internal/panel"

// Level is one point of a chained index level series.
type Level struct {
	Period string      `json:"period"`
	Value  panel.Float `json:"value"`
}

// ChainLevels compounds a monthly return series into an index level series,
// level[t] = level[t-1] * (1 + r[t]), starting from base. A missing return
// yields a missing level for that month and the chain resumes from the last
// valid level, so a single sparse month does not reset the series.
func ChainLevels(series []MonthlyValue, pick func(MonthlyValue) panel.Float, base float64) []Level {
	out := make([]Level, len(series))
	last := base
	for i, mv := range series {
		out[i].Period = mv.Period.Format("2006-01-02")
		r := pick(mv)
		if !r.Valid {
			continue
		}
		last = last * (1 + r.Float64)
		out[i].Value = panel.NewFloat(last)
	}
	return out
}

// ValueWeightedLevels chains the value-weighted with-distributions return
// starting from base, typically the reference index level in the month before
// the first computed period.
func ValueWeightedLevels(series []MonthlyValue, base float64) []Level {
	return ChainLevels(series, func(mv MonthlyValue) panel.Float { return mv.ValueWeightedRet }, base)
}
