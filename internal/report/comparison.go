package report

import (
	"fmt"
	"io"
	"time"

	"crspindex/internal/dataset"
	"crspindex/internal/index"
	"crspindex/internal/panel"
)

// Row is one month of the comparison table: computed returns aligned with the
// reference series on the calendar period.
type Row struct {
	Period             time.Time   `json:"period"`
	EqualWeightedRet   panel.Float `json:"ew_ret_computed"`
	ValueWeightedRet   panel.Float `json:"vw_ret_computed"`
	ReferenceRet       panel.Float `json:"ret_reported"`
	ComputedCumulative panel.Float `json:"vw_cumret_computed"`
	ReferenceCumul     panel.Float `json:"cumret_reported"`
}

// Comparison aligns the computed monthly series with the reference series and
// summarizes their agreement.
type Comparison struct {
	Rows []Row `json:"rows"`

	// VWCorrelation is the Pearson correlation between the computed
	// value-weighted return and the reference return over complete pairs.
	VWCorrelation float64 `json:"vw_correlation"`
	// EWCorrelation is the same for the equal-weighted return.
	EWCorrelation float64 `json:"ew_correlation"`
	// Pairs is the number of complete pairs in the value-weighted comparison.
	Pairs int `json:"pairs"`
}

// Compare intersects the computed series with the reference series on the
// calendar period and computes the correlation statistics. Months present in
// only one series are dropped from the table.
func Compare(series []index.MonthlyValue, ref []dataset.ReferencePoint) (*Comparison, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("compare: empty computed series")
	}
	refByPeriod := make(map[time.Time]dataset.ReferencePoint, len(ref))
	for _, p := range ref {
		refByPeriod[p.Period] = p
	}

	cmp := &Comparison{}
	var computedVW, computedEW, reported []panel.Float
	for _, mv := range series {
		rp, ok := refByPeriod[mv.Period]
		if !ok {
			continue
		}
		cmp.Rows = append(cmp.Rows, Row{
			Period:           mv.Period,
			EqualWeightedRet: mv.EqualWeightedRet,
			ValueWeightedRet: mv.ValueWeightedRet,
			ReferenceRet:     rp.Ret,
		})
		computedVW = append(computedVW, mv.ValueWeightedRet)
		computedEW = append(computedEW, mv.EqualWeightedRet)
		reported = append(reported, rp.Ret)
	}
	if len(cmp.Rows) == 0 {
		return nil, fmt.Errorf("compare: computed and reference series share no periods")
	}

	vwCum := CumulativeReturns(computedVW)
	refCum := CumulativeReturns(reported)
	for i := range cmp.Rows {
		cmp.Rows[i].ComputedCumulative = vwCum[i]
		cmp.Rows[i].ReferenceCumul = refCum[i]
	}

	var err error
	cmp.VWCorrelation, cmp.Pairs, err = PearsonCorrelation(computedVW, reported)
	if err != nil {
		return nil, fmt.Errorf("value-weighted correlation: %w", err)
	}
	if cmp.EWCorrelation, _, err = PearsonCorrelation(computedEW, reported); err != nil {
		return nil, fmt.Errorf("equal-weighted correlation: %w", err)
	}
	return cmp, nil
}

// WriteSummary prints the comparison statistics as a plain-text report.
func (c *Comparison) WriteSummary(w io.Writer) error {
	first := c.Rows[0].Period.Format("2006-01")
	last := c.Rows[len(c.Rows)-1].Period.Format("2006-01")

	_, err := fmt.Fprintf(w, `=== INDEX REPLICATION SUMMARY ===
Period range:            %s .. %s
Months compared:         %d
Complete return pairs:   %d
VW return correlation:   %.4f
EW return correlation:   %.4f
`, first, last, len(c.Rows), c.Pairs, c.VWCorrelation, c.EWCorrelation)
	return err
}
