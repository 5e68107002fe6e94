package exporter

import (
	"strconv"

	"crspindex/internal/index"
	"crspindex/internal/panel"
	"crspindex/internal/report"
)

// monthlyHeaders name the computed columns distinctly from any reference
// series so the files can be merged side by side.
var monthlyHeaders = []string{
	"date",
	"ew_ret_computed",
	"ew_retx_computed",
	"vw_ret_computed",
	"vw_retx_computed",
}

var comparisonHeaders = []string{
	"date",
	"ew_ret_computed",
	"vw_ret_computed",
	"ret_reported",
	"vw_cumret_computed",
	"cumret_reported",
}

// WriteMonthlySeries writes the four computed return columns, one row per
// calendar month. Missing values render as empty cells.
func WriteMonthlySeries(series []index.MonthlyValue, path string) error {
	records := make([][]string, len(series))
	for i, mv := range series {
		records[i] = []string{
			mv.Period.Format("2006-01-02"),
			formatFloat(mv.EqualWeightedRet),
			formatFloat(mv.EqualWeightedRetX),
			formatFloat(mv.ValueWeightedRet),
			formatFloat(mv.ValueWeightedRetX),
		}
	}
	return WriteCSV(path, WriteOptions{Headers: monthlyHeaders, Records: records, BOMPrefix: true})
}

// WriteComparison writes the aligned computed-vs-reported table.
func WriteComparison(cmp *report.Comparison, path string) error {
	records := make([][]string, len(cmp.Rows))
	for i, row := range cmp.Rows {
		records[i] = []string{
			row.Period.Format("2006-01-02"),
			formatFloat(row.EqualWeightedRet),
			formatFloat(row.ValueWeightedRet),
			formatFloat(row.ReferenceRet),
			formatFloat(row.ComputedCumulative),
			formatFloat(row.ReferenceCumul),
		}
	}
	return WriteCSV(path, WriteOptions{Headers: comparisonHeaders, Records: records, BOMPrefix: true})
}

// formatFloat renders a nullable float for CSV; missing values are empty.
func formatFloat(f panel.Float) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', 6, 64)
}
