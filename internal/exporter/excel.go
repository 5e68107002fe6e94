package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"crspindex/internal/index"
	"crspindex/internal/panel"
	"crspindex/internal/report"
)

// WriteWorkbook writes the computed series and the comparison into one Excel
// workbook with a "Monthly Returns" sheet, a "Comparison" sheet and a
// "Summary" sheet holding the correlation statistics.
func WriteWorkbook(series []index.MonthlyValue, cmp *report.Comparison, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const returnsSheet = "Monthly Returns"
	f.SetSheetName(f.GetSheetName(0), returnsSheet)
	writeRow(f, returnsSheet, 1, toCells(monthlyHeaders))
	for i, mv := range series {
		writeRow(f, returnsSheet, i+2, []interface{}{
			mv.Period.Format("2006-01-02"),
			cell(mv.EqualWeightedRet),
			cell(mv.EqualWeightedRetX),
			cell(mv.ValueWeightedRet),
			cell(mv.ValueWeightedRetX),
		})
	}

	const cmpSheet = "Comparison"
	if _, err := f.NewSheet(cmpSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", cmpSheet, err)
	}
	writeRow(f, cmpSheet, 1, toCells(comparisonHeaders))
	for i, row := range cmp.Rows {
		writeRow(f, cmpSheet, i+2, []interface{}{
			row.Period.Format("2006-01-02"),
			cell(row.EqualWeightedRet),
			cell(row.ValueWeightedRet),
			cell(row.ReferenceRet),
			cell(row.ComputedCumulative),
			cell(row.ReferenceCumul),
		})
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", summarySheet, err)
	}
	writeRow(f, summarySheet, 1, []interface{}{"metric", "value"})
	writeRow(f, summarySheet, 2, []interface{}{"months_compared", len(cmp.Rows)})
	writeRow(f, summarySheet, 3, []interface{}{"complete_pairs", cmp.Pairs})
	writeRow(f, summarySheet, 4, []interface{}{"vw_correlation", cmp.VWCorrelation})
	writeRow(f, summarySheet, 5, []interface{}{"ew_correlation", cmp.EWCorrelation})

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	slog.Info("Wrote Excel workbook",
		slog.String("path", path),
		slog.Int("months", len(series)))
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	addr, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, addr, &values)
}

func toCells(headers []string) []interface{} {
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}

// cell converts a nullable float to an Excel cell value; missing becomes an
// empty cell rather than zero.
func cell(f panel.Float) interface{} {
	if !f.Valid {
		return nil
	}
	return f.Float64
}
