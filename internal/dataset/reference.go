package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"crspindex/internal/panel"
)

// ReferencePoint is one month of the externally reported index series the
// computed series is validated against.
type ReferencePoint struct {
	Period time.Time   `json:"period"`
	Ret    panel.Float `json:"ret_reported"`
	Level  panel.Float `json:"level_reported"`
}

// reference series column names; "caldt"/"sprtrn"/"spindx" follow the
// provider's monthly index file, the generic names cover hand-built files.
var (
	refDateColumns  = []string{"caldt", "date"}
	refRetColumns   = []string{"sprtrn", "ret", "return"}
	refLevelColumns = []string{"spindx", "level", "index"}
)

// LoadReferenceSeries reads the reference index series. The format follows
// the file extension: .csv is parsed directly, .xlsx is read through the
// first sheet of the workbook (header row plus data rows, same column names).
func (l *Loader) LoadReferenceSeries(ctx context.Context) ([]ReferencePoint, error) {
	start := time.Now()

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(l.referencePath)); ext {
	case ".csv":
		rows, err = readCSVRows(l.referencePath)
	case ".xlsx":
		rows, err = readWorkbookRows(l.referencePath)
	default:
		return nil, fmt.Errorf("reference series: unsupported format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read reference series: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("reference series: no data rows in %s", l.referencePath)
	}

	header := rows[0]
	dateIdx := findColumn(header, refDateColumns)
	retIdx := findColumn(header, refRetColumns)
	levelIdx := findColumn(header, refLevelColumns)
	if dateIdx < 0 || retIdx < 0 {
		return nil, fmt.Errorf("reference series schema: need date and return columns, have %v", header)
	}

	ref := make([]ReferencePoint, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) <= dateIdx || strings.TrimSpace(row[dateIdx]) == "" {
			continue
		}
		date, err := parseDate(row[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("reference series row %d: parse date %q: %w", n+2, row[dateIdx], err)
		}
		p := ReferencePoint{Period: panel.NormalizePeriod(date)}
		if retIdx < len(row) {
			v, err := parseNullable(row[retIdx])
			if err != nil {
				return nil, fmt.Errorf("reference series row %d: parse return %q: %w", n+2, row[retIdx], err)
			}
			p.Ret = v
		}
		if levelIdx >= 0 && levelIdx < len(row) {
			v, err := parseNullable(row[levelIdx])
			if err != nil {
				return nil, fmt.Errorf("reference series row %d: parse level %q: %w", n+2, row[levelIdx], err)
			}
			p.Level = v
		}
		ref = append(ref, p)
	}

	l.logger.InfoContext(ctx, "loaded reference series",
		slog.String("path", l.referencePath),
		slog.Int("rows", len(ref)),
		slog.Duration("duration", time.Since(start)),
	)
	return ref, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readWorkbookRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}
