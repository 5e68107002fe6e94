package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"crspindex/internal/panel"
)

// Loader reads the monthly security file and the reference index series.
type Loader struct {
	stockPath     string
	referencePath string
	logger        *slog.Logger
}

// NewLoader creates a loader for the given file paths. A nil logger falls
// back to slog.Default.
func NewLoader(stockPath, referencePath string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{stockPath: stockPath, referencePath: referencePath, logger: logger}
}

// Load reads the security panel and the reference series concurrently.
func (l *Loader) Load(ctx context.Context) ([]panel.Observation, []ReferencePoint, error) {
	var (
		obs []panel.Observation
		ref []ReferencePoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		obs, err = l.LoadMonthlyStockFile(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ref, err = l.LoadReferenceSeries(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return obs, ref, nil
}

// monthly stock file columns; header names follow the provider's monthly
// security file schema.
var stockColumns = []string{"permno", "date", "ret", "retx", "prc", "shrout", "shrcd", "exchcd"}

// optional columns merged into the returns when present.
var delistColumns = []string{"dlret", "dlstcd"}

// LoadMonthlyStockFile parses the security-month CSV into a typed panel.
// Required columns missing from the header, or unparseable identifier/date
// fields, are schema errors and fail the whole load. Numeric return and price
// fields may be empty or carry the provider's missing-value markers; those
// become missing values, not zeros.
func (l *Loader) LoadMonthlyStockFile(ctx context.Context) ([]panel.Observation, error) {
	start := time.Now()
	f, err := os.Open(l.stockPath)
	if err != nil {
		return nil, fmt.Errorf("open stock file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read stock file header: %w", err)
	}
	cols, err := indexColumns(header, stockColumns)
	if err != nil {
		return nil, fmt.Errorf("stock file schema: %w", err)
	}
	optional, _ := indexColumns(header, delistColumns)

	var obs []panel.Observation
	line := 1
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read stock file line %d: %w", line+1, err)
		}
		line++

		o, err := parseObservation(record, cols, optional)
		if err != nil {
			return nil, fmt.Errorf("stock file line %d: %w", line, err)
		}
		mergeDelisting(&o)
		obs = append(obs, o)
	}

	panel.SortByKey(obs)
	l.logger.InfoContext(ctx, "loaded monthly stock file",
		slog.String("path", l.stockPath),
		slog.Int("rows", len(obs)),
		slog.Duration("duration", time.Since(start)),
	)
	return obs, nil
}

// indexColumns maps the wanted column names to their header positions. The
// lookup is case-insensitive; a missing column is an error listing it.
func indexColumns(header []string, wanted []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make(map[string]int, len(wanted))
	var missing []string
	for _, name := range wanted {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = i
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseObservation(record []string, cols, optional map[string]int) (panel.Observation, error) {
	var o panel.Observation

	id, err := strconv.Atoi(strings.TrimSpace(record[cols["permno"]]))
	if err != nil {
		return o, fmt.Errorf("parse permno %q: %w", record[cols["permno"]], err)
	}
	o.EntityID = id

	date, err := parseDate(record[cols["date"]])
	if err != nil {
		return o, fmt.Errorf("parse date %q: %w", record[cols["date"]], err)
	}
	o.Period = panel.NormalizePeriod(date)

	for _, field := range []struct {
		name string
		dst  *panel.Float
	}{
		{"ret", &o.Ret},
		{"retx", &o.RetX},
		{"prc", &o.Price},
		{"shrout", &o.SharesOut},
	} {
		v, err := parseNullable(record[cols[field.name]])
		if err != nil {
			return o, fmt.Errorf("parse %s %q: %w", field.name, record[cols[field.name]], err)
		}
		*field.dst = v
	}

	o.ShareCode = parseCode(record[cols["shrcd"]])
	o.ExchangeCode = parseCode(record[cols["exchcd"]])

	if i, ok := optional["dlret"]; ok {
		v, err := parseNullable(record[i])
		if err != nil {
			return o, fmt.Errorf("parse dlret %q: %w", record[i], err)
		}
		o.DelistRet = v
	}
	if i, ok := optional["dlstcd"]; ok {
		o.DelistCode = parseCode(record[i])
	}
	return o, nil
}

// mergeDelisting folds the delisting return into both return fields so the
// index calculator never special-cases delisting months. The delisting return
// compounds with the partial-month return when both exist, and stands alone
// when the regular return is missing.
func mergeDelisting(o *panel.Observation) {
	if !o.DelistRet.Valid {
		return
	}
	o.Ret = compound(o.Ret, o.DelistRet)
	o.RetX = compound(o.RetX, o.DelistRet)
}

func compound(a, b panel.Float) panel.Float {
	switch {
	case a.Valid && b.Valid:
		return panel.NewFloat((1+a.Float64)*(1+b.Float64) - 1)
	case b.Valid:
		return b
	default:
		return a
	}
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006", "20060102"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// provider markers that denote a missing numeric value in return columns.
var missingMarkers = map[string]bool{
	"": true, ".": true, "NA": true, "NaN": true,
	"A": true, "B": true, "C": true, "D": true, "E": true,
	"P": true, "S": true, "T": true,
}

// parseNullable converts a numeric field to a nullable float. Provider
// missing-value markers become missing; any other non-numeric token is a
// schema error rather than a silent coercion.
func parseNullable(s string) (panel.Float, error) {
	s = strings.TrimSpace(s)
	if missingMarkers[s] {
		return panel.Missing(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return panel.Missing(), fmt.Errorf("non-numeric value")
	}
	return panel.NewFloat(v), nil
}

func parseCode(s string) int {
	c, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return c
}
