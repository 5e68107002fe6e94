// Package services wires the pipeline together: load the raw panel and
// reference series, filter the universe, compute the monthly index series and
// compare against the reference. The HTTP transport and the report CLI both
// consume this service.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"crspindex/internal/config"
	"crspindex/internal/dataset"
	"crspindex/internal/index"
	"crspindex/internal/infrastructure"
	"crspindex/internal/panel"
	"crspindex/internal/report"
	"crspindex/internal/universe"
)

// ErrNotComputed is returned when results are requested before Compute ran.
var ErrNotComputed = errors.New("index series not computed")

// Result is one complete computation run.
type Result struct {
	Series     []index.MonthlyValue `json:"series"`
	Comparison *report.Comparison   `json:"comparison"`
	Levels     []index.Level        `json:"levels"`

	RawRows      int       `json:"raw_rows"`
	FilteredRows int       `json:"filtered_rows"`
	ComputedAt   time.Time `json:"computed_at"`
}

// Summary is the condensed view served by the API.
type Summary struct {
	Months        int       `json:"months"`
	Pairs         int       `json:"pairs"`
	VWCorrelation float64   `json:"vw_correlation"`
	EWCorrelation float64   `json:"ew_correlation"`
	RawRows       int       `json:"raw_rows"`
	FilteredRows  int       `json:"filtered_rows"`
	ComputedAt    time.Time `json:"computed_at"`
}

// IndexService runs the computation and caches the result in memory. The
// computation is a deterministic batch over immutable inputs, so one run per
// process is the normal mode; Compute may be called again to refresh.
type IndexService struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.Metrics

	mu     sync.RWMutex
	result *Result
}

// NewIndexService creates the service. Metrics may be nil (report CLI).
func NewIndexService(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.Metrics) *IndexService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexService{cfg: cfg, logger: logger, metrics: metrics}
}

// Compute runs the full pipeline and stores the result.
func (s *IndexService) Compute(ctx context.Context) (*Result, error) {
	start := time.Now()

	loader := dataset.NewLoader(s.cfg.Paths.StockPath(), s.cfg.Paths.ReferencePath(), s.logger)
	obs, ref, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	rangeStart, rangeEnd := s.cfg.DateRange()
	obs = clipRange(obs, rangeStart, rangeEnd)
	rawRows := len(obs)

	filtered, err := universe.Filter(obs, s.cfg.Universe)
	if err != nil {
		return nil, fmt.Errorf("filter universe: %w", err)
	}
	s.logger.InfoContext(ctx, "universe filtered",
		slog.Int("raw_rows", rawRows),
		slog.Int("filtered_rows", len(filtered)),
	)
	if s.metrics != nil {
		s.metrics.PanelRows.WithLabelValues("raw").Set(float64(rawRows))
		s.metrics.PanelRows.WithLabelValues("filtered").Set(float64(len(filtered)))
	}

	calc := index.NewCalculator(s.logger)
	series, err := calc.Compute(ctx, filtered)
	if err != nil {
		return nil, fmt.Errorf("compute index: %w", err)
	}

	cmp, err := report.Compare(series, ref)
	if err != nil {
		return nil, fmt.Errorf("compare against reference: %w", err)
	}

	result := &Result{
		Series:       series,
		Comparison:   cmp,
		Levels:       index.ValueWeightedLevels(series, levelBase(series, ref)),
		RawRows:      rawRows,
		FilteredRows: len(filtered),
		ComputedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ComputationDuration.Observe(time.Since(start).Seconds())
	}
	s.logger.InfoContext(ctx, "index computation run completed",
		slog.Int("months", len(series)),
		slog.Float64("vw_correlation", cmp.VWCorrelation),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// Result returns the cached computation, or ErrNotComputed.
func (s *IndexService) Result() (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil, ErrNotComputed
	}
	return s.result, nil
}

// MonthlySeries returns the cached series clipped to [from, to]; zero bounds
// are open.
func (s *IndexService) MonthlySeries(from, to time.Time) ([]index.MonthlyValue, error) {
	result, err := s.Result()
	if err != nil {
		return nil, err
	}
	out := make([]index.MonthlyValue, 0, len(result.Series))
	for _, mv := range result.Series {
		if !from.IsZero() && mv.Period.Before(panel.NormalizePeriod(from)) {
			continue
		}
		if !to.IsZero() && mv.Period.After(panel.NormalizePeriod(to)) {
			continue
		}
		out = append(out, mv)
	}
	return out, nil
}

// Summary returns the condensed comparison statistics.
func (s *IndexService) Summary() (*Summary, error) {
	result, err := s.Result()
	if err != nil {
		return nil, err
	}
	return &Summary{
		Months:        len(result.Series),
		Pairs:         result.Comparison.Pairs,
		VWCorrelation: result.Comparison.VWCorrelation,
		EWCorrelation: result.Comparison.EWCorrelation,
		RawRows:       result.RawRows,
		FilteredRows:  result.FilteredRows,
		ComputedAt:    result.ComputedAt,
	}, nil
}

// clipRange keeps observations within the inclusive [start, end] bounds; zero
// bounds are open.
func clipRange(obs []panel.Observation, start, end time.Time) []panel.Observation {
	if start.IsZero() && end.IsZero() {
		return obs
	}
	out := make([]panel.Observation, 0, len(obs))
	for _, o := range obs {
		if !start.IsZero() && o.Period.Before(panel.NormalizePeriod(start)) {
			continue
		}
		if !end.IsZero() && o.Period.After(panel.NormalizePeriod(end)) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// levelBase anchors the chained level series to the reported index level in
// the month before the first computed period, falling back to 100.
func levelBase(series []index.MonthlyValue, ref []dataset.ReferencePoint) float64 {
	if len(series) == 0 {
		return 100
	}
	prior := series[0].Period.AddDate(0, -1, 0)
	for _, p := range ref {
		if p.Period.Equal(prior) && p.Level.Valid {
			return p.Level.Float64
		}
	}
	return 100
}
