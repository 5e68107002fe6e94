// Package http exposes the computed index series over a small read-only API:
// the monthly series, the reference comparison, the chained level series and
// a summary of the run.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "crspindex/internal/errors"
	"crspindex/internal/index"
	"crspindex/internal/middleware"
	"crspindex/internal/services"
)

// IndexServiceInterface is the slice of the index service the handler needs.
type IndexServiceInterface interface {
	MonthlySeries(from, to time.Time) ([]index.MonthlyValue, error)
	Summary() (*services.Summary, error)
	Result() (*services.Result, error)
}

// IndexHandler serves the computed index series.
type IndexHandler struct {
	service      IndexServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewIndexHandler creates the handler.
func NewIndexHandler(service IndexServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *IndexHandler {
	return &IndexHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "index_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the index routes.
func (h *IndexHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/monthly", h.GetMonthly)
	r.Get("/comparison", h.GetComparison)
	r.Get("/levels", h.GetLevels)
	r.Get("/summary", h.GetSummary)
	return r
}

// GetMonthly handles GET /api/index/monthly?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *IndexHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	series, err := h.service.MonthlySeries(from, to)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   series,
		"count":  len(series),
	})
}

// GetComparison handles GET /api/index/comparison.
func (h *IndexHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result()
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result.Comparison,
	})
}

// GetLevels handles GET /api/index/levels.
func (h *IndexHandler) GetLevels(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result()
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result.Levels,
		"count":  len(result.Levels),
	})
}

// GetSummary handles GET /api/index/summary.
func (h *IndexHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// dateRange parses and validates the optional from/to query parameters.
func (h *IndexHandler) dateRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"from", &from},
		{"to", &to},
	} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		if err := h.validate.Var(raw, "datetime=2006-01-02"); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(p.name, "expected date in YYYY-MM-DD format"))
			return time.Time{}, time.Time{}, false
		}
		*p.dst, _ = time.Parse("2006-01-02", raw)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("to", "must not precede from"))
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h *IndexHandler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "index service error",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if errors.Is(err, services.ErrNotComputed) {
		h.errorHandler.HandleError(w, r, apierrors.ErrSeriesNotComputed)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}
