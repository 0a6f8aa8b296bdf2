package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evsales/internal/charts"
	apierrors "evsales/internal/errors"
	"evsales/internal/infrastructure"
	evmw "evsales/internal/middleware"
	"evsales/internal/report"
)

// ChartHandler renders analysis charts on request
type ChartHandler struct {
	service      DataServiceInterface
	opts         report.ChartOptions
	metrics      *infrastructure.Metrics
	validator    *evmw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChartHandler creates a chart handler drawing figures of the given size.
func NewChartHandler(service DataServiceInterface, width, height float64, metrics *infrastructure.Metrics, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChartHandler {
	return &ChartHandler{
		service:      service,
		opts:         report.ChartOptions{Width: width, Height: height},
		metrics:      metrics,
		validator:    evmw.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "chart_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the chart routes
func (h *ChartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(KindCtx(h.errorHandler)).Get("/{kind}", h.GetChart)
	return r
}

// GetChart handles GET /charts/{kind}?region=&format=html|png
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	kind, _ := KindFromContext(r.Context())
	region, ok := h.validator.ValidateRegion(w, r, "region")
	if !ok {
		return
	}
	format, ok := h.validator.ValidateEnum(w, r, "format",
		[]string{string(charts.FormatHTML), string(charts.FormatPNG)}, string(charts.FormatHTML))
	if !ok {
		return
	}

	result, err := h.service.Analysis(r.Context(), kind, region)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	opts := h.opts
	opts.Region = region
	canvas, err := report.NewChart(kind, result, charts.Format(format), opts)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if canvas.Format() == charts.FormatPNG {
		w.Header().Set("Content-Type", "image/png")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	if err := canvas.Render(w); err != nil {
		// Headers may already be out; log only.
		h.logger.ErrorContext(r.Context(), "chart render failed",
			slog.String("analysis", string(kind)),
			slog.String("error", err.Error()))
		return
	}
	h.metrics.RecordChart(r.Context(), string(kind), format)
}
