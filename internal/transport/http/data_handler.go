package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"evsales/internal/analytics"
	apierrors "evsales/internal/errors"
	evmw "evsales/internal/middleware"
	"evsales/internal/services"
)

type ctxKey int

const kindKey ctxKey = iota

// DataHandler serves the dataset and its analyses as JSON
type DataHandler struct {
	service      DataServiceInterface
	validator    *evmw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		validator:    evmw.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/dataset", h.GetDataset)
	r.Post("/dataset/reload", h.ReloadDataset)
	r.Get("/regions", h.GetRegions)
	r.Get("/analyses", h.ListAnalyses)
	r.With(KindCtx(h.errorHandler)).Get("/analyses/{kind}", h.GetAnalysis)
	return r
}

// KindCtx resolves the {kind} URL parameter into an analytics.Kind.
// Unknown names are answered with 404.
func KindCtx(errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kind, err := analytics.ParseKind(chi.URLParam(r, "kind"))
			if err != nil {
				errorHandler.HandleError(w, r, apierrors.NotFoundError("analysis "+chi.URLParam(r, "kind")))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), kindKey, kind)))
		})
	}
}

// KindFromContext returns the analysis resolved by KindCtx.
func KindFromContext(ctx context.Context) (analytics.Kind, bool) {
	kind, ok := ctx.Value(kindKey).(analytics.Kind)
	return kind, ok
}

// GetDataset handles GET /api/dataset
func (h *DataHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.fail(w, r, "failed to load dataset", err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   info,
	})
}

// ReloadDataset handles POST /api/dataset/reload. The cached table is dropped
// and the file read again, even when its modification time is unchanged.
func (h *DataHandler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	h.service.Invalidate()
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.fail(w, r, "failed to reload dataset", err)
		return
	}
	h.logger.InfoContext(r.Context(), "dataset reloaded",
		slog.Int("rows", info.Rows),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   info,
	})
}

// GetRegions handles GET /api/regions
func (h *DataHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.Regions(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoRegions) {
			h.errorHandler.HandleError(w, r, apierrors.ErrNoRegions)
			return
		}
		h.fail(w, r, "failed to list regions", err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"count":  len(regions),
		"data":   regions,
	})
}

// ListAnalyses handles GET /api/analyses
func (h *DataHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status": "success",
		"count":  len(analytics.Kinds),
		"data":   analytics.Kinds,
	})
}

// GetAnalysis handles GET /api/analyses/{kind}?region=
func (h *DataHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	kind, _ := KindFromContext(r.Context())
	region, ok := h.validator.ValidateRegion(w, r, "region")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "computing analysis",
		slog.String("analysis", string(kind)),
		slog.String("region", region),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.service.Analysis(r.Context(), kind, region)
	if err != nil {
		h.fail(w, r, "analysis failed", err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"kind":   kind,
		"region": region,
		"data":   result,
	})
}

func (h *DataHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	h.errorHandler.HandleError(w, r, err)
}
