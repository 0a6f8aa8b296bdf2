package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "evsales/internal/errors"
	"evsales/internal/files"
	evmw "evsales/internal/middleware"
)

// ArtifactHandler lists the files the commands wrote: region exports,
// workbooks and saved charts.
type ArtifactHandler struct {
	discovery    *files.Discovery
	dirs         []string
	validator    *evmw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewArtifactHandler lists artifacts found directly under dirs.
func NewArtifactHandler(discovery *files.Discovery, dirs []string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ArtifactHandler {
	return &ArtifactHandler{
		discovery:    discovery,
		dirs:         dirs,
		validator:    evmw.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "artifact_handler")),
		errorHandler: errorHandler,
	}
}

// ListArtifacts handles GET /artifacts?kind=csv|workbook|chart&pattern=glob
func (h *ArtifactHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.validator.ValidateEnum(w, r, "kind",
		[]string{string(files.KindCSV), string(files.KindWorkbook), string(files.KindChart)}, "")
	if !ok {
		return
	}
	pattern := r.URL.Query().Get("pattern")

	found := []files.FileInfo{}
	seen := make(map[string]bool)
	for _, dir := range h.dirs {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		list, err := h.find(dir, pattern)
		var appErr *apierrors.AppError
		if errors.As(err, &appErr) && appErr.Type == apierrors.ErrTypeValue {
			h.errorHandler.HandleError(w, r, apierrors.InvalidQuery("pattern", appErr.Message))
			return
		}
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to list artifacts",
				slog.String("dir", dir), slog.String("error", err.Error()))
			h.errorHandler.HandleError(w, r, err)
			return
		}
		found = append(found, list...)
	}
	if kind != "" {
		found = files.FilterKind(found, files.Kind(kind))
	}

	resp := map[string]any{
		"status": "success",
		"count":  len(found),
		"data":   found,
	}
	if latest, ok := files.GetLatestFile(found); ok {
		resp["latest"] = latest.Name
	}
	render.JSON(w, r, resp)
}

func (h *ArtifactHandler) find(dir, pattern string) ([]files.FileInfo, error) {
	if pattern == "" {
		return h.discovery.FindArtifacts(dir)
	}
	return h.discovery.FindFilesByPattern(dir, pattern)
}
