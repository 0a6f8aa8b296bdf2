package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"evsales/internal/analytics"
	"evsales/internal/config"
	"evsales/internal/dataprocessing"
	"evsales/internal/dataset"
	apperrors "evsales/internal/errors"
	"evsales/internal/exporter"
	"evsales/internal/infrastructure"
	"evsales/pkg/contracts/domain"
)

// Pipeline runs the load, split and analysis stages with tracing and metrics.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.Metrics
	regions  *exporter.RegionExporter
	workbook *exporter.WorkbookExporter
}

// NewPipeline creates a pipeline. A nil tracer uses the global provider and
// nil metrics record nothing.
func NewPipeline(cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, metrics *infrastructure.Metrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.InstrumentationName)
	}
	return &Pipeline{
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "pipeline")),
		tracer:   tracer,
		metrics:  metrics,
		regions:  exporter.NewRegionExporter(logger),
		workbook: exporter.NewWorkbookExporter(logger),
	}
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Schema returns the configured header mapping.
func (p *Pipeline) Schema() domain.Schema {
	return p.cfg.Columns.Schema()
}

// Load reads the dataset at path.
func (p *Pipeline) Load(ctx context.Context, path string) (*dataset.Table, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.load", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	start := time.Now()
	t, err := dataset.Load(path, dataset.LoadOptions{
		Sort:   p.cfg.Input.Sort,
		Schema: p.Schema(),
		Sheet:  p.cfg.Input.Sheet,
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		p.logger.ErrorContext(ctx, "load failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("rows", t.Len()))
	p.metrics.RecordRows(ctx, sourceKind(path), t.Len())
	p.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", path),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns())),
		slog.Duration("duration", time.Since(start)))
	return t, nil
}

// SplitResult lists what Split wrote.
type SplitResult struct {
	Partitions *dataprocessing.Partitions
	Files      []string
	// Workbook is empty unless a workbook was configured.
	Workbook string
}

// Split partitions t by region and exports one file per region to outDir,
// plus a single workbook when workbookPath is set.
func (p *Pipeline) Split(ctx context.Context, t *dataset.Table, outDir, workbookPath string) (*SplitResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.split")
	defer span.End()

	parts, err := dataprocessing.SplitByRegion(t, dataprocessing.DefaultSplitOptions())
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("regions", parts.Len()))

	files, err := p.export(ctx, parts, outDir)
	if err != nil {
		return nil, err
	}
	result := &SplitResult{Partitions: parts, Files: files}

	if workbookPath != "" {
		if err := p.saveWorkbook(ctx, parts, workbookPath); err != nil {
			return nil, err
		}
		result.Workbook = workbookPath
	}
	return result, nil
}

func (p *Pipeline) export(ctx context.Context, parts *dataprocessing.Partitions, outDir string) ([]string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.export", trace.WithAttributes(attribute.String("dir", outDir)))
	defer span.End()

	files, err := p.regions.SaveRegionTables(parts, outDir, exporter.SaveOptions{
		Prefix:     p.cfg.Export.Prefix,
		WriteIndex: p.cfg.Export.WriteIndex,
		BOMPrefix:  p.cfg.Export.BOM,
		Schema:     p.Schema(),
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	p.metrics.RecordPartitions(ctx, "csv", len(files))
	p.logger.InfoContext(ctx, "regions exported", slog.String("dir", outDir), slog.Int("files", len(files)))
	return files, nil
}

func (p *Pipeline) saveWorkbook(ctx context.Context, parts *dataprocessing.Partitions, path string) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.workbook", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	if err := p.workbook.SaveRegionWorkbook(parts, path, p.Schema()); err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}
	p.metrics.RecordPartitions(ctx, "xlsx", parts.Len())
	return nil
}

// Analyze runs one analysis on t. region only labels telemetry.
func (p *Pipeline) Analyze(ctx context.Context, t *dataset.Table, kind analytics.Kind, region string) (any, error) {
	ctx, span := p.tracer.Start(ctx, "analysis."+string(kind), trace.WithAttributes(
		attribute.String("analysis", string(kind)),
		attribute.String("region", region),
	))
	defer span.End()

	start := time.Now()
	result, err := analytics.Run(kind, t)
	p.metrics.RecordAnalysis(ctx, string(kind), region, time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		p.logger.WarnContext(ctx, "analysis failed", slog.String("analysis", string(kind)), slog.String("error", err.Error()))
		return nil, err
	}
	p.logger.DebugContext(ctx, "analysis computed", slog.String("analysis", string(kind)), slog.Duration("duration", time.Since(start)))
	return result, nil
}

// FilterRegion keeps the rows whose Region equals region. An empty region
// returns t unchanged.
func FilterRegion(t *dataset.Table, region string) (*dataset.Table, error) {
	if region == "" {
		return t, nil
	}
	if err := t.Require("region filter", domain.ColRegion); err != nil {
		return nil, err
	}
	out := t.Filter(func(r domain.Record) bool {
		v, ok := r.Region.Get()
		return ok && v == region
	})
	if out.Len() == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound, fmt.Sprintf("region %q not found", region), ErrRegionNotFound).
			WithContext("region", region)
	}
	return out, nil
}

// ParseKinds resolves analysis names; no names means every analysis.
func ParseKinds(names []string) ([]analytics.Kind, error) {
	if len(names) == 0 {
		return analytics.Kinds, nil
	}
	kinds := make([]analytics.Kind, 0, len(names))
	for _, n := range names {
		k, err := analytics.ParseKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// ExportResult writes the aggregated series of an analysis result to
// dir/<kind>[_<region>].csv and returns the path.
func (p *Pipeline) ExportResult(ctx context.Context, kind analytics.Kind, result any, dir, region string) (string, error) {
	_, span := p.tracer.Start(ctx, "pipeline.export_result", trace.WithAttributes(
		attribute.String("analysis", string(kind)),
	))
	defer span.End()

	name := string(kind)
	if region != "" {
		name += "_" + exporter.SanitizeRegionName(region)
	}
	path := name + ".csv"
	frames := exporter.NewFrameExporter(dir, p.logger)

	var err error
	switch r := result.(type) {
	case *analytics.MonthlyDeliveriesResult:
		err = frames.ExportSeries(path, r.Series)
	case *analytics.AveragePriceResult:
		err = frames.ExportSeries(path, r.Series)
	case *analytics.ProductionVsDeliveriesResult:
		err = frames.ExportFrame(path, r.Frame)
	case *analytics.PairResult:
		err = frames.ExportFrame(path, r.Frame)
	case *analytics.ModelShareResult:
		err = frames.ExportShares(path, r.Shares)
	default:
		err = apperrors.NewValueError(fmt.Sprintf("cannot export %s result %T", kind, result), nil)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return "", err
	}
	return filepath.Join(dir, path), nil
}

func sourceKind(path string) string {
	if dataset.IsWorkbook(path) {
		return "xlsx"
	}
	return "csv"
}
