package services

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"evsales/internal/analytics"
	"evsales/internal/dataprocessing"
	"evsales/internal/dataset"
	apperrors "evsales/internal/errors"
	"evsales/internal/infrastructure"
	"evsales/pkg/contracts/domain"
)

// DataService serves analyses over one dataset file for the web viewer.
// The loaded Table is cached until the file's modification time changes;
// concurrent loads of the same file are collapsed into one.
type DataService struct {
	pipeline *Pipeline
	path     string
	logger   *slog.Logger
	metrics  *infrastructure.Metrics

	group singleflight.Group

	mu       sync.RWMutex
	table    *dataset.Table
	modTime  time.Time
	loadedAt time.Time
}

// NewDataService creates a data service reading path through pipeline.
func NewDataService(pipeline *Pipeline, path string, logger *slog.Logger, metrics *infrastructure.Metrics) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		pipeline: pipeline,
		path:     path,
		logger:   logger.With(slog.String("component", "data_service")),
		metrics:  metrics,
	}
}

// DatasetInfo describes the cached dataset.
type DatasetInfo struct {
	Path     string    `json:"path"`
	Rows     int       `json:"rows"`
	Columns  []string  `json:"columns"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Table returns the dataset, loading it when the cache is empty or stale.
func (ds *DataService) Table(ctx context.Context) (*dataset.Table, error) {
	if ds.path == "" {
		return nil, apperrors.NewConfigError(ErrNoInput.Error(), ErrNoInput)
	}
	info, err := os.Stat(ds.path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(ds.path).WithContext("path", ds.path)
	}

	ds.mu.RLock()
	cached, fresh := ds.table, ds.table != nil && ds.modTime.Equal(info.ModTime())
	ds.mu.RUnlock()
	ds.metrics.RecordCacheLookup(ctx, fresh)
	if fresh {
		return cached, nil
	}

	v, err, shared := ds.group.Do(ds.path, func() (any, error) {
		t, err := ds.pipeline.Load(ctx, ds.path)
		if err != nil {
			return nil, err
		}
		ds.mu.Lock()
		ds.table = t
		ds.modTime = info.ModTime()
		ds.loadedAt = time.Now()
		ds.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		ds.logger.DebugContext(ctx, "shared dataset load", slog.String("path", ds.path))
	}
	return v.(*dataset.Table), nil
}

// Info describes the dataset, loading it if needed.
func (ds *DataService) Info(ctx context.Context) (DatasetInfo, error) {
	t, err := ds.Table(ctx)
	if err != nil {
		return DatasetInfo{}, err
	}
	ds.mu.RLock()
	loadedAt := ds.loadedAt
	ds.mu.RUnlock()

	cols := make([]string, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		cols = append(cols, string(c))
	}
	return DatasetInfo{Path: ds.path, Rows: t.Len(), Columns: cols, LoadedAt: loadedAt}, nil
}

// Regions returns the distinct regions in lexicographic order.
func (ds *DataService) Regions(ctx context.Context) ([]string, error) {
	t, err := ds.Table(ctx)
	if err != nil {
		return nil, err
	}
	regions, err := dataprocessing.RegionNames(t, domain.ColRegion, true)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, ErrNoRegions
	}
	return regions, nil
}

// Analysis runs kind over the dataset, restricted to region when set.
func (ds *DataService) Analysis(ctx context.Context, kind analytics.Kind, region string) (any, error) {
	t, err := ds.Table(ctx)
	if err != nil {
		return nil, err
	}
	t, err = FilterRegion(t, region)
	if err != nil {
		return nil, err
	}
	return ds.pipeline.Analyze(ctx, t, kind, region)
}

// Invalidate drops the cached table.
func (ds *DataService) Invalidate() {
	ds.mu.Lock()
	ds.table = nil
	ds.modTime = time.Time{}
	ds.mu.Unlock()
}
