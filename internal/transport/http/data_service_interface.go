package http

import (
	"context"

	"evsales/internal/analytics"
	"evsales/internal/services"
)

// DataServiceInterface defines the dataset operations the viewer needs
type DataServiceInterface interface {
	Info(ctx context.Context) (services.DatasetInfo, error)
	Regions(ctx context.Context) ([]string, error)
	Analysis(ctx context.Context, kind analytics.Kind, region string) (any, error)
	Invalidate()
}
