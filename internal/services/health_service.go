package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	inputPath string
	chartsDir string
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service checking the input file and chart directory
func NewHealthService(version, inputPath, chartsDir string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		inputPath: inputPath,
		chartsDir: chartsDir,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"dataset": hs.checkDataset(),
		},
	}
	if hs.chartsDir != "" {
		status.Services["charts"] = hs.checkChartsDir()
	}

	for name, s := range status.Services {
		if s.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("service", name),
				slog.String("message", s.Message))
		}
	}
	return status
}

func (hs *HealthService) checkDataset() ServiceHealth {
	info, err := os.Stat(hs.inputPath)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("dataset not found: %s", hs.inputPath)}
	}
	if info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("dataset is a directory: %s", hs.inputPath)}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkChartsDir() ServiceHealth {
	if err := os.MkdirAll(hs.chartsDir, 0755); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("cannot create chart directory: %v", err)}
	}
	return ServiceHealth{Status: "ready"}
}
