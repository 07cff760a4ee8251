package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"milexcli/internal/config"
	"milexcli/internal/files"
	"milexcli/pkg/contracts"
)

// TableCache reports which tables are loaded
type TableCache interface {
	Cached() []string
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	cache     TableCache
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, paths *config.Paths, cache TableCache, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("data_dir", paths.DataDir))

	return &HealthService{
		version:   version,
		paths:     paths,
		cache:     cache,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready when the data directory holds spreadsheets
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"data":  hs.checkDataHealth(),
			"cache": hs.checkCacheHealth(),
		},
	}

	for _, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	build := contracts.GetVersionInfo()
	return map[string]interface{}{
		"name":         config.AppName,
		"version":      hs.version,
		"build_time":   build.BuildTime,
		"git_commit":   build.GitCommit,
		"data_format":  build.DataFormat,
		"api_version":  build.APIVersion,
		"go_version":   build.GoVersion,
		"os":           build.OS,
		"arch":         build.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	dataDir := hs.paths.DataDir
	if _, err := os.Stat(dataDir); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Data directory not found: %s", dataDir),
		}
	}

	sheets, err := files.NewDiscovery("").FindSpreadsheets(dataDir)
	if err != nil || len(sheets) == 0 {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("No spreadsheets in %s", dataDir),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d spreadsheet(s) available", len(sheets)),
	}
}

// checkCacheHealth never blocks readiness; tables load lazily
func (hs *HealthService) checkCacheHealth() ServiceHealth {
	if hs.cache == nil {
		return ServiceHealth{Status: "ready", Message: "cache disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d table(s) cached", len(hs.cache.Cached())),
	}
}
