package http

import (
	"context"

	"milexcli/internal/services"
	"milexcli/pkg/contracts/domain"
)

// ExpenditureServiceInterface defines the queries served by ExpenditureHandler
type ExpenditureServiceInterface interface {
	GlobalOverview(ctx context.Context, year int) (*services.GlobalOverview, error)
	MapData(ctx context.Context, year int) ([]services.MapEntry, error)
	Comparison(ctx context.Context, countries []string, startYear, endYear int) ([]services.CountrySeries, error)
	Trend(ctx context.Context, startYear, endYear int) ([]domain.TrendPoint, error)
	Countries(ctx context.Context) ([]string, error)
	Years(ctx context.Context) ([]int, error)
	TopCountries(ctx context.Context, year, n int) ([]domain.CountryValue, error)
	Growth(ctx context.Context, country string, startYear, endYear int) (*services.GrowthResult, error)
	RegionalTotal(ctx context.Context, region string, year int) (*services.RegionTotal, error)
	RegionalBreakdown(ctx context.Context, year int) ([]domain.RegionShare, error)
	YearSummary(ctx context.Context, year int) (*domain.YearSummary, error)
	Reload(ctx context.Context) (*services.ReloadResult, error)
}

// HealthServiceInterface defines the probes served by HealthHandler
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
