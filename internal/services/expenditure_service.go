package services

import (
	"context"
	"fmt"
	"log/slog"

	"milexcli/internal/dataprocessing"
	apperrors "milexcli/internal/errors"
	"milexcli/internal/exporter"
	"milexcli/pkg/contracts/domain"
)

// TopCountriesLimit is the size of the ranking in the global overview
const TopCountriesLimit = 5

// GlobalOverview is the dashboard view of one year
type GlobalOverview struct {
	Year         int                   `json:"year"`
	Total        float64               `json:"total"`
	TopCountries []domain.CountryValue `json:"topCountries"`
}

// MapEntry is one country on the world map
type MapEntry struct {
	Country     string  `json:"country"`
	Expenditure float64 `json:"expenditure"`
	Year        int     `json:"year"`
	Continent   string  `json:"continent"`
	ISOCode     string  `json:"iso_code"`
}

// YearValue is one cell of a comparison series
type YearValue struct {
	Year        int          `json:"year"`
	Expenditure domain.Value `json:"expenditure"`
}

// CountrySeries is one country's values across the compared years
type CountrySeries struct {
	Country string      `json:"country"`
	Region  string      `json:"region"`
	Years   []YearValue `json:"years"`
}

// GrowthResult is the compound annual growth of one country
type GrowthResult struct {
	Country   string  `json:"country"`
	StartYear int     `json:"start_year"`
	EndYear   int     `json:"end_year"`
	Rate      float64 `json:"rate"`
}

// RegionTotal is the sum of one region in one year
type RegionTotal struct {
	Region string  `json:"region"`
	Label  string  `json:"label"`
	Year   int     `json:"year"`
	Total  float64 `json:"total"`
}

// ReloadResult reports the state after a cache reload
type ReloadResult struct {
	Countries int `json:"countries"`
	Years     int `json:"years"`
}

// ExpenditureService exposes the analytical queries to the HTTP layer
type ExpenditureService struct {
	repo     *dataprocessing.Repository
	analyzer *dataprocessing.Analyzer
	logger   *slog.Logger
}

// NewExpenditureService creates a service over repo
func NewExpenditureService(repo *dataprocessing.Repository, logger *slog.Logger) *ExpenditureService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenditureService{
		repo:     repo,
		analyzer: dataprocessing.NewAnalyzer(repo, logger),
		logger:   logger.With(slog.String("service", "expenditure")),
	}
}

// GlobalOverview returns the world total of year and its top five countries
func (s *ExpenditureService) GlobalOverview(ctx context.Context, year int) (*GlobalOverview, error) {
	top, err := s.analyzer.TopCountries(ctx, year, TopCountriesLimit)
	if err != nil {
		return nil, err
	}
	trend, err := s.analyzer.GlobalTrend(ctx, year, year)
	if err != nil {
		return nil, err
	}
	return &GlobalOverview{Year: year, Total: trend[0].Total, TopCountries: top}, nil
}

// MapData lists every country that reported a value in year
func (s *ExpenditureService) MapData(ctx context.Context, year int) ([]MapEntry, error) {
	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	col, ok := all.YearIndex(year)
	if !ok {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrYearNotFound, year)
	}

	entries := make([]MapEntry, 0, all.Len())
	for _, row := range all.Rows {
		v := row.Values[col]
		if !v.Valid {
			continue
		}
		entries = append(entries, MapEntry{
			Country:     row.Country,
			Expenditure: v.Amount,
			Year:        year,
			Continent:   string(row.Region),
			ISOCode:     exporter.LookupMetadata(row.Country).ISOCode,
		})
	}
	return entries, nil
}

// Comparison returns the series of countries over [startYear, endYear]
func (s *ExpenditureService) Comparison(ctx context.Context, countries []string, startYear, endYear int) ([]CountrySeries, error) {
	view, err := s.analyzer.CompareRange(ctx, countries, startYear, endYear)
	if err != nil {
		return nil, err
	}

	series := make([]CountrySeries, 0, view.Len())
	for _, row := range view.Rows {
		years := make([]YearValue, len(view.Years))
		for j, y := range view.Years {
			years[j] = YearValue{Year: y, Expenditure: row.Values[j]}
		}
		series = append(series, CountrySeries{Country: row.Country, Region: string(row.Region), Years: years})
	}
	return series, nil
}

// ComparisonTable returns the comparison as a table, for CSV export
func (s *ExpenditureService) ComparisonTable(ctx context.Context, countries []string, startYear, endYear int) (*domain.ExpenditureTable, error) {
	return s.analyzer.CompareRange(ctx, countries, startYear, endYear)
}

// Trend returns the global totals of [startYear, endYear]
func (s *ExpenditureService) Trend(ctx context.Context, startYear, endYear int) ([]domain.TrendPoint, error) {
	return s.analyzer.GlobalTrend(ctx, startYear, endYear)
}

// Countries returns the distinct country names
func (s *ExpenditureService) Countries(ctx context.Context) ([]string, error) {
	return s.repo.Countries(ctx)
}

// Years returns the available years
func (s *ExpenditureService) Years(ctx context.Context) ([]int, error) {
	return s.repo.Years(ctx)
}

// TopCountries returns the n largest spenders of year
func (s *ExpenditureService) TopCountries(ctx context.Context, year, n int) ([]domain.CountryValue, error) {
	return s.analyzer.TopCountries(ctx, year, n)
}

// Growth returns the compound annual growth rate of country
func (s *ExpenditureService) Growth(ctx context.Context, country string, startYear, endYear int) (*GrowthResult, error) {
	rate, err := s.analyzer.GrowthRate(ctx, country, startYear, endYear)
	if err != nil {
		return nil, err
	}
	return &GrowthResult{Country: country, StartYear: startYear, EndYear: endYear, Rate: rate}, nil
}

// RegionalTotal returns the total of region in year
func (s *ExpenditureService) RegionalTotal(ctx context.Context, region string, year int) (*RegionTotal, error) {
	total, err := s.analyzer.RegionalTotal(ctx, region, year)
	if err != nil {
		return nil, err
	}
	r := domain.Region(region)
	return &RegionTotal{Region: region, Label: r.Label(), Year: year, Total: total}, nil
}

// RegionalBreakdown returns every region's share of year
func (s *ExpenditureService) RegionalBreakdown(ctx context.Context, year int) ([]domain.RegionShare, error) {
	return s.analyzer.RegionalBreakdown(ctx, year)
}

// YearSummary returns the statistics of year
func (s *ExpenditureService) YearSummary(ctx context.Context, year int) (*domain.YearSummary, error) {
	summary, err := s.analyzer.YearSummary(ctx, year)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Reload clears the table cache and loads the merged table again so that
// spreadsheet errors surface to the caller immediately.
func (s *ExpenditureService) Reload(ctx context.Context) (*ReloadResult, error) {
	s.repo.Reload()
	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tables reloaded",
		slog.Int("countries", all.Len()),
		slog.Int("years", len(all.Years)))
	return &ReloadResult{Countries: all.Len(), Years: len(all.Years)}, nil
}
