package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	apperrors "milexcli/internal/errors"
	"milexcli/pkg/contracts/domain"
)

// TableSource provides the tables the analyzer reads
type TableSource interface {
	Load(ctx context.Context, region string) (*domain.ExpenditureTable, error)
	LoadAll(ctx context.Context) (*domain.ExpenditureTable, error)
	SliceYears(ctx context.Context, start, end int) (*domain.ExpenditureTable, error)
}

// Analyzer derives rankings, growth rates, comparisons and totals. Rankings
// and per-country queries use the merged table; regional and global totals
// are computed over the five regional tables, global totals falling back to
// the merged table when a region is unreadable.
type Analyzer struct {
	source TableSource
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer over source
func NewAnalyzer(source TableSource, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		source: source,
		logger: logger.With(slog.String("component", "analyzer")),
	}
}

// TopCountries returns up to n countries with the highest reported value in
// year, in descending order. Ties keep table order.
func (a *Analyzer) TopCountries(ctx context.Context, year, n int) ([]domain.CountryValue, error) {
	table, err := a.source.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	col, ok := table.YearIndex(year)
	if !ok {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrYearNotFound, year)
	}

	ranked := make([]domain.CountryValue, 0, table.Len())
	for _, row := range table.Rows {
		v := row.Values[col]
		if !v.Valid {
			continue
		}
		ranked = append(ranked, domain.CountryValue{Country: row.Country, Region: row.Region, Value: v.Amount})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})

	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// GrowthRate returns the compound annual growth rate in percent of country
// between startYear and endYear.
func (a *Analyzer) GrowthRate(ctx context.Context, country string, startYear, endYear int) (float64, error) {
	table, err := a.source.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	idx := -1
	for i, row := range table.Rows {
		if row.Country == country {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrCountryNotFound, country)
	}
	for _, y := range []int{startYear, endYear} {
		if !table.HasYear(y) {
			return 0, fmt.Errorf("%w: %d", apperrors.ErrYearNotFound, y)
		}
	}

	start := table.Value(idx, startYear)
	end := table.Value(idx, endYear)
	if !start.Valid || !end.Valid {
		return 0, fmt.Errorf("%w: %s has no value for %d or %d", apperrors.ErrMissingData, country, startYear, endYear)
	}
	if endYear <= startYear {
		return 0, fmt.Errorf("%w: end year %d must be after start year %d", apperrors.ErrInvalidRange, endYear, startYear)
	}
	// A non-positive base or a negative end has no real-valued root.
	if start.Amount <= 0 || end.Amount < 0 {
		return 0, fmt.Errorf("%w: %s from %g to %g", apperrors.ErrUndefinedGrowth, country, start.Amount, end.Amount)
	}

	periods := float64(endYear - startYear)
	rate := (math.Pow(end.Amount/start.Amount, 1/periods) - 1) * 100
	return rate, nil
}

// Compare returns the rows of the requested countries restricted to the
// requested years. Unknown countries are omitted; rows keep table order and
// years keep request order with duplicates removed.
func (a *Analyzer) Compare(ctx context.Context, countries []string, years []int) (*domain.ExpenditureTable, error) {
	table, err := a.source.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(years))
	present := make([]int, 0, len(years))
	for _, y := range years {
		if _, dup := seen[y]; dup {
			continue
		}
		seen[y] = struct{}{}
		if table.HasYear(y) {
			present = append(present, y)
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNoMatchingYears, years)
	}

	return selectCountries(table, countries, present), nil
}

// CompareRange is Compare over the years of the table that fall in
// [startYear, endYear], ascending. Only existing columns are considered, so
// the cost does not depend on the width of the range.
func (a *Analyzer) CompareRange(ctx context.Context, countries []string, startYear, endYear int) (*domain.ExpenditureTable, error) {
	slice, err := a.source.SliceYears(ctx, startYear, endYear)
	if err != nil {
		return nil, err
	}
	if slice.IsEmpty() {
		return nil, fmt.Errorf("%w: %d-%d", apperrors.ErrNoMatchingYears, startYear, endYear)
	}
	return selectCountries(slice, countries, slice.Years), nil
}

func selectCountries(table *domain.ExpenditureTable, countries []string, years []int) *domain.ExpenditureTable {
	wanted := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		wanted[c] = struct{}{}
	}
	return table.Select(func(r domain.Row) bool {
		_, ok := wanted[r.Country]
		return ok
	}, years)
}

// RegionalTotal sums the reported values of region in year. A year without
// any report totals 0.
func (a *Analyzer) RegionalTotal(ctx context.Context, region string, year int) (float64, error) {
	table, err := a.source.Load(ctx, region)
	if err != nil {
		return 0, err
	}
	col, ok := table.YearIndex(year)
	if !ok {
		return 0, fmt.Errorf("%w: %d", apperrors.ErrYearNotFound, year)
	}
	return columnSum(table, col), nil
}

// GlobalTrend returns the summed value of all regions for every year in
// [startYear, endYear], ascending. When a regional table cannot be read the
// totals come from the merged table instead.
func (a *Analyzer) GlobalTrend(ctx context.Context, startYear, endYear int) ([]domain.TrendPoint, error) {
	tables, err := a.regionalTables(ctx)
	if err != nil {
		if apperrors.IsQueryError(err) || ctx.Err() != nil {
			return nil, err
		}
		a.logger.WarnContext(ctx, "regional tables unavailable, using merged table for totals",
			slog.String("error", err.Error()))
		merged, mergedErr := a.source.SliceYears(ctx, startYear, endYear)
		if mergedErr != nil {
			return nil, err
		}
		tables = []*domain.ExpenditureTable{merged}
	}

	yearSet := make(map[int]struct{})
	for _, t := range tables {
		for _, y := range t.Years {
			if y >= startYear && y <= endYear {
				yearSet[y] = struct{}{}
			}
		}
	}
	if len(yearSet) == 0 {
		return nil, fmt.Errorf("%w: %d-%d", apperrors.ErrNoMatchingYears, startYear, endYear)
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	trend := make([]domain.TrendPoint, 0, len(years))
	for _, y := range years {
		var total float64
		for _, t := range tables {
			if col, ok := t.YearIndex(y); ok {
				total += columnSum(t, col)
			}
		}
		trend = append(trend, domain.TrendPoint{Year: y, Total: total})
	}
	return trend, nil
}

// RegionalBreakdown returns each region's total in year and its share of
// the global total, in canonical region order.
func (a *Analyzer) RegionalBreakdown(ctx context.Context, year int) ([]domain.RegionShare, error) {
	regions := domain.AllRegions()
	totals := make([]float64, len(regions))
	for i, region := range regions {
		total, err := a.RegionalTotal(ctx, string(region), year)
		if err != nil {
			return nil, err
		}
		totals[i] = total
	}

	global := floats.Sum(totals)
	shares := make([]domain.RegionShare, len(regions))
	for i, region := range regions {
		share := domain.RegionShare{Region: region, Label: region.Label(), Total: totals[i]}
		if global != 0 {
			share.Percent = totals[i] / global * 100
		}
		shares[i] = share
	}
	return shares, nil
}

// YearSummary aggregates the reported values of year over the merged table
// and compares the total with the previous year when it exists.
func (a *Analyzer) YearSummary(ctx context.Context, year int) (domain.YearSummary, error) {
	table, err := a.source.LoadAll(ctx)
	if err != nil {
		return domain.YearSummary{}, err
	}
	col, ok := table.YearIndex(year)
	if !ok {
		return domain.YearSummary{}, fmt.Errorf("%w: %d", apperrors.ErrYearNotFound, year)
	}

	data := columnValues(table, col)
	summary := domain.YearSummary{
		Year:         year,
		Total:        floats.Sum(data),
		CountryCount: len(data),
	}
	if len(data) > 0 {
		summary.Mean, _ = stats.Mean(data)
		summary.Median, _ = stats.Median(data)
		summary.Percentile90, _ = stats.Percentile(data, 90)
	}

	if prevCol, ok := table.YearIndex(year - 1); ok {
		prev := columnSum(table, prevCol)
		summary.PreviousTotal = &prev
		if prev != 0 {
			change := (summary.Total - prev) / prev * 100
			summary.ChangePercent = &change
		}
	}

	a.logger.DebugContext(ctx, "year summarized",
		slog.Int("year", year),
		slog.Int("countries", summary.CountryCount))
	return summary, nil
}

func (a *Analyzer) regionalTables(ctx context.Context) ([]*domain.ExpenditureTable, error) {
	regions := domain.AllRegions()
	tables := make([]*domain.ExpenditureTable, 0, len(regions))
	for _, region := range regions {
		t, err := a.source.Load(ctx, string(region))
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// columnValues returns the present values of column col
func columnValues(t *domain.ExpenditureTable, col int) []float64 {
	data := make([]float64, 0, t.Len())
	for _, row := range t.Rows {
		if v := row.Values[col]; v.Valid {
			data = append(data, v.Amount)
		}
	}
	return data
}

func columnSum(t *domain.ExpenditureTable, col int) float64 {
	return floats.Sum(columnValues(t, col))
}
