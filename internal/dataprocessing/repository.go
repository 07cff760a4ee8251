package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	apperrors "milexcli/internal/errors"
	"milexcli/internal/files"
	"milexcli/internal/infrastructure"
	"milexcli/pkg/contracts/domain"
)

// mergedKey is the cache key of the combined table
const mergedKey = "merged"

// RepositoryConfig locates the source spreadsheets
type RepositoryConfig struct {
	DataDir    string
	MergedFile string // file name inside DataDir; empty disables the merged strategy
	BaseYear   int
	EndYear    int
}

// Repository loads regional tables on demand and caches them until Reload.
// It is safe for concurrent use.
type Repository struct {
	cfg       RepositoryConfig
	logger    *slog.Logger
	metrics   *infrastructure.Metrics
	discovery *files.Discovery

	mu     sync.RWMutex
	tables map[string]*domain.ExpenditureTable
	group  singleflight.Group
}

// NewRepository creates a repository. metrics may be nil.
func NewRepository(cfg RepositoryConfig, logger *slog.Logger, metrics *infrastructure.Metrics) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "repository")),
		metrics:   metrics,
		discovery: files.NewDiscovery(""),
		tables:    make(map[string]*domain.ExpenditureTable),
	}
}

// CanonicalYears returns the configured year columns
func (r *Repository) CanonicalYears() []int {
	return domain.YearRange(r.cfg.BaseYear, r.cfg.EndYear)
}

// Load returns the table of one region, reading it on first use. Unknown
// region keys fail with ErrInvalidRegion.
func (r *Repository) Load(ctx context.Context, region string) (*domain.ExpenditureTable, error) {
	reg, err := domain.ParseRegion(region)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRegion, err)
	}
	return r.cached(ctx, string(reg), func() (*domain.ExpenditureTable, string, error) {
		return r.readRegion(ctx, reg)
	})
}

// LoadAll returns the merged table of all regions. The pre-merged
// spreadsheet is preferred; when it cannot be read the table is rebuilt
// from the five regional files.
func (r *Repository) LoadAll(ctx context.Context) (*domain.ExpenditureTable, error) {
	return r.cached(ctx, mergedKey, func() (*domain.ExpenditureTable, string, error) {
		return r.loadMerged(ctx)
	})
}

// Reload drops every cached table. The next query reads from disk again.
func (r *Repository) Reload() {
	r.mu.Lock()
	r.tables = make(map[string]*domain.ExpenditureTable)
	r.mu.Unlock()
	r.logger.Info("table cache cleared")
}

// Cached reports which tables are currently held in memory
func (r *Repository) Cached() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.tables))
	for k := range r.tables {
		keys = append(keys, k)
	}
	return keys
}

// CountryRow returns the merged-table row whose name equals name exactly.
func (r *Repository) CountryRow(ctx context.Context, name string) (domain.Row, error) {
	all, err := r.LoadAll(ctx)
	if err != nil {
		return domain.Row{}, err
	}
	for _, row := range all.Rows {
		if row.Country == name {
			return row, nil
		}
	}
	return domain.Row{}, fmt.Errorf("%w: %q", apperrors.ErrCountryNotFound, name)
}

// Countries returns the distinct country names in row order
func (r *Repository) Countries(ctx context.Context) ([]string, error) {
	all, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, all.Len())
	names := make([]string, 0, all.Len())
	for _, row := range all.Rows {
		if _, ok := seen[row.Country]; ok {
			continue
		}
		seen[row.Country] = struct{}{}
		names = append(names, row.Country)
	}
	return names, nil
}

// Years returns the year columns of the merged table
func (r *Repository) Years(ctx context.Context) ([]int, error) {
	all, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return append([]int(nil), all.Years...), nil
}

// SliceYears restricts the merged table to the inclusive range
// [start, end]. When no column falls in the range the result has neither
// rows nor years.
func (r *Repository) SliceYears(ctx context.Context, start, end int) (*domain.ExpenditureTable, error) {
	all, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var years []int
	for _, y := range all.Years {
		if y >= start && y <= end {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return domain.NewExpenditureTable(nil), nil
	}
	return all.Select(nil, years), nil
}

// cached serves key from the cache or loads it once, collapsing concurrent
// first loads of the same key.
func (r *Repository) cached(ctx context.Context, key string, load func() (*domain.ExpenditureTable, string, error)) (*domain.ExpenditureTable, error) {
	r.mu.RLock()
	table, ok := r.tables[key]
	r.mu.RUnlock()
	if ok {
		r.metrics.RecordCacheHit(ctx, key)
		return table, nil
	}

	ch := r.group.DoChan(key, func() (interface{}, error) {
		r.mu.RLock()
		table, ok := r.tables[key]
		r.mu.RUnlock()
		if ok {
			return table, nil
		}

		table, source, err := load()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.tables[key] = table
		r.mu.Unlock()

		r.metrics.RecordTableLoad(ctx, key, source)
		r.logger.InfoContext(ctx, "table loaded",
			slog.String("table", key),
			slog.String("source", source),
			slog.Int("rows", table.Len()),
			slog.Int("years", len(table.Years)))
		return table, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.ExpenditureTable), nil
	}
}

func (r *Repository) readRegion(ctx context.Context, region domain.Region) (*domain.ExpenditureTable, string, error) {
	src, err := r.discovery.FindSource(r.cfg.DataDir, string(region))
	if err != nil {
		return nil, "", apperrors.NewStorageError(fmt.Sprintf("no spreadsheet for region %s", region), err).
			WithContext("region", string(region))
	}
	table, skipped, err := ReadTable(src.Path, CanonicalLayout(r.cfg.BaseYear, r.cfg.EndYear, region))
	if err != nil {
		return nil, "", err
	}
	if skipped > 0 {
		r.logger.DebugContext(ctx, "skipped rows without country",
			slog.String("region", string(region)),
			slog.Int("skipped", skipped))
	}
	return table, src.Name, nil
}

// loadStrategy is one way of producing the merged table
type loadStrategy struct {
	name string
	load func(ctx context.Context) (*domain.ExpenditureTable, error)
}

// StrategyError records why one merged-table strategy failed
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return e.Strategy + ": " + e.Err.Error()
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// LoadError is returned when every merged-table strategy failed
type LoadError struct {
	Attempts []*StrategyError
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		msgs[i] = a.Error()
	}
	return "failed to load merged table: " + strings.Join(msgs, "; ")
}

// Unwrap exposes every attempt to errors.Is and errors.As
func (e *LoadError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}

func (r *Repository) strategies() []loadStrategy {
	var s []loadStrategy
	if r.cfg.MergedFile != "" {
		s = append(s, loadStrategy{name: "merged_file", load: r.readMergedFile})
	}
	return append(s, loadStrategy{name: "regional_files", load: r.concatRegions})
}

func (r *Repository) loadMerged(ctx context.Context) (*domain.ExpenditureTable, string, error) {
	loadErr := &LoadError{}
	for _, s := range r.strategies() {
		table, err := s.load(ctx)
		if err == nil {
			return table, s.name, nil
		}
		r.logger.WarnContext(ctx, "merged table strategy failed",
			slog.String("strategy", s.name),
			slog.String("error", err.Error()))
		loadErr.Attempts = append(loadErr.Attempts, &StrategyError{Strategy: s.name, Err: err})
	}
	return nil, "", loadErr
}

// readMergedFile reads the pre-merged spreadsheet. The file carries no
// region column, so regions are resolved from whichever regional tables
// can be loaded; unresolved countries are tagged unknown.
func (r *Repository) readMergedFile(ctx context.Context) (*domain.ExpenditureTable, error) {
	path := r.cfg.MergedFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.cfg.DataDir, path)
	}
	if !files.IsSpreadsheet(path) {
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported merged file %s", path), nil)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewStorageError("merged file unavailable", err).WithContext("path", path)
	}

	table, _, err := ReadTable(path, CanonicalLayout(r.cfg.BaseYear, r.cfg.EndYear, domain.RegionUnknown))
	if err != nil {
		return nil, err
	}

	regionOf := make(map[string]domain.Region)
	for _, region := range domain.AllRegions() {
		regional, err := r.Load(ctx, string(region))
		if err != nil {
			r.logger.DebugContext(ctx, "region unavailable for tagging",
				slog.String("region", string(region)),
				slog.String("error", err.Error()))
			continue
		}
		for _, row := range regional.Rows {
			if _, ok := regionOf[row.Country]; !ok {
				regionOf[row.Country] = region
			}
		}
	}
	for i := range table.Rows {
		if region, ok := regionOf[table.Rows[i].Country]; ok {
			table.Rows[i].Region = region
		}
	}
	return table, nil
}

// concatRegions rebuilds the merged table from the five regional tables
// in canonical region order.
func (r *Repository) concatRegions(ctx context.Context) (*domain.ExpenditureTable, error) {
	parts := make([]*domain.ExpenditureTable, 0, len(domain.AllRegions()))
	var errs []error
	for _, region := range domain.AllRegions() {
		table, err := r.Load(ctx, string(region))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parts = append(parts, table)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return domain.Concat(parts...), nil
}
