package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"milexcli/internal/config"
	"milexcli/internal/dataprocessing"
	apperrors "milexcli/internal/errors"
	"milexcli/internal/files"
	"milexcli/internal/infrastructure"
	"milexcli/pkg/contracts/domain"
)

// ConverterOptions tunes a conversion run
type ConverterOptions struct {
	BaseYear int
	EndYear  int
	Workers  int
}

// FileResult is the outcome of converting one spreadsheet
type FileResult struct {
	File     string        `json:"file"`
	Region   string        `json:"region"`
	Rows     int           `json:"rows"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`

	table *domain.ExpenditureTable
}

// OK reports whether the file converted successfully
func (r FileResult) OK() bool {
	return r.Err == nil
}

// Report summarizes a conversion run
type Report struct {
	Files     []FileResult
	Artifacts []string
	Duration  time.Duration
}

// Succeeded lists the converted file names in input order
func (r *Report) Succeeded() []string {
	var names []string
	for _, f := range r.Files {
		if f.OK() {
			names = append(names, f.File)
		}
	}
	return names
}

// Failed lists the file names that could not be converted
func (r *Report) Failed() []string {
	var names []string
	for _, f := range r.Files {
		if !f.OK() {
			names = append(names, f.File)
		}
	}
	return names
}

// Converter turns the source spreadsheets into the JSON artifacts served to
// the web frontend.
type Converter struct {
	paths     *config.Paths
	opts      ConverterOptions
	logger    *slog.Logger
	metrics   *infrastructure.Metrics
	discovery *files.Discovery
}

// NewConverter creates a converter. metrics may be nil.
func NewConverter(paths *config.Paths, opts ConverterOptions, logger *slog.Logger, metrics *infrastructure.Metrics) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = config.DefaultExportWorkers
	}
	if opts.BaseYear == 0 {
		opts.BaseYear = config.DefaultBaseYear
	}
	if opts.EndYear == 0 {
		opts.EndYear = config.DefaultEndYear
	}
	return &Converter{
		paths:     paths,
		opts:      opts,
		logger:    logger.With(slog.String("component", "converter")),
		metrics:   metrics,
		discovery: files.NewDiscovery(""),
	}
}

// Run converts every spreadsheet of the input directory. Each file is
// written to <base>.json independently; failures are recorded in the
// report and never stop the batch. Once all files are done the union,
// per-year and summary artifacts are written from the successful files.
//
// The returned error is non-nil when no input exists (wrapping
// ErrNoInputFiles) or when a union artifact cannot be written.
func (c *Converter) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	inputs, err := c.discoverInputs()
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "converting spreadsheets",
		slog.String("input_dir", c.paths.InputDir),
		slog.String("output_dir", c.paths.OutputDir),
		slog.Int("files", len(inputs)),
		slog.Int("workers", c.opts.Workers))

	results := make([]FileResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = c.convertFile(gctx, in)
			return nil // per-file failures are reported, not propagated
		})
	}
	_ = g.Wait()

	report := &Report{Files: results}
	tables := make([]*domain.ExpenditureTable, 0, len(results))
	for _, r := range results {
		if r.OK() {
			tables = append(tables, r.table)
			report.Artifacts = append(report.Artifacts, r.Output)
		}
	}

	if len(tables) > 0 {
		artifacts, err := c.writeUnion(ctx, domain.Concat(tables...))
		report.Artifacts = append(report.Artifacts, artifacts...)
		if err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
	} else {
		c.logger.WarnContext(ctx, "no spreadsheet converted, skipping union artifacts")
	}

	report.Duration = time.Since(start)
	c.logger.InfoContext(ctx, "conversion finished",
		slog.Int("succeeded", len(report.Succeeded())),
		slog.Int("failed", len(report.Failed())),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// discoverInputs lists the source spreadsheets, leaving out the pre-merged
// file so its rows are not counted twice.
func (c *Converter) discoverInputs() ([]files.FileInfo, error) {
	found, err := c.discovery.FindSpreadsheets(c.paths.InputDir)
	if err != nil {
		return nil, fmt.Errorf("%w in %s: %v", apperrors.ErrNoInputFiles, c.paths.InputDir, err)
	}

	merged := filepath.Clean(c.paths.MergedFile)
	inputs := make([]files.FileInfo, 0, len(found))
	for _, f := range found {
		if filepath.Clean(f.Path) == merged {
			c.logger.Debug("skipping merged spreadsheet", slog.String("file", f.Name))
			continue
		}
		inputs = append(inputs, f)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w in %s", apperrors.ErrNoInputFiles, c.paths.InputDir)
	}
	return inputs, nil
}

func (c *Converter) convertFile(ctx context.Context, in files.FileInfo) FileResult {
	start := time.Now()
	res := FileResult{File: in.Name, Region: in.Base}

	finish := func(err error) FileResult {
		res.Err = err
		res.Duration = time.Since(start)
		c.metrics.RecordExportFile(ctx, err == nil)
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to convert spreadsheet",
				slog.String("file", in.Name),
				slog.String("error", err.Error()))
		} else {
			c.logger.InfoContext(ctx, "spreadsheet converted",
				slog.String("file", in.Name),
				slog.Int("countries", res.Rows),
				slog.String("output", res.Output))
		}
		return res
	}

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	// Continent is the source file's base name, whatever it is.
	layout := dataprocessing.CanonicalLayout(c.opts.BaseYear, c.opts.EndYear, domain.Region(in.Base))
	table, skipped, err := dataprocessing.ReadTable(in.Path, layout)
	if err != nil {
		return finish(err)
	}
	if skipped > 0 {
		c.logger.DebugContext(ctx, "skipped rows without country",
			slog.String("file", in.Name),
			slog.Int("skipped", skipped))
	}

	out := c.paths.FileJSON(in.Base)
	if err := writeJSON(out, tableRecords(table)); err != nil {
		return finish(apperrors.NewStorageError("failed to write "+filepath.Base(out), err).WithContext("path", out))
	}

	res.Rows = table.Len()
	res.Output = out
	res.table = table
	return finish(nil)
}

// writeUnion writes all_military_data.json, one year_<Y>.json per canonical
// year and years_summary.json.
func (c *Converter) writeUnion(ctx context.Context, union *domain.ExpenditureTable) ([]string, error) {
	var written []string

	if err := writeJSON(c.paths.AllDataJSON, tableRecords(union)); err != nil {
		return written, apperrors.NewStorageError("failed to write union data", err).WithContext("path", c.paths.AllDataJSON)
	}
	written = append(written, c.paths.AllDataJSON)

	summary := make(orderedObject, 0, len(union.Years))
	for _, year := range union.Years {
		records, count, total := yearRecords(union, year)
		path := c.paths.YearJSON(year)
		if err := writeJSON(path, records); err != nil {
			return written, apperrors.NewStorageError("failed to write year data", err).WithContext("path", path)
		}
		written = append(written, path)
		summary = append(summary, field{strconv.Itoa(year), yearSummaryEntry{
			TotalCountries:   count,
			File:             filepath.Base(path),
			TotalExpenditure: total,
		}})
	}

	if err := writeJSON(c.paths.SummaryJSON, summary); err != nil {
		return written, apperrors.NewStorageError("failed to write years summary", err).WithContext("path", c.paths.SummaryJSON)
	}
	written = append(written, c.paths.SummaryJSON)

	c.logger.InfoContext(ctx, "union artifacts written",
		slog.Int("countries", union.Len()),
		slog.Int("years", len(union.Years)))
	return written, nil
}
