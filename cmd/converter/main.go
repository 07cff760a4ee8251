package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"

	"milexcli/internal/config"
	"milexcli/internal/exporter"
	"milexcli/internal/infrastructure"
	"milexcli/internal/operations"
	"milexcli/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run converts every spreadsheet of the input directory to JSON and writes
// the country metadata. It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("converter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baseDir := fs.String("base", "", "base directory for relative paths (defaults to the working directory)")
	inDir := fs.String("in", "", "directory containing the regional .xlsx/.csv files (defaults to the data directory)")
	outDir := fs.String("out", "", "output directory for the JSON files")
	workers := fs.Int("workers", 0, "number of files converted concurrently")
	baseYear := fs.Int("base-year", 0, "year of the first value column")
	endYear := fs.Int("end-year", 0, "year of the last value column")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return operations.ExitSetupFailure
	}
	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString("converter"))
		return operations.ExitOK
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return operations.ExitSetupFailure
	}
	if *baseDir != "" {
		cfg.Paths.BaseDir = *baseDir
	}
	if *inDir != "" {
		cfg.Export.InputDir = *inDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}
	if *workers > 0 {
		cfg.Export.Workers = *workers
	}
	if *baseYear > 0 {
		cfg.Data.BaseYear = *baseYear
	}
	if *endYear > 0 {
		cfg.Data.EndYear = *endYear
	}
	if cfg.Data.EndYear < cfg.Data.BaseYear {
		fmt.Fprintf(stderr, "Error: end year %d precedes base year %d\n", cfg.Data.EndYear, cfg.Data.BaseYear)
		return operations.ExitSetupFailure
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize logger: %v\n", err)
		return operations.ExitSetupFailure
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		logger.Error("failed to resolve paths", slog.String("error", err.Error()))
		return operations.ExitSetupFailure
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("failed to create output directories", slog.String("error", err.Error()))
		return operations.ExitSetupFailure
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(config.MetricsConfig{
		TracingEnabled: cfg.Metrics.TracingEnabled,
	}), logger)
	if err != nil {
		logger.Error("failed to initialize telemetry", slog.String("error", err.Error()))
		return operations.ExitSetupFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()
	metrics, err := infrastructure.NewMetrics(providers.Meter)
	if err != nil {
		logger.Error("failed to create metrics", slog.String("error", err.Error()))
		return operations.ExitSetupFailure
	}

	converter := exporter.NewConverter(paths, exporter.ConverterOptions{
		BaseYear: cfg.Data.BaseYear,
		EndYear:  cfg.Data.EndYear,
		Workers:  cfg.Export.Workers,
	}, logger, metrics)
	convertStep := operations.NewConvertStep(converter, logger)

	registry := operations.NewRegistry()
	if err := registry.Register(convertStep); err != nil {
		logger.Error("failed to register step", slog.String("error", err.Error()))
		return operations.ExitSetupFailure
	}
	generator := exporter.NewMetadataGenerator(paths, cfg.Export.MetadataSampleYear, logger)
	if err := registry.Register(operations.NewMetadataStep(generator, logger)); err != nil {
		logger.Error("failed to register step", slog.String("error", err.Error()))
		return operations.ExitSetupFailure
	}

	logger.InfoContext(ctx, "conversion started",
		slog.String("input_dir", paths.InputDir),
		slog.String("output_dir", paths.OutputDir),
		slog.Int("workers", cfg.Export.Workers))

	summary := operations.NewRunner(registry, logger, metrics).Run(ctx)

	if report := convertStep.Report(); report != nil && len(report.Files) > 0 {
		renderFiles(stdout, report)
	}
	summary.Render(stdout)
	return summary.ExitCode()
}

func renderFiles(w io.Writer, report *exporter.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Region", "Rows", "Output", "Error"})
	table.SetAutoWrapText(false)
	for _, f := range report.Files {
		errText := ""
		if f.Err != nil {
			errText = f.Err.Error()
		}
		table.Append([]string{f.File, f.Region, fmt.Sprint(f.Rows), f.Output, errText})
	}
	table.Render()
}
