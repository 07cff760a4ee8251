package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"

	"milexcli/internal/config"
	"milexcli/internal/dataprocessing"
	"milexcli/internal/exporter"
	"milexcli/internal/infrastructure"
	"milexcli/internal/services"
	"milexcli/pkg/contracts"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

// env is what every subcommand gets to work with
type env struct {
	service *services.ExpenditureService
	csv     *exporter.CSVWriter
	cfg     *config.Config
	stdout  io.Writer
	stderr  io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"top":       {"largest spenders of a year", runTop},
	"growth":    {"compound annual growth rate of a country", runGrowth},
	"compare":   {"side by side values of several countries", runCompare},
	"regional":  {"regional totals of a year", runRegional},
	"trend":     {"global totals over a year range", runTrend},
	"summary":   {"statistics of one year", runSummary},
	"countries": {"list every known country", runCountries},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baseDir := fs.String("base", "", "base directory for relative paths (defaults to the working directory)")
	dataDir := fs.String("data", "", "directory containing the regional spreadsheets")
	showVersion := fs.Bool("version", false, "print version information and exit")
	fs.Usage = func() { usage(fs, stderr) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString("query"))
		return exitOK
	}
	if fs.NArg() == 0 {
		usage(fs, stderr)
		return exitUsage
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", name)
		usage(fs, stderr)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if *baseDir != "" {
		cfg.Paths.BaseDir = *baseDir
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}

	// Logs go to stderr so tables and CSV paths on stdout stay clean.
	logger := infrastructure.NewLogger(stderr, infrastructure.ParseLogLevel(cfg.Logging.Level), false).
		With(slog.String("component", "query"))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	repo := dataprocessing.NewRepository(dataprocessing.RepositoryConfig{
		DataDir:    paths.DataDir,
		MergedFile: cfg.Data.MergedFile,
		BaseYear:   cfg.Data.BaseYear,
		EndYear:    cfg.Data.EndYear,
	}, logger, nil)

	e := &env{
		service: services.NewExpenditureService(repo, logger),
		csv:     exporter.NewCSVWriter(paths.OutputDir, logger),
		cfg:     cfg,
		stdout:  stdout,
		stderr:  stderr,
	}

	if err := cmd.run(ctx, e, fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return exitUsage
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Usage: query [flags] <command> [command flags]")
	fmt.Fprintln(w, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "\nFlags:")
	fs.PrintDefaults()
}

func newFlagSet(name string, e *env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// parse parses args and rejects stray positional arguments
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return errUsage
	}
	return nil
}

func requireFlag(fs *flag.FlagSet, name string, set bool) error {
	if !set {
		fmt.Fprintf(fs.Output(), "-%s is required\n", name)
		fs.PrintDefaults()
		return errUsage
	}
	return nil
}

func runTop(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("top", e)
	year := fs.Int("year", 0, "year to rank (required)")
	n := fs.Int("n", 10, "number of countries")
	csvPath := fs.String("csv", "", "also write the ranking to this CSV file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "year", *year != 0); err != nil {
		return err
	}

	ranked, err := e.service.TopCountries(ctx, *year, *n)
	if err != nil {
		return err
	}

	headers := []string{"Rank", "Country", "Region", "Expenditure"}
	records := make([][]string, 0, len(ranked))
	for i, cv := range ranked {
		records = append(records, []string{
			strconv.Itoa(i + 1),
			cv.Country,
			cv.Region.Label(),
			exporter.FormatFloat(cv.Value),
		})
	}
	return e.emit(headers, records, *csvPath)
}

func runGrowth(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("growth", e)
	country := fs.String("country", "", "country name (required)")
	start := fs.Int("start", e.cfg.Data.BaseYear, "start year")
	end := fs.Int("end", e.cfg.Data.EndYear, "end year")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "country", strings.TrimSpace(*country) != ""); err != nil {
		return err
	}

	result, err := e.service.Growth(ctx, *country, *start, *end)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "%s %d-%d: %.2f%% per year\n", result.Country, result.StartYear, result.EndYear, result.Rate)
	return nil
}

func runCompare(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("compare", e)
	countries := fs.String("countries", "", "comma separated country names (required)")
	start := fs.Int("start", e.cfg.Data.BaseYear, "start year")
	end := fs.Int("end", e.cfg.Data.EndYear, "end year")
	csvPath := fs.String("csv", "", "also write the comparison to this CSV file")
	if err := parse(fs, args); err != nil {
		return err
	}
	names := splitList(*countries)
	if err := requireFlag(fs, "countries", len(names) > 0); err != nil {
		return err
	}

	table, err := e.service.ComparisonTable(ctx, names, *start, *end)
	if err != nil {
		return err
	}

	headers := []string{"Country", "Region"}
	for _, y := range table.Years {
		headers = append(headers, strconv.Itoa(y))
	}
	records := make([][]string, 0, table.Len())
	for _, row := range table.Rows {
		record := []string{row.Country, row.Region.Label()}
		for _, v := range row.Values {
			record = append(record, formatCell(v.Amount, v.Valid))
		}
		records = append(records, record)
	}

	e.render(headers, records)
	if *csvPath != "" {
		written, err := e.csv.WriteTable(*csvPath, table)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Wrote %s\n", written)
	}
	return nil
}

func runRegional(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("regional", e)
	year := fs.Int("year", 0, "year (required)")
	region := fs.String("region", "", "only report this region key")
	csvPath := fs.String("csv", "", "also write the breakdown to this CSV file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "year", *year != 0); err != nil {
		return err
	}

	if *region != "" {
		total, err := e.service.RegionalTotal(ctx, *region, *year)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s (%s) %d: %s\n", total.Label, total.Region, total.Year, exporter.FormatFloat(total.Total))
		return nil
	}

	shares, err := e.service.RegionalBreakdown(ctx, *year)
	if err != nil {
		return err
	}
	headers := []string{"Region", "Label", "Total", "Percent"}
	records := make([][]string, 0, len(shares))
	for _, s := range shares {
		records = append(records, []string{
			string(s.Region),
			s.Label,
			exporter.FormatFloat(s.Total),
			exporter.FormatFloat(s.Percent),
		})
	}
	return e.emit(headers, records, *csvPath)
}

func runTrend(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("trend", e)
	start := fs.Int("start", e.cfg.Data.BaseYear, "start year")
	end := fs.Int("end", e.cfg.Data.EndYear, "end year")
	csvPath := fs.String("csv", "", "also write the series to this CSV file")
	if err := parse(fs, args); err != nil {
		return err
	}

	points, err := e.service.Trend(ctx, *start, *end)
	if err != nil {
		return err
	}
	headers := []string{"Year", "Expenditure"}
	records := make([][]string, 0, len(points))
	for _, p := range points {
		records = append(records, []string{strconv.Itoa(p.Year), exporter.FormatFloat(p.Total)})
	}
	return e.emit(headers, records, *csvPath)
}

func runSummary(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("summary", e)
	year := fs.Int("year", 0, "year (required)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "year", *year != 0); err != nil {
		return err
	}

	s, err := e.service.YearSummary(ctx, *year)
	if err != nil {
		return err
	}
	records := [][]string{
		{"Year", strconv.Itoa(s.Year)},
		{"Total", exporter.FormatFloat(s.Total)},
		{"Countries", strconv.Itoa(s.CountryCount)},
		{"Mean", exporter.FormatFloat(s.Mean)},
		{"Median", exporter.FormatFloat(s.Median)},
		{"90th percentile", exporter.FormatFloat(s.Percentile90)},
	}
	if s.PreviousTotal != nil {
		records = append(records, []string{"Previous total", exporter.FormatFloat(*s.PreviousTotal)})
	}
	if s.ChangePercent != nil {
		records = append(records, []string{"Change %", exporter.FormatFloat(*s.ChangePercent)})
	}
	e.render([]string{"Metric", "Value"}, records)
	return nil
}

func runCountries(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("countries", e)
	if err := parse(fs, args); err != nil {
		return err
	}

	names, err := e.service.Countries(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(e.stdout, name)
	}
	return nil
}

// emit renders the view and, when csvPath is set, writes it as CSV too
func (e *env) emit(headers []string, records [][]string, csvPath string) error {
	e.render(headers, records)
	if csvPath == "" {
		return nil
	}
	written, err := e.csv.WriteCSV(csvPath, exporter.WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Wrote %s\n", written)
	return nil
}

func (e *env) render(headers []string, records [][]string) {
	table := tablewriter.NewWriter(e.stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(records)
	table.Render()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatCell(amount float64, valid bool) string {
	if !valid {
		return ""
	}
	return exporter.FormatFloat(amount)
}
