package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds every resolved, absolute file system location used by the
// tools. It is the single place where file names are joined to directories.
type Paths struct {
	BaseDir   string
	DataDir   string
	InputDir  string
	OutputDir string
	LogsDir   string

	// MergedFile is empty when the pre-merged spreadsheet is disabled
	MergedFile string

	// Export artifacts
	AllDataJSON  string
	SummaryJSON  string
	MetadataJSON string
}

// ResolvePaths resolves the configured directories. Relative entries are
// joined to Paths.BaseDir, or to the working directory when it is empty.
// The export input directory defaults to the data directory.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	dataDir := resolve(c.Paths.DataDir)
	mergedFile := ""
	if c.Data.MergedFile != "" {
		mergedFile = filepath.Join(dataDir, c.Data.MergedFile)
	}
	inputDir := dataDir
	if c.Export.InputDir != "" {
		inputDir = resolve(c.Export.InputDir)
	}
	outputDir := resolve(c.Paths.OutputDir)

	return &Paths{
		BaseDir:      base,
		DataDir:      dataDir,
		InputDir:     inputDir,
		OutputDir:    outputDir,
		LogsDir:      resolve(c.Paths.LogsDir),
		MergedFile:   mergedFile,
		AllDataJSON:  filepath.Join(outputDir, AllDataFileName),
		SummaryJSON:  filepath.Join(outputDir, SummaryFileName),
		MetadataJSON: filepath.Join(outputDir, MetadataFileName),
	}, nil
}

// YearJSON returns the per-year export path
func (p *Paths) YearJSON(year int) string {
	return filepath.Join(p.OutputDir, fmt.Sprintf(YearFilePattern, year))
}

// FileJSON returns the per-source-file export path for a base name
func (p *Paths) FileJSON(base string) string {
	return filepath.Join(p.OutputDir, base+".json")
}

// EnsureDirectories creates the output and log directories
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved locations at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("input", p.InputDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.String("merged_file", p.MergedFile),
	)
}
