package config

import (
	"time"

	"milexcli/pkg/contracts"
)

// Application constants
const (
	AppName    = "milex"
	AppVersion = contracts.Version

	// Source layout
	DefaultBaseYear   = 1960
	DefaultEndYear    = 2022
	DefaultMergedFile = "current_data.xlsx"

	// Export artifacts
	AllDataFileName  = "all_military_data.json"
	SummaryFileName  = "years_summary.json"
	MetadataFileName = "country_metadata.json"
	YearFilePattern  = "year_%d.json"

	DefaultMetadataSampleYear = 2020
	DefaultExportWorkers      = 4

	// Directories
	DefaultDataDir   = "data"
	DefaultOutputDir = "output"
	DefaultLogsDir   = "logs"

	// HTTP
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultRateLimit       = 100
	DefaultBurstSize       = 50

	// Environment
	EnvPrefix     = "MILEX"
	EnvConfigFile = "MILEX_CONFIG"
)
