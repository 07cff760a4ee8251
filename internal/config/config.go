package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "milexcli/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system locations. Relative entries are
// resolved against BaseDir, or the working directory when BaseDir is empty.
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// DataConfig describes the layout of the source spreadsheets
type DataConfig struct {
	BaseYear   int    `yaml:"base_year" envconfig:"BASE_YEAR"`
	EndYear    int    `yaml:"end_year" envconfig:"END_YEAR"`
	MergedFile string `yaml:"merged_file" envconfig:"MERGED_FILE"`
}

// ExportConfig controls the batch converter
type ExportConfig struct {
	InputDir           string `yaml:"input_dir" envconfig:"INPUT_DIR"`
	Workers            int    `yaml:"workers" envconfig:"WORKERS"`
	MetadataSampleYear int    `yaml:"metadata_sample_year" envconfig:"METADATA_SAMPLE_YEAR"`
}

// MetricsConfig controls OpenTelemetry exporters
type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"ENABLED"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	Path           string `yaml:"path" envconfig:"PATH"`
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in increasing order of precedence. A .env file in the
// working directory is loaded first when present. Failures are
// *errors.AppError values of type CONFIG.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config file", err).
				WithContext("path", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if c.Data.BaseYear <= 0 {
		return fmt.Errorf("invalid base year: %d", c.Data.BaseYear)
	}
	if c.Data.EndYear < c.Data.BaseYear {
		return fmt.Errorf("end year %d precedes base year %d", c.Data.EndYear, c.Data.BaseYear)
	}
	if c.Export.Workers <= 0 {
		return fmt.Errorf("export workers must be positive, got %d", c.Export.Workers)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
		c.Logging.Output = strings.ToLower(c.Logging.Output)
	default:
		return fmt.Errorf("invalid logging output %q (expected console, file or both)", c.Logging.Output)
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	return nil
}

// YearCount returns the number of canonical year columns
func (c *Config) YearCount() int {
	return c.Data.EndYear - c.Data.BaseYear + 1
}

// getConfigFilePath returns MILEX_CONFIG when set, otherwise the first
// config.yaml found in the usual locations.
func getConfigFilePath() string {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:   DefaultDataDir,
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Data: DataConfig{
			BaseYear:   DefaultBaseYear,
			EndYear:    DefaultEndYear,
			MergedFile: DefaultMergedFile,
		},
		Export: ExportConfig{
			Workers:            DefaultExportWorkers,
			MetadataSampleYear: DefaultMetadataSampleYear,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
