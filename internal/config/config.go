package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "evsales/internal/errors"
	"evsales/pkg/contracts/domain"
)

// Config represents the complete application configuration.
// Leaf fields derive their env names from split_words so a missing
// EVSALES_ key never falls back to a bare variable such as PATH.
type Config struct {
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Columns   ColumnsConfig   `yaml:"columns" envconfig:"COLUMNS"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Charts    ChartsConfig    `yaml:"charts" envconfig:"CHARTS"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// InputConfig describes the dataset to load
type InputConfig struct {
	Path  string `yaml:"path" split_words:"true"`
	Sort  bool   `yaml:"sort" split_words:"true"`
	Sheet string `yaml:"sheet" split_words:"true"`
}

// ColumnsConfig maps each record field to its header in the input file
type ColumnsConfig struct {
	Year                string `yaml:"year" split_words:"true" validate:"required"`
	Month               string `yaml:"month" split_words:"true" validate:"required"`
	Region              string `yaml:"region" split_words:"true" validate:"required"`
	Model               string `yaml:"model" split_words:"true" validate:"required"`
	EstimatedDeliveries string `yaml:"estimated_deliveries" split_words:"true" validate:"required"`
	ProductionUnits     string `yaml:"production_units" split_words:"true" validate:"required"`
	AvgPriceUSD         string `yaml:"avg_price_usd" split_words:"true" validate:"required"`
	BatteryCapacityKWh  string `yaml:"battery_capacity_kwh" split_words:"true" validate:"required"`
	RangeKM             string `yaml:"range_km" split_words:"true" validate:"required"`
	ChargingStations    string `yaml:"charging_stations" split_words:"true" validate:"required"`
	Date                string `yaml:"date" split_words:"true" validate:"required"`
}

// ExportConfig controls per-region file output
type ExportConfig struct {
	OutDir     string `yaml:"out_dir" split_words:"true" validate:"required"`
	Prefix     string `yaml:"prefix" split_words:"true"`
	WriteIndex bool   `yaml:"write_index" split_words:"true"`
	BOM        bool   `yaml:"bom" split_words:"true"`
	Workbook   string `yaml:"workbook" split_words:"true"`
}

// ChartsConfig controls chart rendering
type ChartsConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	Format  string  `yaml:"format" split_words:"true" validate:"oneof=png html"`
	OutDir  string  `yaml:"out_dir" split_words:"true" validate:"required"`
	Width   float64 `yaml:"width" split_words:"true" validate:"gt=0"`
	Height  float64 `yaml:"height" split_words:"true" validate:"gt=0"`
}

// ReportConfig controls the console narrative
type ReportConfig struct {
	Explain    bool     `yaml:"explain" split_words:"true"`
	PrintStats bool     `yaml:"print_stats" split_words:"true"`
	Region     string   `yaml:"region" split_words:"true"`
	Analyses   []string `yaml:"analyses" split_words:"true"`
	Categories []string `yaml:"categories" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
}

// ServerConfig contains HTTP server configuration for the local viewer
type ServerConfig struct {
	Addr            string          `yaml:"addr" split_words:"true" validate:"required"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" split_words:"true" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" split_words:"true" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true" validate:"gt=0"`
	Burst   int     `yaml:"burst" split_words:"true" validate:"gt=0"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" split_words:"true" validate:"required"`
	Tracing     string `yaml:"tracing" split_words:"true" validate:"oneof=stdout none"`
	Metrics     string `yaml:"metrics" split_words:"true" validate:"oneof=prometheus none"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path: DefaultInputFile,
			Sort: true,
		},
		Columns: DefaultColumns(),
		Export: ExportConfig{
			OutDir:     DefaultExportDir,
			Prefix:     DefaultExportPrefix,
			WriteIndex: true,
		},
		Charts: ChartsConfig{
			Enabled: true,
			Format:  "png",
			OutDir:  DefaultChartsDir,
			Width:   12,
			Height:  6,
		},
		Report: ReportConfig{
			Explain:    true,
			PrintStats: true,
			Categories: []string{string(domain.ColRegion), string(domain.ColModel)},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "console",
			FilePath: "logs/evsales.log",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName: AppName,
			Tracing:     "none",
			Metrics:     "prometheus",
		},
	}
}

// DefaultColumns uses the canonical column names as headers.
func DefaultColumns() ColumnsConfig {
	return ColumnsConfig{
		Year:                string(domain.ColYear),
		Month:               string(domain.ColMonth),
		Region:              string(domain.ColRegion),
		Model:               string(domain.ColModel),
		EstimatedDeliveries: string(domain.ColEstimatedDeliveries),
		ProductionUnits:     string(domain.ColProductionUnits),
		AvgPriceUSD:         string(domain.ColAvgPriceUSD),
		BatteryCapacityKWh:  string(domain.ColBatteryCapacityKWh),
		RangeKM:             string(domain.ColRangeKM),
		ChargingStations:    string(domain.ColChargingStations),
		Date:                string(domain.ColDate),
	}
}

// Schema builds the header mapping used by the loader and the exporters.
func (c ColumnsConfig) Schema() domain.Schema {
	return domain.DefaultSchema().
		WithHeader(domain.ColYear, c.Year).
		WithHeader(domain.ColMonth, c.Month).
		WithHeader(domain.ColRegion, c.Region).
		WithHeader(domain.ColModel, c.Model).
		WithHeader(domain.ColEstimatedDeliveries, c.EstimatedDeliveries).
		WithHeader(domain.ColProductionUnits, c.ProductionUnits).
		WithHeader(domain.ColAvgPriceUSD, c.AvgPriceUSD).
		WithHeader(domain.ColBatteryCapacityKWh, c.BatteryCapacityKWh).
		WithHeader(domain.ColRangeKM, c.RangeKM).
		WithHeader(domain.ColChargingStations, c.ChargingStations).
		WithHeader(domain.ColDate, c.Date)
}

// Load builds the configuration from defaults, then the YAML file, then
// EVSALES_* environment variables, and validates the result. An empty path
// searches the default locations and falls back to defaults when none exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto c. Keys absent from the file keep
// their current value.
func (c *Config) loadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Validate checks every section against its struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return apperrors.NewConfigError("config validation failed", err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, formatFieldError(fe))
		}
		return apperrors.NewConfigError("config validation failed: "+strings.Join(msgs, "; "), err).
			WithContext("fields", msgs)
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// getConfigFilePath returns the first config file found in the default locations
func getConfigFilePath() string {
	for _, location := range DefaultConfigLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
