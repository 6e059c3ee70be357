package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Files names the machine log exports inside the data directory.
type Files struct {
	OEE      string `yaml:"oee"`
	Packages string `yaml:"packages"`
	Errors   string `yaml:"errors"`
	Recipes  string `yaml:"recipes"`
}

// ThroughputConfig parameterizes the weekly throughput report.
type ThroughputConfig struct {
	PlannedCyclesPerMinute float64 `yaml:"planned_cycles_per_minute"`
}

// ForecastConfig parameterizes the production forecast report.
type ForecastConfig struct {
	SeasonalPeriod int     `yaml:"seasonal_period"`
	Smoothing      float64 `yaml:"smoothing"`
	HorizonShifts  int     `yaml:"horizon_shifts"`
	Confidence     float64 `yaml:"confidence"`
	ShiftHours     int     `yaml:"shift_hours"`
	ReportingDays  int     `yaml:"reporting_days"`
	// CalendarStart is the first reporting label (a Monday), format
	// 2006-01-02. Labels advance weekly from it.
	CalendarStart string `yaml:"calendar_start"`
}

// Config is the full batch configuration.
type Config struct {
	DataDir      string           `yaml:"data_dir"`
	OutputDir    string           `yaml:"output_dir"`
	OutputFormat string           `yaml:"output_format"`
	DatabaseURL  string           `yaml:"database_url"`
	MetricsAddr  string           `yaml:"metrics_addr"`
	Files        Files            `yaml:"files"`
	Throughput   ThroughputConfig `yaml:"throughput"`
	Forecast     ForecastConfig   `yaml:"forecast"`
}

// Load reads config from the yaml file named by PACKLINE_CONFIG, with env
// fallbacks and defaults for everything not set.
func Load() (Config, error) {
	cfg := Config{
		DataDir:      getenvDefault("PACKLINE_DATA_DIR", "data"),
		OutputDir:    getenvDefault("PACKLINE_OUTPUT_DIR", filepath.FromSlash("output")),
		OutputFormat: getenvDefault("PACKLINE_OUTPUT_FORMAT", "csv"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		MetricsAddr:  os.Getenv("PACKLINE_METRICS_ADDR"),
		Files: Files{
			OEE:      "oee_data.csv",
			Packages: "package_data.csv",
			Errors:   "error_messages_timeline.csv",
			Recipes:  "recipe_data.csv",
		},
		Throughput: ThroughputConfig{
			PlannedCyclesPerMinute: getenvFloatDefault("PACKLINE_PLANNED_CYCLES", 10),
		},
		Forecast: ForecastConfig{
			SeasonalPeriod: 15,
			Smoothing:      0.3,
			HorizonShifts:  120,
			Confidence:     0.90,
			ShiftHours:     8,
			ReportingDays:  5,
		},
	}

	if path := os.Getenv("PACKLINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DataDir == "" && c.DatabaseURL == "" {
		return errors.New("config: data dir or database url required")
	}
	if c.OutputDir == "" {
		return errors.New("config: output dir required")
	}
	if c.Forecast.SeasonalPeriod < 2 {
		return fmt.Errorf("config: seasonal period %d too small", c.Forecast.SeasonalPeriod)
	}
	if c.Forecast.ShiftHours <= 0 || 24%c.Forecast.ShiftHours != 0 {
		return fmt.Errorf("config: shift hours %d must divide a day", c.Forecast.ShiftHours)
	}
	if c.Forecast.ReportingDays <= 0 {
		return fmt.Errorf("config: reporting days %d", c.Forecast.ReportingDays)
	}
	if c.Forecast.CalendarStart != "" {
		if _, err := time.Parse("2006-01-02", c.Forecast.CalendarStart); err != nil {
			return fmt.Errorf("config: calendar start: %w", err)
		}
	}
	return nil
}

// CalendarStartTime parses the configured first reporting label. The zero
// time means no calendar was configured and the caller derives one.
func (c ForecastConfig) CalendarStartTime() time.Time {
	if c.CalendarStart == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", c.CalendarStart)
	if err != nil {
		return time.Time{}
	}
	return t
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
