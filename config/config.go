// Package config loads process settings from the environment and chart
// settings from a YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"sgc-analytics/internal/alert"
	"sgc-analytics/internal/model"
	"sgc-analytics/internal/render"
	"sgc-analytics/internal/stability"
	"sgc-analytics/internal/validate"
	"sgc-analytics/internal/variance"
)

// Config holds all process configuration loaded from environment variables.
type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	// Session persistence
	SessionBackend string `env:"SESSION_BACKEND" envDefault:"memory" validate:"oneof=memory sqlite redis"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"data/samples.db" validate:"required"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0" validate:"min=0,max=15"`

	// Pipeline
	Retention   int    `env:"RETENTION" envDefault:"200" validate:"min=1,max=100000"`
	CacheSize   int    `env:"CACHE_SIZE" envDefault:"32" validate:"min=1,max=4096"`
	ChartConfig string `env:"CHART_CONFIG"`

	// Notifications
	AlertWebhookURL string `env:"ALERT_WEBHOOK_URL" validate:"omitempty,url"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("validate env: %w", err)
	}
	return &c, nil
}

// ChartFile is the YAML chart configuration.
type ChartFile struct {
	Settings    render.Settings            `yaml:"settings"`
	Governance  stability.GovernanceConfig `yaml:"governance"`
	Variance    variance.Options           `yaml:"variance"`
	Alerts      []model.ThresholdAlert     `yaml:"alerts" validate:"dive"`
	Annotations []model.Annotation         `yaml:"annotations" validate:"dive"`
}

// DefaultChartFile is used when no file is configured.
func DefaultChartFile() *ChartFile {
	cf := &ChartFile{
		Settings:   render.DefaultSettings(),
		Governance: stability.DefaultConfig(),
		Alerts:     []model.ThresholdAlert{alert.DefaultHighEscalation()},
	}
	if err := validate.Defaults(&cf.Variance); err != nil {
		panic(fmt.Sprintf("config: variance defaults: %v", err))
	}
	return cf
}

// LoadChartFile reads and parses a YAML chart file. An empty path yields
// the defaults.
func LoadChartFile(path string) (*ChartFile, error) {
	if path == "" {
		return DefaultChartFile(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart config: %w", err)
	}
	return ParseChartFile(b)
}

// ParseChartFile decodes b over the defaults, so omitted keys keep them,
// then validates the result.
func ParseChartFile(b []byte) (*ChartFile, error) {
	cf := DefaultChartFile()
	if err := yaml.Unmarshal(b, cf); err != nil {
		return nil, fmt.Errorf("parse chart config: %w", err)
	}
	if err := validate.Struct(cf); err != nil {
		return nil, fmt.Errorf("validate chart config: %w", err)
	}
	return cf, nil
}
