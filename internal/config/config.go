package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the config file created by `finchat init`.
const FileName = "finchat.yaml"

// Environment variables that override the config file.
const (
	EnvGatewayURL     = "FINCHAT_GATEWAY_URL"
	EnvGatewayTimeout = "FINCHAT_GATEWAY_TIMEOUT"
	EnvLogLevel       = "FINCHAT_LOG_LEVEL"
)

// Config represents the top-level finchat.yaml configuration.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Budgets   BudgetsConfig   `yaml:"budgets"`
	Import    ImportConfig    `yaml:"import"`
	Log       LogConfig       `yaml:"log"`
}

// GatewayConfig locates the summary gateway.
type GatewayConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 means no timeout
}

// DashboardConfig controls the dashboard views.
type DashboardConfig struct {
	TopMerchants   int    `yaml:"top_merchants"`
	ChartLimit     int    `yaml:"chart_limit"`
	CurrencySymbol string `yaml:"currency_symbol"`
	Locale         string `yaml:"locale"`
}

// BudgetsConfig lists the categories a budget can be set for.
type BudgetsConfig struct {
	Categories    []string `yaml:"categories"`
	DefaultAmount string   `yaml:"default_amount"`
}

// ImportConfig points at the directory scanned for ledger CSVs.
type ImportConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Load reads a finchat.yaml file from disk. Fields the file omits keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault reads path, falling back to Default when the file does not
// exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			BaseURL: "http://localhost:8000",
		},
		Dashboard: DashboardConfig{
			TopMerchants:   5,
			ChartLimit:     10,
			CurrencySymbol: "₹",
			Locale:         "en-IN",
		},
		Budgets: BudgetsConfig{
			Categories: []string{
				"Food", "Transport", "Shopping", "Entertainment", "Bills",
				"Education", "Health", "Investment", "Other",
			},
			DefaultAmount: "5000",
		},
		Import: ImportConfig{
			Dir: "import",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyEnv loads the given .env files (".env" when none are named) and then
// applies environment overrides. Missing .env files are ignored, and variables
// already set in the environment win over .env values.
func (c *Config) ApplyEnv(envFiles ...string) error {
	_ = godotenv.Load(envFiles...)

	if v := os.Getenv(EnvGatewayURL); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvGatewayTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvGatewayTimeout, v, err)
		}
		c.Gateway.Timeout = d
	}
	return nil
}

// Category returns the configured spelling of name, matched case-insensitively.
func (c *Config) Category(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, cat := range c.Budgets.Categories {
		if strings.EqualFold(cat, name) {
			return cat, true
		}
	}
	return "", false
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Gateway.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid gateway base_url %q: %w", c.Gateway.BaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid gateway base_url %q: must be an http or https URL", c.Gateway.BaseURL))
	}
	if c.Gateway.Timeout < 0 {
		errs = append(errs, fmt.Errorf("invalid gateway timeout %s: must not be negative", c.Gateway.Timeout))
	}

	if c.Dashboard.TopMerchants < 1 {
		errs = append(errs, fmt.Errorf("invalid dashboard top_merchants %d: must be at least 1", c.Dashboard.TopMerchants))
	}
	if c.Dashboard.ChartLimit < 1 {
		errs = append(errs, fmt.Errorf("invalid dashboard chart_limit %d: must be at least 1", c.Dashboard.ChartLimit))
	}

	if len(c.Budgets.Categories) == 0 {
		errs = append(errs, errors.New("budgets categories cannot be empty"))
	}
	seen := make(map[string]bool, len(c.Budgets.Categories))
	for _, cat := range c.Budgets.Categories {
		key := strings.ToLower(strings.TrimSpace(cat))
		switch {
		case key == "":
			errs = append(errs, errors.New("budgets categories cannot contain a blank name"))
		case seen[key]:
			errs = append(errs, fmt.Errorf("duplicate budget category %q", cat))
		}
		seen[key] = true
	}
	if d, err := decimal.NewFromString(c.Budgets.DefaultAmount); err != nil || !d.IsPositive() {
		errs = append(errs, fmt.Errorf("invalid budgets default_amount %q: must be a positive number", c.Budgets.DefaultAmount))
	}

	if c.Import.Dir == "" {
		errs = append(errs, errors.New("import dir cannot be empty"))
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of %v", c.Log.Level, logLevels))
	}

	return errors.Join(errs...)
}
