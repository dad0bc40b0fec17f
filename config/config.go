package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-tariffs/models"
	"gopkg.in/yaml.v3"
)

// CanadaSurtaxURL is the Finance Canada list of US products subject to the 25% surtax.
const CanadaSurtaxURL = "https://www.canada.ca/en/department-finance/news/2025/02/list-of-products-from-the-united-states-subject-to-25-per-cent-tariffs-effective-february-4-2025.html"

// Config holds scraper configuration.
type Config struct {
	OutputDir   string          `yaml:"output_dir"`
	Timeout     time.Duration   `yaml:"timeout"`
	LogFile     string          `yaml:"log_file"`
	UserAgent   string          `yaml:"user_agent"`
	MetricsAddr string          `yaml:"metrics_addr"`
	Schedule    string          `yaml:"schedule"` // cron spec for the schedule command
	Verbose     bool            `yaml:"verbose"`
	Targets     []models.Target `yaml:"targets"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "tariff_data",
		Timeout:   30 * time.Second,
		LogFile:   "tariff_scraper.log",
		UserAgent: "Mozilla/5.0",
		Schedule:  "0 6 * * *",
		Targets:   DefaultTargets(),
	}
}

// DefaultTargets returns the built-in scrape targets.
func DefaultTargets() []models.Target {
	return []models.Target{
		models.NewTarget(CanadaSurtaxURL, models.Canada, "en", map[string]string{"User-Agent": "Mozilla/5.0"}),
	}
}

// Load reads a YAML file on top of the defaults. Targets in the file
// replace the built-in list.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Targets = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets()
	}
	for i := range cfg.Targets {
		if cfg.Targets[i].Encoding == "" {
			cfg.Targets[i].Encoding = models.DefaultEncoding
		}
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}
	for i, target := range c.Targets {
		if err := validateTarget(target); err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
	}
	return nil
}

func validateTarget(t models.Target) error {
	if t.URL == "" {
		return fmt.Errorf("target URL cannot be empty")
	}
	parsedURL, err := url.Parse(t.URL)
	if err != nil {
		return fmt.Errorf("invalid target URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("target URL must include a host")
	}
	if !t.Jurisdiction.Valid() {
		return fmt.Errorf("unknown jurisdiction %q", t.Jurisdiction)
	}
	return nil
}

// ApplyEnv overrides settings from TARIFF_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := EnvString("TARIFF_OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := EnvString("TARIFF_LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := EnvString("TARIFF_USER_AGENT"); ok {
		c.UserAgent = v
	}
	if v, ok := EnvString("TARIFF_METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := EnvString("TARIFF_SCHEDULE"); ok {
		c.Schedule = v
	}
	timeout, ok, err := EnvDuration("TARIFF_TIMEOUT")
	if err != nil {
		return err
	}
	if ok {
		c.Timeout = timeout
	}
	verbose, ok, err := EnvBool("TARIFF_VERBOSE")
	if err != nil {
		return err
	}
	if ok {
		c.Verbose = verbose
	}
	return nil
}

// EnvString returns the value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// EnvBool parses key as a boolean when it is set.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvDuration parses key as a Go duration when it is set.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}
