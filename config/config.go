/*
Package config loads server settings.

SOURCES (later wins):
  1. Defaults
  2. YAML file (optional)
  3. AMC_* environment variables
  4. Command-line flags (applied by cmd/server)

EXAMPLE FILE:
  port: 8080
  db: ./data/amc.db
  log:
    level: info
    format: json
  due_check:
    enabled: true
    schedule: "0 2 * * *"
    concurrency: 8
  cors:
    allowed_origins: ["http://localhost:5173"]
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     int            `yaml:"port"`
	DBPath   string         `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	DueCheck DueCheckConfig `yaml:"due_check"`
	CORS     CORSConfig     `yaml:"cors"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DueCheckConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Schedule    string `yaml:"schedule"` // five-field cron expression
	Concurrency int    `yaml:"concurrency"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() Config {
	return Config{
		Port:   8080,
		DBPath: "amc.db",
		Log:    LogConfig{Level: "info", Format: "text"},
		DueCheck: DueCheckConfig{
			Enabled:     true,
			Schedule:    "0 2 * * *",
			Concurrency: 8,
		},
		CORS: CORSConfig{AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"}},
	}
}

// Load reads the file and environment like Read and validates the result.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Read reads path (skipped when empty) on top of the defaults, then applies
// environment overrides. The result is not validated so callers can layer
// further overrides first.
func Read(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("AMC_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AMC_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v, ok := lookup("AMC_DB"); ok {
		cfg.DBPath = v
	}
	if v, ok := lookup("AMC_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup("AMC_LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := lookup("AMC_DUE_CHECK_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AMC_DUE_CHECK_ENABLED: %w", err)
		}
		cfg.DueCheck.Enabled = enabled
	}
	if v, ok := lookup("AMC_DUE_CHECK_SCHEDULE"); ok {
		cfg.DueCheck.Schedule = v
	}
	if v, ok := lookup("AMC_DUE_CHECK_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AMC_DUE_CHECK_CONCURRENCY: %w", err)
		}
		cfg.DueCheck.Concurrency = n
	}
	if v, ok := lookup("AMC_CORS_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.DueCheck.Enabled && strings.TrimSpace(c.DueCheck.Schedule) == "" {
		errs = append(errs, errors.New("due_check.schedule is required when enabled"))
	}
	if c.DueCheck.Concurrency < 0 {
		errs = append(errs, errors.New("due_check.concurrency must not be negative"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
