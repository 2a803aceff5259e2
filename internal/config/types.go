package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxTimeoutMillis is the largest timeout stratisd's bus accepts.
const MaxTimeoutMillis = 1073741823

// DefaultTimeoutMillis is used when no timeout is configured.
const DefaultTimeoutMillis = 120000

// DefaultPath is where the config file is looked up when --config is unset.
const DefaultPath = "/etc/stratctl/config.yaml"

// Config holds the settings that shape every command.
type Config struct {
	TimeoutMillis     int    `yaml:"timeout" mapstructure:"timeout"`                       // Per-call D-Bus timeout in ms; -1 disables it
	Bus               string `yaml:"bus" mapstructure:"bus"`                               // "system", "session" or a bus address
	Output            string `yaml:"output" mapstructure:"output"`                         // table, yaml or json
	UnhyphenatedUUIDs bool   `yaml:"unhyphenated_uuids" mapstructure:"unhyphenated_uuids"` // Print UUIDs without hyphens
	LogLevel          string `yaml:"log_level" mapstructure:"log_level"`
	Propagate         bool   `yaml:"propagate" mapstructure:"propagate"` // Print the raw error chain instead of an explanation
	SkipVersionCheck  bool   `yaml:"skip_version_check" mapstructure:"skip_version_check"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		TimeoutMillis: DefaultTimeoutMillis,
		Bus:           "system",
		Output:        "table",
		LogLevel:      "warn",
	}
}

// Timeout returns the configured timeout. A negative duration means the
// caller should not bound calls at all.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutMillis < 0 {
		return -1
	}
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validateTimeout(c.TimeoutMillis); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}

	if strings.TrimSpace(c.Bus) == "" {
		return fmt.Errorf("bus: %w", errors.New("must not be empty"))
	}

	switch c.Output {
	case "table", "yaml", "json":
	default:
		return fmt.Errorf("output: invalid format %q (valid formats: table, yaml, json)", c.Output)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}

	return nil
}

// ParseTimeout parses a timeout in milliseconds as given on the command
// line or in STRATIS_DBUS_TIMEOUT.
func ParseTimeout(value string) (int, error) {
	ms, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("timeout value %q is not an integer", value)
	}
	if err := validateTimeout(ms); err != nil {
		return 0, err
	}
	return ms, nil
}

func validateTimeout(ms int) error {
	if ms < -1 || ms > MaxTimeoutMillis {
		return fmt.Errorf("timeout value %d must be between -1 and %d, inclusive", ms, MaxTimeoutMillis)
	}
	if ms == 0 {
		return fmt.Errorf("timeout value 0 is not allowed; use -1 for no timeout")
	}
	return nil
}

// LoadFromFile reads and validates a YAML config file. Fields the file
// omits keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
