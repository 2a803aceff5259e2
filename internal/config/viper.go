package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// TimeoutEnv is the environment variable honoured for the D-Bus timeout.
const TimeoutEnv = "STRATIS_DBUS_TIMEOUT"

// SkipVersionCheckEnv disables the stratisd version gate when set.
const SkipVersionCheckEnv = "STRATIS_SKIP_VERSION_CHECK"

// EnvPrefix is the prefix for every other environment override.
const EnvPrefix = "STRATCTL"

// NewViper returns a viper instance with defaults and environment
// bindings in place. Flags are bound separately with BindFlags.
func NewViper() *viper.Viper {
	v := viper.New()

	d := Defaults()
	v.SetDefault("timeout", d.TimeoutMillis)
	v.SetDefault("bus", d.Bus)
	v.SetDefault("output", d.Output)
	v.SetDefault("unhyphenated_uuids", d.UnhyphenatedUUIDs)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("propagate", d.Propagate)
	v.SetDefault("skip_version_check", d.SkipVersionCheck)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	_ = v.BindEnv("timeout", TimeoutEnv, EnvPrefix+"_TIMEOUT")
	_ = v.BindEnv("skip_version_check", SkipVersionCheckEnv, EnvPrefix+"_SKIP_VERSION_CHECK")

	return v
}

// BindFlags binds each config key to the flag of the same name with
// dashes, when the flag set defines it.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	keys := map[string]string{
		"timeout":            "timeout",
		"bus":                "bus",
		"output":             "output",
		"unhyphenated_uuids": "unhyphenated-uuids",
		"log_level":          "log-level",
		"propagate":          "propagate",
		"skip_version_check": "skip-version-check",
	}
	for key, flag := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// FromViper reads the config file (if any) into v and returns the
// validated result. An explicit path must exist; the default path is
// optional.
func FromViper(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// The timeout arrives as a string from the environment; parse it
	// the same way the flag is parsed so errors read alike.
	timeout, err := ParseTimeout(v.GetString("timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid config: timeout: %w", err)
	}

	cfg := Config{
		TimeoutMillis:     timeout,
		Bus:               v.GetString("bus"),
		Output:            v.GetString("output"),
		UnhyphenatedUUIDs: v.GetBool("unhyphenated_uuids"),
		LogLevel:          v.GetString("log_level"),
		Propagate:         v.GetBool("propagate"),
		SkipVersionCheck:  v.GetBool("skip_version_check"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
