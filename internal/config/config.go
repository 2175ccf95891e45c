// Package config provides configuration loading and validation for dnsaudit.
//
// Configuration lives in a YAML file; the Infoblox password may instead be
// supplied through the INFOBLOX_PASSWORD environment variable or a .env file
// so credentials stay out of version-controlled config. Validate normalizes
// the loaded values and rejects combinations the audit cannot run with.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted when no explicit
// config path is given.
const EnvConfigPath = "DNSAUDIT_CONFIG"

// LoadDotEnv reads a .env file from the working directory, if present.
// A missing file is not an error; explicit environment wins over .env.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ResolveConfigPath picks the effective config path: the explicit argument,
// then $DNSAUDIT_CONFIG, then the conventional default.
func ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return "dnsaudit.yaml"
}

// Load reads and validates a YAML config file. An empty path loads defaults
// only (useful for zone-file audits that need no Infoblox access).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates and normalizes the configuration.
func (cfg *Config) Validate() error {
	// Secrets from the environment take precedence over the file.
	if pw := os.Getenv("INFOBLOX_PASSWORD"); pw != "" {
		cfg.Infoblox.Password = pw
	}
	if cfg.Infoblox.TimeoutSecs <= 0 {
		cfg.Infoblox.TimeoutSecs = 30
	}

	// Normalize audit settings
	if cfg.Audit.View == "" {
		cfg.Audit.View = "default"
	}
	if cfg.Audit.RangesFile == "" {
		cfg.Audit.RangesFile = "allowed_networks"
	}
	cfg.Audit.Source = strings.ToLower(strings.TrimSpace(cfg.Audit.Source))
	switch cfg.Audit.Source {
	case "":
		cfg.Audit.Source = "infoblox"
	case "infoblox", "zonefile":
	default:
		return fmt.Errorf("audit.source must be \"infoblox\" or \"zonefile\", got %q", cfg.Audit.Source)
	}
	if cfg.Audit.Source == "zonefile" && cfg.Audit.ZoneFile == "" {
		return errors.New("audit.zone_file is required when audit.source is \"zonefile\"")
	}
	if cfg.Audit.Workers < 0 {
		cfg.Audit.Workers = 0
	}

	// Normalize logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	// Normalize store
	if cfg.Store.Path == "" {
		cfg.Store.Path = "dnsaudit.db"
	}

	// Normalize results API
	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
	}

	return nil
}

// RequireInfoblox reports whether the configured source needs Infoblox
// credentials, and validates them when it does.
func (cfg *Config) RequireInfoblox() error {
	if cfg.Audit.Source != "infoblox" {
		return nil
	}
	if cfg.Infoblox.Host == "" {
		return errors.New("infoblox.host is required for the infoblox source")
	}
	if cfg.Infoblox.Username == "" || cfg.Infoblox.Password == "" {
		return errors.New("infoblox credentials are required (set infoblox.username and INFOBLOX_PASSWORD)")
	}
	return nil
}
