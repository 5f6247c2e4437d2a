package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configPaths lists the config search locations, highest priority first.
var configPaths = []string{
	"./.logwhy.yaml",
	"~/.config/logwhy/config.yaml",
}

// Load builds the effective configuration: defaults, then the first
// config file found (or customPath when given), then environment
// overrides, then validation.
func Load(customPath string) (*Config, error) {
	cfg := DefaultConfig()

	if customPath != "" {
		if err := loadFromFile(cfg, customPath); err != nil {
			return nil, fmt.Errorf("load config %s: %w", customPath, err)
		}
	} else {
		for _, path := range configPaths {
			expanded := expandPath(path)
			if _, err := os.Stat(expanded); err != nil {
				continue
			}
			if err := loadFromFile(cfg, expanded); err != nil {
				return nil, fmt.Errorf("load config %s: %w", expanded, err)
			}
			break
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOGWHY_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("LOGWHY_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := os.Getenv("LOGWHY_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("LOGWHY_ENDPOINT"); v != "" {
		cfg.AI.Endpoint = v
	}
	if v := os.Getenv("LOGWHY_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AI.Concurrency = n
		}
	}
	if v := os.Getenv("LOGWHY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AI.Timeout = d
		}
	}
	if v := os.Getenv("LOGWHY_CACHE"); v != "" {
		cfg.AI.CacheEnabled = v != "0" && !strings.EqualFold(v, "false")
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// WriteStarter writes a commented starter config to path, refusing to
// overwrite an existing file.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
