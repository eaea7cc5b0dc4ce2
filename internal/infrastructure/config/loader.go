// Package config loads YAML configuration from disk, seeding a commented
// default file on first run.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/aish/assets"
	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/pkg/filesystem"
	"github.com/doeshing/aish/internal/ports"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "AISH_CONFIG"

// FileLoader loads YAML configuration from ~/.aish/config.yaml.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path defers to the
// environment override, then the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return domain.Config{}, fmt.Errorf("create config directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
				return domain.Config{}, fmt.Errorf("write default config: %w", err)
			}
			data = assets.DefaultConfigYAML
		} else {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".aish", "config.yaml")
}

// hydrateDefaults fills zero values so partially written files keep working.
func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Security.PolicyFile == "" {
		cfg.Security.PolicyFile = filepath.Join(filesystem.UserHomeDir(), ".aish", "policy.yaml")
	}
	if cfg.Execution.TimeoutSeconds == 0 {
		cfg.Execution.TimeoutSeconds = int(domain.DefaultCommandTimeout.Seconds())
	}
	if cfg.Execution.HistorySize == 0 {
		cfg.Execution.HistorySize = domain.DefaultHistorySize
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "1h"
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = domain.DefaultMaxCacheEntries
	}
	if cfg.History.RetentionDays == 0 {
		cfg.History.RetentionDays = 90
	}
	if cfg.Workflows.Dir == "" {
		cfg.Workflows.Dir = filepath.Join(filesystem.UserHomeDir(), ".aish", "workflows")
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
