// Package config resolves the settings every kb-yarn invocation runs with:
// the yarn executable, the manifest search depth, logging, and the project
// root found next to package.json. Settings come from an optional YAML file
// at <UserConfigDir>/kb-yarn/config.yaml and are resolved once per process.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kb-labs/yarn/internal/manifest"
)

const (
	appDir       = "kb-yarn"
	configFile   = "config.yaml"
	defaultBin   = "yarn"
	defaultDepth = 1
)

// Config is the explicit configuration passed to the dispatcher and resolver.
// Root and ManifestPath are filled by Resolve and never read from the file.
type Config struct {
	Bin      string `yaml:"bin"`
	LogLevel string `yaml:"logLevel,omitempty"`
	LogDir   string `yaml:"logDir,omitempty"`
	Depth    int    `yaml:"depth"`
	Strict   bool   `yaml:"strict"`

	Root         string `yaml:"-"`
	ManifestPath string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Bin:   defaultBin,
		Depth: defaultDepth,
	}
}

// Path returns the location of the user config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, appDir, configFile), nil
}

// DefaultLogDir returns <UserCacheDir>/kb-yarn/logs, or "" when no cache dir exists.
func DefaultLogDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, "logs")
}

// Read loads the config at path on top of Default. A missing file is not an error.
func Read(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Write persists cfg as YAML to path, creating parent directories.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.Bin == "" {
		return errors.New("bin must not be empty")
	}
	if c.Depth < 0 {
		return fmt.Errorf("depth must be >= 0, got %d", c.Depth)
	}
	return nil
}

// Resolve searches upward from cwd for package.json and fixes Root to its
// directory. Without a manifest Root falls back to cwd and ManifestPath stays
// empty, so only commands that need the manifest fail.
func (c *Config) Resolve(cwd string) error {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", cwd, err)
	}

	path, err := manifest.Find(abs, c.Depth)
	switch {
	case err == nil:
		c.ManifestPath = path
		c.Root = filepath.Dir(path)
	case errors.Is(err, manifest.ErrNotFound):
		c.ManifestPath = ""
		c.Root = abs
	default:
		return err
	}
	return nil
}
