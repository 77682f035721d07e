// Package config handles configuration for verify-runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Supported drivers.
const (
	DriverPlaywright = "playwright"
	DriverRod        = "rod"
)

// Environment overrides.
const (
	EnvDriver   = "VERIFY_DRIVER"
	EnvHeadless = "VERIFY_HEADLESS"
	EnvOutput   = "VERIFY_OUTPUT"
)

// Defaults.
const (
	DefaultTimeout           = 5000
	DefaultNavigationTimeout = 30000
	DefaultViewportWidth     = 1280
	DefaultViewportHeight    = 720
)

// Config represents the workspace configuration (verify.yaml).
type Config struct {
	// Flow selection
	Flows       []string `yaml:"flows"`       // Flow files, directories or built-in names
	IncludeTags []string `yaml:"includeTags"` // Tags to include
	ExcludeTags []string `yaml:"excludeTags"` // Tags to exclude

	// Browser settings
	Driver          string   `yaml:"driver"`   // playwright or rod
	Headless        *bool    `yaml:"headless"` // default true
	Viewport        Viewport `yaml:"viewport"`
	InstallBrowsers bool     `yaml:"installBrowsers"` // download browser binaries before launch

	// Execution settings
	Timeout           int    `yaml:"timeout"`           // ms, default step timeout
	NavigationTimeout int    `yaml:"navigationTimeout"` // ms, default navigate timeout
	Preflight         *bool  `yaml:"preflight"`         // HTTP probe before launch, default false
	StopOnFail        bool   `yaml:"stopOnFail"`
	Output            string `yaml:"output"`  // report directory
	WorkDir           string `yaml:"workDir"` // base for relative screenshot paths
}

// Viewport is the browser viewport size in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadFromDir looks for verify.yaml or verify.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"verify.yaml", "verify.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverPlaywright
	}
	if c.Headless == nil {
		c.Headless = boolPtr(true)
	}
	if c.Preflight == nil {
		c.Preflight = boolPtr(false)
	}
	if c.Viewport.Width <= 0 {
		c.Viewport.Width = DefaultViewportWidth
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = DefaultViewportHeight
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = DefaultNavigationTimeout
	}
}

// ApplyEnv applies VERIFY_* overrides read through lookup (os.LookupEnv
// in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDriver); ok && v != "" {
		c.Driver = v
	}
	if v, ok := lookup(EnvHeadless); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeadless, err)
		}
		c.Headless = &b
	}
	if v, ok := lookup(EnvOutput); ok && v != "" {
		c.Output = v
	}
	return nil
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverPlaywright, DriverRod:
	default:
		return fmt.Errorf("unknown driver %q (supported: %s, %s)", c.Driver, DriverPlaywright, DriverRod)
	}
	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		return fmt.Errorf("invalid viewport %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Timeout < 0 || c.NavigationTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// IsHeadless reports whether the browser runs headless (default true).
func (c *Config) IsHeadless() bool {
	return c.Headless == nil || *c.Headless
}

// PreflightEnabled reports whether flows are probed before launch
// (default false).
func (c *Config) PreflightEnabled() bool {
	return c.Preflight != nil && *c.Preflight
}

func boolPtr(b bool) *bool {
	return &b
}
