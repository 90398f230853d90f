package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the collector configuration. Every value has a working default;
// a config file and command-line flags override it in that order.
type Config struct {
	Listen struct {
		Port int `yaml:"port"`
	} `yaml:"listen"`
	API struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"api"`
	Store struct {
		MaxRecords int `yaml:"max_records"`
	} `yaml:"store"`
	Display struct {
		Simple      bool          `yaml:"simple"`
		RefreshRate time.Duration `yaml:"refresh_rate"`
	} `yaml:"display"`
	Resolver struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"resolver"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the built-in configuration
func Default() Config {
	var c Config
	c.Listen.Port = 2055
	c.API.Enabled = true
	c.API.Port = 8080
	c.Store.MaxRecords = 100000
	c.Display.RefreshRate = 500 * time.Millisecond
	c.Resolver.Enabled = true
	c.Logging.Level = "info"
	return c
}

// Load reads a YAML config file over the defaults
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("invalid listen port %d", c.Listen.Port)
	}
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	if c.Store.MaxRecords < 1 {
		return fmt.Errorf("max_records must be positive, got %d", c.Store.MaxRecords)
	}
	return nil
}
