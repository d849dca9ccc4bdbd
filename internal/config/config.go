// Package config handles bytevm.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by FindAndLoad
const FileName = "bytevm.toml"

// Config represents a bytevm.toml file.
type Config struct {
	Run    Run    `toml:"run"`
	Log    Log    `toml:"log"`
	Engine Engine `toml:"engine"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Run configures which files the runner picks up.
type Run struct {
	Extension      string `toml:"extension"`
	ImageExtension string `toml:"image_extension"`
}

// Log configures the default logger.
type Log struct {
	Verbose bool `toml:"verbose"`
	NoColor bool `toml:"no_color"`
}

// Engine configures the interpreter.
type Engine struct {
	SleepUnit Duration `toml:"sleep_unit"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %s", text)
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Path = path
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a bytevm.toml file and
// loads it. The defaults are returned if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) applyDefaults() {
	c.Run.Extension = strings.TrimPrefix(c.Run.Extension, ".")
	c.Run.ImageExtension = strings.TrimPrefix(c.Run.ImageExtension, ".")

	if c.Run.Extension == "" {
		c.Run.Extension = "bc"
	}
	if c.Run.ImageExtension == "" {
		c.Run.ImageExtension = "bci"
	}
	if c.Engine.SleepUnit.Duration == 0 {
		c.Engine.SleepUnit.Duration = time.Second
	}
}
