package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given
const DefaultFile = ".minic.yaml"

// Config holds settings shared by all commands
type Config struct {
	// Grammar is a CFG file replacing the embedded grammar; empty keeps it
	Grammar string       `yaml:"grammar"`
	Output  string       `yaml:"output"`
	Log     LogConfig    `yaml:"log"`
	Verify  VerifyConfig `yaml:"verify"`
	VM      VMConfig     `yaml:"vm"`
	MIPS    MIPSConfig   `yaml:"mips"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type VerifyConfig struct {
	Workers int `yaml:"workers"`
}

type VMConfig struct {
	MaxSteps int `yaml:"max_steps"`
}

type MIPSConfig struct {
	Registers int `yaml:"registers"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Output: "text",
		Log:    LogConfig{Level: "warn", Format: "console"},
		Verify: VerifyConfig{Workers: 4},
		VM:     VMConfig{MaxSteps: 10_000_000},
		MIPS:   MIPSConfig{Registers: 8},
	}
}

// Load reads path over the defaults. An empty path tries DefaultFile and
// silently keeps the defaults when it does not exist.
func Load(path string) (*Config, error) {
	c := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var err error
	switch c.Output {
	case "text", "json", "markdown":
	default:
		err = multierr.Append(err, fmt.Errorf("output must be text, json or markdown, got %q", c.Output))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Verify.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("verify.workers must be positive, got %d", c.Verify.Workers))
	}
	if c.VM.MaxSteps < 1 {
		err = multierr.Append(err, fmt.Errorf("vm.max_steps must be positive, got %d", c.VM.MaxSteps))
	}
	if c.MIPS.Registers < 1 || c.MIPS.Registers > 8 {
		err = multierr.Append(err, fmt.Errorf("mips.registers must be between 1 and 8, got %d", c.MIPS.Registers))
	}
	return err
}
