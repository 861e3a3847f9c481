package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"cwpdf/internal/interp"
)

// Config controls runtime behavior for the shell.
type Config struct {
	Input        string
	OutputDir    string
	Interpreters []string
	LogPath      string
	DataDir      string
	ASCIIOnly    bool
	Debug        bool
	UI           UIConfig
}

type UIConfig struct {
	StyleVariant string
}

// fileConfig is the on-disk YAML shape; zero values mean "not set" and leave
// the flag or default in place.
type fileConfig struct {
	Input        string   `yaml:"input"`
	OutputDir    string   `yaml:"output_dir"`
	Interpreters []string `yaml:"interpreters"`
	LogPath      string   `yaml:"log_path"`
	DataDir      string   `yaml:"data_dir"`
	ASCIIOnly    *bool    `yaml:"ascii_only"`
	UI           struct {
		StyleVariant string `yaml:"style_variant"`
	} `yaml:"ui"`
}

func DefaultConfig() Config {
	return Config{
		Interpreters: append([]string(nil), interp.DefaultCandidates...),
		UI: UIConfig{
			StyleVariant: "midnight",
		},
	}
}

// DefaultConfigPath is where LoadFile looks when no --config flag is given.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cwpdf", "config.yaml")
}

// LoadFile layers a YAML config file onto c. A missing file is only an
// error when the path was explicitly requested.
func (c *Config) LoadFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.Input != "" {
		c.Input = fc.Input
	}
	if fc.OutputDir != "" {
		c.OutputDir = fc.OutputDir
	}
	if len(fc.Interpreters) > 0 {
		c.Interpreters = append([]string(nil), fc.Interpreters...)
	}
	if fc.LogPath != "" {
		c.LogPath = fc.LogPath
	}
	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if fc.ASCIIOnly != nil {
		c.ASCIIOnly = *fc.ASCIIOnly
	}
	if fc.UI.StyleVariant != "" {
		c.UI.StyleVariant = fc.UI.StyleVariant
	}
	return nil
}

func (c *Config) Validate() error {
	if len(c.Interpreters) == 0 {
		c.Interpreters = append([]string(nil), interp.DefaultCandidates...)
	}
	for _, cand := range c.Interpreters {
		if cand == "" {
			return errors.New("interpreter candidate names must be non-empty")
		}
	}

	switch c.UI.StyleVariant {
	case "", "midnight", "paper", "retro":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "midnight"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "cwpdf")
	}

	return nil
}
