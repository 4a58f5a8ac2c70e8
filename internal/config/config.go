// Package config loads the YAML settings shared by the command-line tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/ffcal"
)

// Config holds calibration and export settings.
type Config struct {
	Format      string        `yaml:"format"` // auto, cams, legacy, extended, fits, skypatrol
	Dark        string        `yaml:"dark"`   // dark frame image
	Flat        string        `yaml:"flat"`   // flat frame image
	Deinterlace bool          `yaml:"deinterlace"`
	Field       string        `yaml:"field"` // none, odd, even
	Levels      *LevelsConfig `yaml:"levels,omitempty"`
	FPS         float64       `yaml:"fps"`
	Annotate    bool          `yaml:"annotate"`
	Loop        bool          `yaml:"loop"`
}

// LevelsConfig is a level/gamma adjustment.
type LevelsConfig struct {
	Min   float64 `yaml:"min"`
	Gamma float64 `yaml:"gamma"`
	Max   float64 `yaml:"max"`
}

// DefaultFPS is the playback rate when none is configured.
const DefaultFPS = 25

// Default returns the settings used without a configuration file.
func Default() *Config {
	return &Config{
		Format:      "auto",
		Deinterlace: true,
		Field:       "none",
		FPS:         DefaultFPS,
		Annotate:    true,
		Loop:        true,
	}
}

// Load reads a YAML file over the defaults. Relative dark and flat paths
// are resolved against the directory of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	dir := filepath.Dir(path)
	for _, p := range []*string{&cfg.Dark, &cfg.Flat} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that do not need file access.
func (c *Config) Validate() error {
	if _, err := ff.ParseFormat(c.Format); err != nil {
		return err
	}
	field, err := ffcal.ParseField(c.Field)
	if err != nil {
		return err
	}
	if c.Deinterlace && field != ffcal.FieldNone {
		return ffcal.ErrFieldAndDeinterlace
	}
	if !(c.FPS > 0) {
		return fmt.Errorf("%w: fps %v", ff.ErrValue, c.FPS)
	}
	if c.Levels != nil {
		return c.levels().Validate()
	}
	return nil
}

// DecodeFormat returns the configured decoder.
func (c *Config) DecodeFormat() ff.Format {
	f, _ := ff.ParseFormat(c.Format)
	return f
}

func (c *Config) levels() *ffcal.Levels {
	if c.Levels == nil {
		return nil
	}
	return &ffcal.Levels{Min: c.Levels.Min, Gamma: c.Levels.Gamma, Max: c.Levels.Max}
}

// Pipeline loads the configured calibration frames and returns the
// calibration pipeline they describe.
func (c *Config) Pipeline() (*ffcal.Pipeline, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	field, _ := ffcal.ParseField(c.Field)
	p := &ffcal.Pipeline{
		Deinterlace: c.Deinterlace,
		Field:       field,
		Levels:      c.levels(),
	}
	if c.Dark != "" {
		dark, err := ffcal.LoadDark(c.Dark)
		if err != nil {
			return nil, fmt.Errorf("dark frame: %w", err)
		}
		p.Dark = dark
	}
	if c.Flat != "" {
		flat, err := ffcal.LoadFlat(c.Flat)
		if err != nil {
			return nil, fmt.Errorf("flat frame: %w", err)
		}
		p.Flat = flat
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
