// Package config loads goinsert settings from a JSON, YAML or TOML file.
//
// Every field is optional. Unknown or invalid values never stop a run: they
// are replaced by the default and reported as warnings, the same way a
// malformed data file falls back to defaults.
package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v3"

	"github.com/xob0t/GoInsert/pkg/geometry"
	"github.com/xob0t/GoInsert/pkg/raster"
	"github.com/xob0t/GoInsert/pkg/specset"
)

// Config holds the tunable behavior of an insertion run.
type Config struct {
	// Filter names the resampling filter used to resize the insert.
	Filter string `json:"filter" yaml:"filter" toml:"filter"`
	// Fuzz is the RGB distance within which a pixel is keyed as background.
	Fuzz float64 `json:"fuzz" yaml:"fuzz" toml:"fuzz"`
	// InsertBackground overrides the insert image's own background color.
	InsertBackground string `json:"insertBackground" yaml:"insertBackground" toml:"insertBackground"`
	// DefaultBackground is assumed for files that do not declare one.
	DefaultBackground string `json:"defaultBackground" yaml:"defaultBackground" toml:"defaultBackground"`
	Duplicates        string `json:"duplicates" yaml:"duplicates" toml:"duplicates"`
	Rotation          string `json:"rotation" yaml:"rotation" toml:"rotation"`
	JPEGQuality       int    `json:"jpegQuality" yaml:"jpegQuality" toml:"jpegQuality"`

	Preview PreviewConfig `json:"preview" yaml:"preview" toml:"preview"`
	Log     LogConfig     `json:"log" yaml:"log" toml:"log"`
}

// LogConfig selects the diagnostic log level and encoding.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"` // "console" or "json"
}

// Default returns the settings used when no file is given.
func Default() *Config {
	c := &Config{}
	c.normalize()
	return c
}

// Load reads a configuration file. The format follows the extension:
// ".yaml"/".yml", ".toml", anything else is JSON. A file that cannot be
// parsed yields the defaults and a warning; only a read failure is an error.
func Load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var (
		c        Config
		warnings []string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	case ".toml":
		_, err = toml.Decode(string(data), &c)
	default:
		err = json.Unmarshal(data, &c)
	}
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("malformed %s: %v; using all defaults", filepath.Base(path), err))
		c = Config{}
	}

	warnings = append(warnings, c.normalize()...)
	return &c, warnings, nil
}

// normalize fills empty fields and replaces invalid ones with defaults.
func (c *Config) normalize() []string {
	var warnings []string
	reset := func(field, def string, err error) string {
		warnings = append(warnings, fmt.Sprintf("%s: %v; using %q", field, err, def))
		return def
	}

	if c.Filter == "" {
		c.Filter = raster.DefaultFilter
	} else if _, err := raster.ParseFilter(c.Filter); err != nil {
		c.Filter = reset("filter", raster.DefaultFilter, err)
	}
	if c.Fuzz < 0 {
		warnings = append(warnings, fmt.Sprintf("fuzz: negative value %v; using 0", c.Fuzz))
		c.Fuzz = 0
	}
	if c.InsertBackground != "" {
		if _, err := raster.ParseColor(c.InsertBackground); err != nil {
			c.InsertBackground = reset("insertBackground", "", err)
		}
	}
	def := raster.FormatColor(raster.White)
	if c.DefaultBackground == "" {
		c.DefaultBackground = def
	} else if _, err := raster.ParseColor(c.DefaultBackground); err != nil {
		c.DefaultBackground = reset("defaultBackground", def, err)
	}
	if p, err := specset.ParseDuplicatePolicy(c.Duplicates); err != nil {
		c.Duplicates = reset("duplicates", specset.DuplicatesAbort.String(), err)
	} else {
		c.Duplicates = p.String()
	}
	if p, err := geometry.ParseRotationPolicy(c.Rotation); err != nil {
		c.Rotation = reset("rotation", geometry.RotationLenient.String(), err)
	} else {
		c.Rotation = p.String()
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		warnings = append(warnings, fmt.Sprintf("jpegQuality: %d out of range 1-100; using the encoder default", c.JPEGQuality))
		c.JPEGQuality = 0
	}
	warnings = append(warnings, c.Preview.normalize()...)
	warnings = append(warnings, c.Log.normalize()...)
	return warnings
}

// Check validates values set after loading, such as command-line overrides.
func (c *Config) Check() error {
	if _, err := raster.ParseFilter(c.Filter); err != nil {
		return err
	}
	if c.Fuzz < 0 {
		return fmt.Errorf("fuzz must not be negative, got %v", c.Fuzz)
	}
	if c.InsertBackground != "" {
		if _, err := raster.ParseColor(c.InsertBackground); err != nil {
			return err
		}
	}
	if _, err := raster.ParseColor(c.DefaultBackground); err != nil {
		return err
	}
	if _, err := specset.ParseDuplicatePolicy(c.Duplicates); err != nil {
		return err
	}
	if _, err := geometry.ParseRotationPolicy(c.Rotation); err != nil {
		return err
	}
	if err := c.Preview.check(); err != nil {
		return err
	}
	_, err := c.Log.level()
	return err
}

// ResampleFilter returns the configured filter, Lanczos if it is unknown.
func (c *Config) ResampleFilter() imaging.ResampleFilter {
	f, err := raster.ParseFilter(c.Filter)
	if err != nil {
		return imaging.Lanczos
	}
	return f
}

// InsertBackgroundColor returns the override color, or nil when the insert
// image's own background should be used.
func (c *Config) InsertBackgroundColor() *color.NRGBA {
	if c.InsertBackground == "" {
		return nil
	}
	bg, err := raster.ParseColor(c.InsertBackground)
	if err != nil {
		return nil
	}
	return &bg
}

// DefaultBackgroundColor returns the background assumed for files without one.
func (c *Config) DefaultBackgroundColor() color.NRGBA {
	bg, err := raster.ParseColor(c.DefaultBackground)
	if err != nil {
		return raster.White
	}
	return bg
}

// DuplicatePolicy returns the parsed duplicates setting.
func (c *Config) DuplicatePolicy() specset.DuplicatePolicy {
	p, _ := specset.ParseDuplicatePolicy(c.Duplicates)
	return p
}

// RotationPolicy returns the parsed rotation setting.
func (c *Config) RotationPolicy() geometry.RotationPolicy {
	p, _ := geometry.ParseRotationPolicy(c.Rotation)
	return p
}
