// Package config produces the immutable configuration snapshot the
// runtime hands to its windows and to the embedding core.
package config

import (
	"fmt"
	"image/color"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/image/colornames"
)

// Defaults for every field a file or the command line may override.
const (
	DefaultTitle      = "waypane"
	DefaultWidth      = 128
	DefaultHeight     = 128
	DefaultBackground = "slategray"
)

// Origin classifies where a diagnostic's offending value came from.
type Origin int

const (
	OriginFile Origin = iota
	OriginCLI
)

func (o Origin) String() string {
	switch o {
	case OriginFile:
		return "file"
	case OriginCLI:
		return "cli"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Diagnostic is one problem found while loading configuration.
type Diagnostic struct {
	Origin  Origin
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%v: %v", d.Origin, d.Message)
}

type Diagnostics []Diagnostic

// Fatal reports whether any diagnostic originated from the command
// line. Command-line mistakes are typos the user can only notice at
// startup, so they abort it; file problems are reported and worked
// around.
func (ds Diagnostics) Fatal() bool {
	for _, d := range ds {
		if d.Origin == OriginCLI {
			return true
		}
	}
	return false
}

// Config is one immutable configuration snapshot.
type Config struct {
	Title      string `toml:"title"`
	Width      int32  `toml:"width"`
	Height     int32  `toml:"height"`
	Background string `toml:"background"`
}

// Overrides carries command-line values layered over the file. Nil
// fields were not given.
type Overrides struct {
	Title      *string
	Width      *int32
	Height     *int32
	Background *string
}

// Load builds a snapshot from defaults, then path's TOML contents if
// path is non-empty, then overrides. Problems are reported as
// diagnostics classified by origin; loading always produces a usable
// snapshot, with offending values replaced by defaults.
func Load(path string, overrides Overrides) (*Config, Diagnostics) {
	cfg := Config{
		Title:      DefaultTitle,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Background: DefaultBackground,
	}

	var diags Diagnostics

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case os.IsNotExist(err):
			diags = append(diags, Diagnostic{OriginFile, fmt.Sprintf("config file %q does not exist", path)})
		case err != nil:
			diags = append(diags, Diagnostic{OriginFile, fmt.Sprintf("decode %q: %v", path, err)})
		default:
			for _, key := range md.Undecoded() {
				diags = append(diags, Diagnostic{OriginFile, fmt.Sprintf("unknown key %q in %q", key, path)})
			}
		}
		diags = append(diags, cfg.validate(OriginFile)...)
	}

	if overrides.Title != nil {
		cfg.Title = *overrides.Title
	}
	if overrides.Width != nil {
		cfg.Width = *overrides.Width
	}
	if overrides.Height != nil {
		cfg.Height = *overrides.Height
	}
	if overrides.Background != nil {
		cfg.Background = *overrides.Background
	}
	diags = append(diags, cfg.validate(OriginCLI)...)

	return &cfg, diags
}

// validate repairs out-of-range values in place and reports each one
// with the given origin. CLI validation runs after overrides are
// layered, so a file value repaired during the file pass never
// reports twice.
func (cfg *Config) validate(origin Origin) Diagnostics {
	var diags Diagnostics

	if cfg.Width <= 0 {
		diags = append(diags, Diagnostic{origin, fmt.Sprintf("width %v is not positive", cfg.Width)})
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		diags = append(diags, Diagnostic{origin, fmt.Sprintf("height %v is not positive", cfg.Height)})
		cfg.Height = DefaultHeight
	}
	if _, ok := colornames.Map[cfg.Background]; !ok {
		diags = append(diags, Diagnostic{origin, fmt.Sprintf("unknown background color %q", cfg.Background)})
		cfg.Background = DefaultBackground
	}

	return diags
}

// BackgroundRGBA resolves the snapshot's background color name.
func (cfg *Config) BackgroundRGBA() color.RGBA {
	c, ok := colornames.Map[cfg.Background]
	if !ok {
		return colornames.Map[DefaultBackground]
	}
	return c
}

// Clone returns an independent copy of the snapshot.
func (cfg *Config) Clone() *Config {
	c := *cfg
	return &c
}

// Equal reports whether two snapshots carry identical values.
func (cfg *Config) Equal(other *Config) bool {
	return *cfg == *other
}
