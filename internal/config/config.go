// Package config loads facewarp settings from YAML and FACEWARP_* variables.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"facewarp/internal/logging"
)

const envPrefix = "FACEWARP"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// WarpConfig tunes the raster warp.
type WarpConfig struct {
	GridSize int     `mapstructure:"grid_size"`
	Alpha    float64 `mapstructure:"alpha"`
	Workers  int     `mapstructure:"workers"`
}

// DisplaceConfig tunes the displacement resolver.
type DisplaceConfig struct {
	AnchorSpacing int     `mapstructure:"anchor_spacing"`
	FalloffReach  float64 `mapstructure:"falloff_reach"`
}

// SkinConfig tunes the skin post-process.
type SkinConfig struct {
	MaxBlend float64 `mapstructure:"max_blend"`
	Expand   float64 `mapstructure:"expand"`
}

// SimConfig tunes the orchestrator.
type SimConfig struct {
	// Debounce delays an async recompute so bursts of requests coalesce.
	Debounce time.Duration `mapstructure:"debounce"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `mapstructure:"addr"`
}

// Config is the full settings tree.
type Config struct {
	Warp     WarpConfig     `mapstructure:"warp"`
	Displace DisplaceConfig `mapstructure:"displace"`
	Skin     SkinConfig     `mapstructure:"skin"`
	Sim      SimConfig      `mapstructure:"sim"`
	Log      logging.Config `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

var defaults = map[string]any{
	"warp.grid_size":          8,
	"warp.alpha":              1.0,
	"warp.workers":            0,
	"displace.anchor_spacing": 40,
	"displace.falloff_reach":  1.5,
	"skin.max_blend":          0.35,
	"skin.expand":             1.2,
	"sim.debounce":            "0s",
	"log.level":               "info",
	"log.format":              "console",
	"metrics.addr":            "",
}

// newViper registers every key with its default so FACEWARP_WARP_GRID_SIZE
// style variables resolve even without a config file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads path (if non-empty), applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills values that are unset after decoding.
func ApplyDefaults(c *Config) {
	if c.Warp.GridSize == 0 {
		c.Warp.GridSize = 8
	}
	if c.Warp.Alpha == 0 {
		c.Warp.Alpha = 1
	}
	if c.Warp.Workers <= 0 {
		c.Warp.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Displace.AnchorSpacing == 0 {
		c.Displace.AnchorSpacing = 40
	}
	if c.Displace.FalloffReach == 0 {
		c.Displace.FalloffReach = 1.5
	}
	if c.Skin.MaxBlend == 0 {
		c.Skin.MaxBlend = 0.35
	}
	if c.Skin.Expand == 0 {
		c.Skin.Expand = 1.2
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks ranges. It returns an error wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	if c.Warp.GridSize < 1 {
		errs = append(errs, fmt.Errorf("warp.grid_size must be >= 1, got %d", c.Warp.GridSize))
	}
	if c.Warp.Alpha <= 0 {
		errs = append(errs, fmt.Errorf("warp.alpha must be > 0, got %g", c.Warp.Alpha))
	}
	if c.Displace.AnchorSpacing < 1 {
		errs = append(errs, fmt.Errorf("displace.anchor_spacing must be >= 1, got %d", c.Displace.AnchorSpacing))
	}
	if c.Displace.FalloffReach <= 0 {
		errs = append(errs, fmt.Errorf("displace.falloff_reach must be > 0, got %g", c.Displace.FalloffReach))
	}
	if c.Skin.MaxBlend < 0 || c.Skin.MaxBlend >= 1 {
		errs = append(errs, fmt.Errorf("skin.max_blend must be in [0,1), got %g", c.Skin.MaxBlend))
	}
	if c.Skin.Expand < 1 {
		errs = append(errs, fmt.Errorf("skin.expand must be >= 1, got %g", c.Skin.Expand))
	}
	if c.Sim.Debounce < 0 {
		errs = append(errs, fmt.Errorf("sim.debounce must not be negative, got %s", c.Sim.Debounce))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
