package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tex-mesh-exporter/internal/crypto"
	"tex-mesh-exporter/internal/meshfmt"
)

// Config holds all configurable paths and export settings.
type Config struct {
	// Paths
	SourceDir string `yaml:"source_dir"`
	OutputDir string `yaml:"output_dir"`

	// Export settings
	Workers        int    `yaml:"workers"`
	MaxTextureSize int    `yaml:"max_texture_size"`
	Matte          string `yaml:"matte"`        // "#rrggbb"; empty drops alpha
	RangePolicy    string `yaml:"range_policy"` // strict, clamp or wrap
	Compress       bool   `yaml:"compress"`
	SkipTextures   bool   `yaml:"skip_textures"` // do not export textures referenced by models

	// BMD sources
	BMDXORKey   string `yaml:"bmd_xor_key"`
	BMDLEAKey   string `yaml:"bmd_lea_key"`
	BMDBindPose bool   `yaml:"bmd_bind_pose"`

	LogLevel string `yaml:"log_level"`
}

// Load reads a YAML config file.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	SourceDir   string
	OutputDir   string
	Workers     int
	MaxSize     int
	RangePolicy string
	Compress    bool
	LogLevel    string
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.SourceDir != "" {
		c.SourceDir = flags.SourceDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.MaxSize > 0 {
		c.MaxTextureSize = flags.MaxSize
	}
	if flags.RangePolicy != "" {
		c.RangePolicy = flags.RangePolicy
	}
	if flags.Compress {
		c.Compress = true
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	if c.SourceDir == "" {
		c.SourceDir = "."
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.SourceDir, "export")
	} else if !filepath.IsAbs(c.OutputDir) && flags.OutputDir == "" {
		// Relative paths in the file are relative to the source tree.
		c.OutputDir = filepath.Join(c.SourceDir, c.OutputDir)
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.RangePolicy == "" {
		c.RangePolicy = meshfmt.RangeStrict.String()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the fields that need parsing before use.
func (c *Config) Validate() error {
	if _, err := c.MeshOptions(); err != nil {
		return err
	}
	if _, err := c.MatteColor(); err != nil {
		return err
	}
	if _, err := c.Keys(); err != nil {
		return err
	}
	if c.MaxTextureSize < 0 || c.MaxTextureSize > 0xFFFF {
		return fmt.Errorf("config: max_texture_size %d out of range", c.MaxTextureSize)
	}
	return nil
}

func (c *Config) MeshOptions() (meshfmt.Options, error) {
	p, err := meshfmt.ParseRangePolicy(c.RangePolicy)
	if err != nil {
		return meshfmt.Options{}, fmt.Errorf("config: %w", err)
	}
	return meshfmt.Options{Range: p}, nil
}

func (c *Config) Keys() (crypto.Keys, error) {
	k, err := crypto.ParseKeys(c.BMDXORKey, c.BMDLEAKey)
	if err != nil {
		return crypto.Keys{}, fmt.Errorf("config: %w", err)
	}
	return k, nil
}

// MatteColor parses Matte; nil means no matte.
func (c *Config) MatteColor() (*color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(c.Matte), "#")
	if s == "" {
		return nil, nil
	}
	if len(s) != 6 {
		return nil, fmt.Errorf("config: matte %q is not #rrggbb", c.Matte)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("config: matte %q: %w", c.Matte, err)
	}
	return &color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
