// Package config loads run settings from defaults, an optional file, the
// environment and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"image-augmentation/internal/codec"
	"image-augmentation/internal/core"
	"image-augmentation/internal/pipeline"
)

// EnvPrefix prefixes environment overrides, e.g. AUGMENT_INTENSITY.
const EnvPrefix = "AUGMENT"

// Config is the resolved configuration of one run.
type Config struct {
	SourceDir   string
	OutputDir   string
	Intensity   float64
	Transforms  map[string]bool
	Workers     int
	JPEGQuality int
	Seed        uint64
	Log         LogConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source_dir", "images")
	v.SetDefault("output_dir", "Augmented_images")
	v.SetDefault("intensity", 1.0)
	for _, name := range pipeline.Order() {
		v.SetDefault("transforms."+name, false)
	}
	v.SetDefault("workers", 1)
	v.SetDefault("jpeg_quality", codec.DefaultJPEGQuality)
	v.SetDefault("seed", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// RegisterFlags adds one flag per key to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("source-dir", "images", "directory holding the source images")
	fs.String("output-dir", "Augmented_images", "directory receiving augmented images")
	fs.Float64P("intensity", "i", 1.0, fmt.Sprintf("shared intensity in [%.1f, %.1f]", core.MinIntensity, core.MaxIntensity))
	for _, name := range pipeline.Order() {
		fs.Bool(name, false, "enable the "+name+" transform")
	}
	fs.Bool("all", false, "enable every transform")
	fs.Int("workers", 1, "images processed concurrently")
	fs.Int("jpeg-quality", codec.DefaultJPEGQuality, "quality of JPEG outputs (1-100)")
	fs.Uint64("seed", 0, "seed for repeatable random draws (0 = random)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json)")
}

// BindFlags maps the flags registered by RegisterFlags onto configuration keys.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	keys := map[string]string{
		"source_dir":   "source-dir",
		"output_dir":   "output-dir",
		"intensity":    "intensity",
		"workers":      "workers",
		"jpeg_quality": "jpeg-quality",
		"seed":         "seed",
		"log.level":    "log-level",
		"log.format":   "log-format",
	}
	for _, name := range pipeline.Order() {
		keys["transforms."+name] = name
	}
	for key, flag := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load resolves the configuration. file may be empty.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, &core.ValidationError{Field: "config file", Err: err}
		}
	}

	// Each key is read on its own so flag and environment overrides apply to
	// the nested transform switches too.
	transforms := make(map[string]bool, len(pipeline.Order()))
	for _, name := range pipeline.Order() {
		transforms[name] = v.GetBool("transforms." + name)
	}

	cfg := &Config{
		SourceDir:   v.GetString("source_dir"),
		OutputDir:   v.GetString("output_dir"),
		Intensity:   v.GetFloat64("intensity"),
		Transforms:  transforms,
		Workers:     v.GetInt("workers"),
		JPEGQuality: v.GetInt("jpeg_quality"),
		Seed:        v.GetUint64("seed"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	return cfg, nil
}

// EnableAll switches every transform on.
func (c *Config) EnableAll() {
	for _, name := range pipeline.Order() {
		c.Transforms[name] = true
	}
}

// PipelineConfig converts to the immutable pipeline configuration and
// validates it.
func (c *Config) PipelineConfig() (pipeline.Config, error) {
	toggles, err := core.FromMap(c.Transforms)
	if err != nil {
		return pipeline.Config{}, err
	}
	pc := pipeline.Config{Toggles: toggles, Intensity: c.Intensity}
	if err := pc.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return pc, nil
}

// Validate checks everything that can be checked before touching images.
func (c *Config) Validate() error {
	if _, err := c.PipelineConfig(); err != nil {
		return err
	}
	if c.SourceDir == "" {
		return &core.ValidationError{Field: "source_dir", Err: fmt.Errorf("must not be empty")}
	}
	if c.OutputDir == "" {
		return &core.ValidationError{Field: "output_dir", Err: fmt.Errorf("must not be empty")}
	}
	if c.Workers < 1 {
		return &core.ValidationError{Field: "workers", Err: fmt.Errorf("must be at least 1, got %d", c.Workers)}
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return &core.ValidationError{Field: "jpeg_quality", Err: fmt.Errorf("must be in [1, 100], got %d", c.JPEGQuality)}
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return &core.ValidationError{Field: "log.format", Err: fmt.Errorf("unknown format %q", c.Log.Format)}
	}
	return nil
}
