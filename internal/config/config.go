package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	FontSize      int           `yaml:"font_size"`
	Padding       int           `yaml:"padding"`
	LineGap       int           `yaml:"line_gap"`
	FrameCount    int           `yaml:"frame_count"`
	FrameDuration time.Duration `yaml:"frame_duration"`
	MaxStyles     int           `yaml:"max_styles"`

	FontPath  string `yaml:"font_path"`
	OutputDir string `yaml:"output_dir"`
	Workers   int    `yaml:"workers"`
	ShowStats bool   `yaml:"show_stats"`
	StatsLog  string `yaml:"stats_log"`

	Storage  string   `yaml:"storage"`
	S3       S3Config `yaml:"s3"`
	Addr     string   `yaml:"addr"`
	LogLevel string   `yaml:"log_level"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// Default returns the engine constants of the style catalog: an 800x450
// canvas, 70px text, 25 frames of 120ms each and at most 50 styles.
func Default() *Config {
	return &Config{
		Width:         800,
		Height:        450,
		FontSize:      70,
		Padding:       40,
		LineGap:       6,
		FrameCount:    25,
		FrameDuration: 120 * time.Millisecond,
		MaxStyles:     50,
		OutputDir:     "static/output",
		StatsLog:      "benchmark.log",
		Storage:       StorageLocal,
		Addr:          ":8080",
		LogLevel:      "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and TEXTGIF_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TEXTGIF_OUTPUT_DIR": &c.OutputDir,
		"TEXTGIF_FONT_PATH":  &c.FontPath,
		"TEXTGIF_ADDR":       &c.Addr,
		"TEXTGIF_STORAGE":    &c.Storage,
		"TEXTGIF_S3_BUCKET":  &c.S3.Bucket,
		"TEXTGIF_S3_REGION":  &c.S3.Region,
		"TEXTGIF_S3_PREFIX":  &c.S3.Prefix,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("TEXTGIF_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TEXTGIF_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("font_size must be positive, got %d", c.FontSize))
	}
	if c.Padding < 0 || c.LineGap < 0 {
		errs = append(errs, errors.New("padding and line_gap must not be negative"))
	}
	if c.FrameCount <= 0 {
		errs = append(errs, fmt.Errorf("frame_count must be positive, got %d", c.FrameCount))
	}
	if c.FrameDuration < 10*time.Millisecond {
		errs = append(errs, fmt.Errorf("frame_duration must be at least 10ms, got %s", c.FrameDuration))
	}
	if c.MaxStyles <= 0 {
		errs = append(errs, fmt.Errorf("max_styles must be positive, got %d", c.MaxStyles))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	switch c.Storage {
	case StorageLocal:
		if c.OutputDir == "" {
			errs = append(errs, errors.New("output_dir is required for local storage"))
		}
	case StorageS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("s3.bucket is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}
	return errors.Join(errs...)
}
