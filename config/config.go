// Package config loads figura configuration from a YAML file, a .env file
// and environment variables, in that order of precedence (lowest first).
package config

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/figura/classify"
	"github.com/tsawler/figura/fetch"
	"github.com/tsawler/figura/layout"
	"github.com/tsawler/figura/reader"
	"github.com/tsawler/figura/render"
	"github.com/tsawler/figura/scan"
)

// Config holds all figura configuration.
type Config struct {
	Engine        EngineConfig        `yaml:"engine"`
	Render        RenderConfig        `yaml:"render"`
	Classifier    ClassifierConfig    `yaml:"classifier"`
	Fetch         FetchConfig         `yaml:"fetch"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// EngineConfig holds the detection thresholds and pipeline settings.
type EngineConfig struct {
	Workers        int           `yaml:"workers"`
	PageTimeout    time.Duration `yaml:"page_timeout"`
	MaxFormDepth   int           `yaml:"max_form_depth"`
	// MaxStreamBytes caps the decoded size of any one stream.
	MaxStreamBytes int64         `yaml:"max_stream_bytes"`
	CrossPageDedup bool          `yaml:"cross_page_dedup"`

	GapRatio        float64 `yaml:"gap_ratio"`
	BackgroundRatio float64 `yaml:"background_ratio"`

	FullPageAreaRatio       float64 `yaml:"full_page_area_ratio"`
	FullPageAspectTolerance float64 `yaml:"full_page_aspect_tolerance"`
	MinSize                 float64 `yaml:"min_size"`
	MinThickness            float64 `yaml:"min_thickness"`

	MajorityRatio     float64 `yaml:"majority_ratio"`
	PositionTolerance float64 `yaml:"position_tolerance"`
	MinTolerance      float64 `yaml:"min_tolerance"`
	MinPages          int     `yaml:"min_pages"`

	MergeIoU         float64 `yaml:"merge_iou"`
	ContainmentRatio float64 `yaml:"containment_ratio"`
}

// RenderConfig holds rasterization settings.
type RenderConfig struct {
	Backend      string  `yaml:"backend"` // auto, native or fitz
	DPI          float64 `yaml:"dpi"`
	MinDPI       float64 `yaml:"min_dpi"`
	MaxDimension int     `yaml:"max_dimension"`
	MaxPixels    int64   `yaml:"max_pixels"`
}

// ClassifierConfig holds figure classifier settings.
type ClassifierConfig struct {
	Provider   string        `yaml:"provider"` // gemini or none
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// FetchConfig holds remote download settings.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxSize   int64         `yaml:"max_size"`
	UserAgent string        `yaml:"user_agent"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	MaxUploadSize int64         `yaml:"max_upload_size"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the default configuration.
func Default() *Config {
	cluster := layout.DefaultClusterConfig()
	filter := layout.DefaultFilterConfig()
	repetition := layout.DefaultRepetitionConfig()
	merge := layout.DefaultMergeConfig()
	policy := render.DefaultPolicy()

	return &Config{
		Engine: EngineConfig{
			Workers:                 runtime.NumCPU(),
			PageTimeout:             30 * time.Second,
			MaxFormDepth:            scan.DefaultMaxFormDepth,
			MaxStreamBytes:          reader.DefaultMaxStreamSize,
			GapRatio:                cluster.GapRatio,
			BackgroundRatio:         cluster.BackgroundRatio,
			FullPageAreaRatio:       filter.FullPageAreaRatio,
			FullPageAspectTolerance: filter.FullPageAspectTolerance,
			MinSize:                 filter.MinSize,
			MinThickness:            filter.MinThickness,
			MajorityRatio:           repetition.MajorityRatio,
			PositionTolerance:       repetition.PositionTolerance,
			MinTolerance:            repetition.MinTolerance,
			MinPages:                repetition.MinPages,
			MergeIoU:                merge.MergeIoU,
			ContainmentRatio:        merge.ContainmentRatio,
		},
		Render: RenderConfig{
			Backend:      "auto",
			DPI:          policy.DPI,
			MinDPI:       policy.MinDPI,
			MaxDimension: policy.MaxDimension,
			MaxPixels:    policy.MaxPixels,
		},
		Classifier: ClassifierConfig{
			Provider:   "gemini",
			Model:      "gemini-2.0-flash",
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		Fetch: FetchConfig{
			Timeout:   2 * time.Minute,
			MaxSize:   200 << 20,
			UserAgent: "figura/1.0",
		},
		Server: ServerConfig{
			Host:          "127.0.0.1",
			Port:          8090,
			ReadTimeout:   2 * time.Minute,
			WriteTimeout:  5 * time.Minute,
			MaxUploadSize: 100 << 20,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Load reads configuration from a YAML file (optional), then applies a .env
// file from the working directory if present, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	_ = godotenv.Load() // Ignore error if .env doesn't exist
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	e := c.Engine
	if e.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", e.Workers)
	}
	if e.PageTimeout <= 0 {
		return fmt.Errorf("page_timeout must be positive")
	}
	if e.MaxFormDepth < 1 {
		return fmt.Errorf("max_form_depth must be at least 1")
	}
	if e.MaxStreamBytes <= 0 {
		return fmt.Errorf("max_stream_bytes must be positive")
	}
	for name, v := range map[string]float64{
		"gap_ratio":                  e.GapRatio,
		"background_ratio":           e.BackgroundRatio,
		"full_page_area_ratio":       e.FullPageAreaRatio,
		"full_page_aspect_tolerance": e.FullPageAspectTolerance,
		"majority_ratio":             e.MajorityRatio,
		"position_tolerance":         e.PositionTolerance,
		"merge_iou":                  e.MergeIoU,
		"containment_ratio":          e.ContainmentRatio,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %g", name, v)
		}
	}
	if e.MinSize < 0 || e.MinThickness < 0 || e.MinTolerance < 0 {
		return fmt.Errorf("size thresholds must not be negative")
	}

	r := c.Render
	switch r.Backend {
	case "auto", "native", "fitz":
	default:
		return fmt.Errorf("invalid render backend: %s", r.Backend)
	}
	if r.DPI <= 0 || r.MinDPI <= 0 || r.MinDPI > r.DPI {
		return fmt.Errorf("invalid resolution: dpi %g, min_dpi %g", r.DPI, r.MinDPI)
	}
	if r.MaxPixels <= 0 {
		return fmt.Errorf("max_pixels must be positive")
	}

	if c.Classifier.Provider != "gemini" && c.Classifier.Provider != "none" {
		return fmt.Errorf("invalid classifier provider: %s", c.Classifier.Provider)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// Cluster returns the clustering thresholds.
func (e EngineConfig) Cluster() layout.ClusterConfig {
	return layout.ClusterConfig{GapRatio: e.GapRatio, BackgroundRatio: e.BackgroundRatio}
}

// Filter returns the region filter thresholds.
func (e EngineConfig) Filter() layout.FilterConfig {
	return layout.FilterConfig{
		FullPageAreaRatio:       e.FullPageAreaRatio,
		FullPageAspectTolerance: e.FullPageAspectTolerance,
		MinSize:                 e.MinSize,
		MinThickness:            e.MinThickness,
	}
}

// Repetition returns the page furniture thresholds.
func (e EngineConfig) Repetition() layout.RepetitionConfig {
	return layout.RepetitionConfig{
		MajorityRatio:     e.MajorityRatio,
		PositionTolerance: e.PositionTolerance,
		MinTolerance:      e.MinTolerance,
		MinPages:          e.MinPages,
	}
}

// Merge returns the merge thresholds.
func (e EngineConfig) Merge() layout.MergeConfig {
	return layout.MergeConfig{MergeIoU: e.MergeIoU, ContainmentRatio: e.ContainmentRatio}
}

// Policy returns the resolution policy.
func (r RenderConfig) Policy() render.Policy {
	return render.Policy{
		DPI:          r.DPI,
		MinDPI:       r.MinDPI,
		MaxDimension: r.MaxDimension,
		MaxPixels:    r.MaxPixels,
	}
}

// NewClassifier builds the configured classifier. The "none" provider
// labels every figure with the fallback result.
func (c ClassifierConfig) NewClassifier(logger zerolog.Logger) (classify.Classifier, error) {
	if c.Provider == "none" {
		return classify.Static{Result: classify.Fallback()}, nil
	}
	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return classify.NewGemini(classify.GeminiOptions{
		APIKey:     c.APIKey,
		Model:      c.Model,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxRetries: retries,
		Logger:     &logger,
	})
}

// NewFetcher builds a downloader for remote documents.
func (f FetchConfig) NewFetcher(logger zerolog.Logger) *fetch.Fetcher {
	return fetch.New(
		fetch.WithClient(&http.Client{Timeout: f.Timeout}),
		fetch.WithUserAgent(f.UserAgent),
		fetch.WithMaxSize(f.MaxSize),
		fetch.WithLogger(logger),
	)
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FIGURA_DPI"); v != "" {
		if dpi, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Render.DPI = dpi
		}
	}

	if v := os.Getenv("FIGURA_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = n
		}
	}

	if v := os.Getenv("FIGURA_RENDERER"); v != "" {
		cfg.Render.Backend = v
	}

	if v := os.Getenv("FIGURA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("FIGURA_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("FIGURA_LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Classifier.APIKey = v
	}

	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Classifier.Model = v
	}
}
