package figura

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tsawler/figura/config"
	"github.com/tsawler/figura/render"
)

// ExtractOptions holds configuration for figure extraction.
type ExtractOptions struct {
	// Page selection (1-indexed in API, stored as-is)
	pages []int

	// Detection thresholds and pipeline settings
	engine config.EngineConfig

	// Rasterization
	policy   render.Policy
	backend  string
	renderer render.Rasterizer

	logger zerolog.Logger
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	cfg := config.Default()
	return ExtractOptions{
		pages:   nil, // nil means all pages
		engine:  cfg.Engine,
		policy:  cfg.Render.Policy(),
		backend: cfg.Render.Backend,
		logger:  zerolog.Nop(),
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := o

	// Deep copy pages slice
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}

	return newOpts
}

func (o ExtractOptions) workers() int {
	if o.engine.Workers < 1 {
		return 1
	}
	return o.engine.Workers
}

func (o ExtractOptions) pageTimeout() time.Duration {
	if o.engine.PageTimeout <= 0 {
		return 30 * time.Second
	}
	return o.engine.PageTimeout
}
