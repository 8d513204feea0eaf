package classify

import (
	"context"
	"image"
	"math"
	"strings"
)

// FallbackConfidence is the confidence reported when classification fails.
const FallbackConfidence = 0.3

// Result is the classification of one figure.
type Result struct {
	Classification string         `json:"type"`
	Confidence     float64        `json:"confidence"`
	Description    string         `json:"description"`
	Details        map[string]any `json:"details,omitempty"`
	Reasoning      string         `json:"reasoning"`
}

// Fallback returns the result used when a figure cannot be classified.
func Fallback() Result {
	return Result{
		Classification: Unknown,
		Confidence:     FallbackConfidence,
		Description:    "Could not classify figure",
		Details:        map[string]any{},
		Reasoning:      "AI classification failed, using fallback",
	}
}

// normalize coerces r onto the label set and the [0,1] confidence range.
func (r Result) normalize() Result {
	r.Classification = strings.ToLower(strings.TrimSpace(r.Classification))
	if !IsKnown(r.Classification) {
		r.Classification = Unknown
	}
	if math.IsNaN(r.Confidence) {
		r.Confidence = 0
	}
	r.Confidence = math.Max(0, math.Min(1, r.Confidence))
	if r.Details == nil {
		r.Details = map[string]any{}
	}
	return r
}

// Classifier labels figure images. Implementations never fail: problems
// produce the Fallback result.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) Result
}

// Static always returns the same result. It is meant for tests and
// offline runs.
type Static struct {
	Result Result
}

// Classify returns s.Result, normalized.
func (s Static) Classify(ctx context.Context, img image.Image) Result {
	return s.Result.normalize()
}

// Progress is called after each figure with the number done and the total.
type Progress func(done, total int)

// ClassifyAll classifies images one after another. Images are classified
// independently; a failure affects only its own result. When ctx is
// canceled the remaining images get the Fallback result.
func ClassifyAll(ctx context.Context, c Classifier, images []image.Image, progress Progress) []Result {
	results := make([]Result, len(images))
	for i, img := range images {
		if ctx.Err() != nil {
			results[i] = Fallback()
		} else {
			results[i] = c.Classify(ctx, img)
		}
		if progress != nil {
			progress(i+1, len(images))
		}
	}
	return results
}
