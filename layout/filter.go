package layout

import (
	"math"

	"github.com/tsawler/figura/model"
)

// Rule identifies the filter rule that rejected a candidate.
type Rule int

const (
	// RuleFullPage rejects page-sized backgrounds.
	RuleFullPage Rule = iota
	// RuleSize rejects icons and bullets.
	RuleSize
	// RuleThickness rejects rules and dividers.
	RuleThickness
	// RuleRepetition rejects page furniture.
	RuleRepetition
)

func (r Rule) String() string {
	switch r {
	case RuleFullPage:
		return "full-page"
	case RuleSize:
		return "size"
	case RuleThickness:
		return "thickness"
	case RuleRepetition:
		return "repetition"
	default:
		return "unknown"
	}
}

// Rejection records a dropped candidate and the rule that dropped it.
type Rejection struct {
	Candidate model.Candidate
	Rule      Rule
}

// FilterConfig holds configuration for the region filter
type FilterConfig struct {
	// FullPageAreaRatio is the fraction of the page area from which a box
	// may be a background.
	// Default: 0.9
	FullPageAreaRatio float64

	// FullPageAspectTolerance is the relative difference between the box
	// and page aspect ratios within which a large box is a background.
	// Default: 0.05
	FullPageAspectTolerance float64

	// MinSize is the smallest longer side a figure may have, in points.
	// Default: 36 (half an inch)
	MinSize float64

	// MinThickness is the smallest shorter side a figure may have, in
	// points.
	// Default: 4
	MinThickness float64
}

// DefaultFilterConfig returns sensible default configuration
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		FullPageAreaRatio:       0.9,
		FullPageAspectTolerance: 0.05,
		MinSize:                 36.0,
		MinThickness:            4.0,
	}
}

// RegionFilter drops candidates that are structurally not figures.
type RegionFilter struct {
	config FilterConfig
	index  *RepetitionIndex
}

// NewRegionFilter creates a filter with default configuration. index may
// be nil, which disables the repetition rule.
func NewRegionFilter(index *RepetitionIndex) *RegionFilter {
	return &RegionFilter{config: DefaultFilterConfig(), index: index}
}

// NewRegionFilterWithConfig creates a filter with custom configuration
func NewRegionFilterWithConfig(config FilterConfig, index *RepetitionIndex) *RegionFilter {
	return &RegionFilter{config: config, index: index}
}

// Filter applies the rules in order (full page, size, thickness,
// repetition) to the candidates of one page. Kept candidates keep their
// order.
func (f *RegionFilter) Filter(cands []model.Candidate, page model.Box) ([]model.Candidate, []Rejection) {
	var kept []model.Candidate
	var rejected []Rejection
	for _, c := range cands {
		if rule, drop := f.Check(c, page); drop {
			rejected = append(rejected, Rejection{Candidate: c, Rule: rule})
			continue
		}
		kept = append(kept, c)
	}
	return kept, rejected
}

// Check returns the first rule c fails, if any.
func (f *RegionFilter) Check(c model.Candidate, page model.Box) (Rule, bool) {
	if f.IsFullPage(c.Box, page) {
		return RuleFullPage, true
	}
	if c.Box.LongSide() < f.config.MinSize {
		return RuleSize, true
	}
	if c.Box.ShortSide() < f.config.MinThickness {
		return RuleThickness, true
	}
	if f.index.IsFurniture(c.Page, c.Box) {
		return RuleRepetition, true
	}
	return 0, false
}

// IsFullPage reports whether box covers the page like a background: most
// of its area, at nearly the page's aspect ratio.
func (f *RegionFilter) IsFullPage(box, page model.Box) bool {
	pageArea := page.Area()
	if pageArea == 0 || box.Area() < f.config.FullPageAreaRatio*pageArea {
		return false
	}
	pageAspect := page.AspectRatio()
	if pageAspect == 0 {
		return false
	}
	return math.Abs(box.AspectRatio()-pageAspect)/pageAspect <= f.config.FullPageAspectTolerance
}
