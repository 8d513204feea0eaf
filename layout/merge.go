package layout

import (
	"sort"

	"github.com/tsawler/figura/model"
)

// MergeConfig holds configuration for region merging
type MergeConfig struct {
	// MergeIoU is the intersection-over-union above which two regions
	// merge into their union.
	// Default: 0.3
	MergeIoU float64

	// ContainmentRatio is the fraction of a region's area that must lie
	// inside another region for it to be absorbed.
	// Default: 0.95
	ContainmentRatio float64
}

// DefaultMergeConfig returns sensible default configuration
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		MergeIoU:         0.3,
		ContainmentRatio: 0.95,
	}
}

// Merger combines overlapping candidates of one page into figure regions.
type Merger struct {
	config MergeConfig
}

// NewMerger creates a merger with default configuration
func NewMerger() *Merger {
	return &Merger{config: DefaultMergeConfig()}
}

// NewMergerWithConfig creates a merger with custom configuration
func NewMergerWithConfig(config MergeConfig) *Merger {
	return &Merger{config: config}
}

// Merge turns the candidates of one page into figure regions. A region
// lying mostly inside another is absorbed and leaves the larger box as it
// is; two regions overlapping by more than MergeIoU become their union.
// This repeats until no pair qualifies. Regions come out top-to-bottom,
// then left-to-right.
func (m *Merger) Merge(page int, cands []model.Candidate) []model.FigureRegion {
	sorted := make([]model.Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seq < sorted[j].Seq
	})

	regions := make([]model.FigureRegion, 0, len(sorted))
	for _, c := range sorted {
		regions = append(regions, model.FigureRegion{
			Page:    page,
			Box:     c.Box,
			Sources: []model.Candidate{c},
		})
	}

	for m.step(&regions) {
	}

	for i := range regions {
		sort.SliceStable(regions[i].Sources, func(a, b int) bool {
			return regions[i].Sources[a].Seq < regions[i].Sources[b].Seq
		})
	}
	sort.SliceStable(regions, func(i, j int) bool {
		return model.ReadingLess(regions[i].Box, regions[j].Box)
	})
	return regions
}

// step performs the first applicable merge and reports whether it found
// one.
func (m *Merger) step(regions *[]model.FigureRegion) bool {
	rs := *regions
	for i := 0; i < len(rs); i++ {
		for j := i + 1; j < len(rs); j++ {
			a, b := rs[i].Box, rs[j].Box

			inB := a.ContainedFraction(b) >= m.config.ContainmentRatio
			inA := b.ContainedFraction(a) >= m.config.ContainmentRatio
			switch {
			case inA && inB:
				// Near-identical boxes: the larger one survives, the
				// earlier one on ties.
				if b.Area() > a.Area() {
					absorb(regions, j, i)
				} else {
					absorb(regions, i, j)
				}
				return true
			case inB:
				absorb(regions, j, i)
				return true
			case inA:
				absorb(regions, i, j)
				return true
			case a.IoU(b) > m.config.MergeIoU:
				rs[i].Box = a.Union(b)
				absorb(regions, i, j)
				return true
			}
		}
	}
	return false
}

// absorb moves the sources of region from into region into and removes
// region from.
func absorb(regions *[]model.FigureRegion, into, from int) {
	rs := *regions
	rs[into].Sources = append(rs[into].Sources, rs[from].Sources...)
	*regions = append(rs[:from], rs[from+1:]...)
}

// Overlapping returns the first pair of regions that violates the merge
// post-conditions: IoU above MergeIoU, or one region contained in another
// by ContainmentRatio or more. ok is false when none does.
func (m *Merger) Overlapping(regions []model.FigureRegion) (i, j int, ok bool) {
	for i = range regions {
		for j = i + 1; j < len(regions); j++ {
			a, b := regions[i].Box, regions[j].Box
			if a.IoU(b) > m.config.MergeIoU ||
				a.ContainedFraction(b) >= m.config.ContainmentRatio ||
				b.ContainedFraction(a) >= m.config.ContainmentRatio {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
