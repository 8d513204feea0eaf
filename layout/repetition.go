package layout

import (
	"math"
	"sort"

	"github.com/tsawler/figura/model"
)

// RepetitionConfig holds configuration for page furniture detection
type RepetitionConfig struct {
	// MajorityRatio is the fraction of pages a box must appear on, at the
	// same position, to count as page furniture. The box must be found on
	// more than this fraction.
	// Default: 0.5
	MajorityRatio float64

	// PositionTolerance is how far each edge may move between pages, as a
	// fraction of the page width (for x) or height (for y).
	// Default: 0.01
	PositionTolerance float64

	// MinTolerance is the lower bound of the edge tolerance in points.
	// Default: 3
	MinTolerance float64

	// MinPages is the minimum number of pages required for the rule to
	// apply at all.
	// Default: 3
	MinPages int
}

// DefaultRepetitionConfig returns sensible default configuration
func DefaultRepetitionConfig() RepetitionConfig {
	return RepetitionConfig{
		MajorityRatio:     0.5,
		PositionTolerance: 0.01,
		MinTolerance:      3.0,
		MinPages:          3,
	}
}

// PageBoxes holds the raw candidate boxes found on one page.
type PageBoxes struct {
	PageIndex int
	PageBox   model.Box
	Boxes     []model.Box
}

type entry struct {
	page int
	box  model.Box
}

// RepetitionIndex records where candidate boxes sit on every page of a
// document, so that boxes recurring at the same position can be found. It
// is built once, after every page has been scanned, and is read-only
// afterwards.
type RepetitionIndex struct {
	config  RepetitionConfig
	pages   map[int]model.Box
	total   int
	entries []entry // sorted by box.X0
}

// NewRepetitionIndex builds an index over all pages of a document. total
// is the number of pages in the document, which may exceed len(pages) when
// some pages failed to scan.
func NewRepetitionIndex(pages []PageBoxes, total int, config RepetitionConfig) *RepetitionIndex {
	idx := &RepetitionIndex{
		config: config,
		pages:  make(map[int]model.Box, len(pages)),
		total:  total,
	}
	for _, p := range pages {
		idx.pages[p.PageIndex] = p.PageBox
		for _, b := range p.Boxes {
			idx.entries = append(idx.entries, entry{page: p.PageIndex, box: b})
		}
	}
	sort.SliceStable(idx.entries, func(i, j int) bool {
		return idx.entries[i].box.X0 < idx.entries[j].box.X0
	})
	return idx
}

// Active reports whether the document has enough pages for the rule.
func (idx *RepetitionIndex) Active() bool {
	return idx != nil && idx.total >= idx.config.MinPages
}

// tolerance returns the edge tolerances for a page.
func (idx *RepetitionIndex) tolerance(page int) (float64, float64) {
	pb, ok := idx.pages[page]
	if !ok {
		pb = model.Box{X1: 612, Y1: 792}
	}
	tx := math.Max(idx.config.MinTolerance, idx.config.PositionTolerance*pb.Width())
	ty := math.Max(idx.config.MinTolerance, idx.config.PositionTolerance*pb.Height())
	return tx, ty
}

// Occurrences counts the distinct pages holding a box whose four edges are
// within tolerance of box.
func (idx *RepetitionIndex) Occurrences(page int, box model.Box) int {
	tx, ty := idx.tolerance(page)

	start := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].box.X0 >= box.X0-tx
	})

	seen := make(map[int]bool)
	for _, e := range idx.entries[start:] {
		if e.box.X0 > box.X0+tx {
			break
		}
		if !seen[e.page] && e.box.EdgesWithin(box, tx, ty) {
			seen[e.page] = true
		}
	}
	return len(seen)
}

// IsFurniture reports whether box, found on page, recurs at the same
// position on more than MajorityRatio of the document's pages.
func (idx *RepetitionIndex) IsFurniture(page int, box model.Box) bool {
	if !idx.Active() {
		return false
	}
	return float64(idx.Occurrences(page, box)) > idx.config.MajorityRatio*float64(idx.total)
}
