package figura

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/figura/dedupe"
	"github.com/tsawler/figura/layout"
	"github.com/tsawler/figura/model"
	"github.com/tsawler/figura/reader"
	"github.com/tsawler/figura/render"
	"github.com/tsawler/figura/scan"
)

// pipeline runs one extraction over a document.
type pipeline struct {
	doc      *reader.Document
	options  ExtractOptions
	renderer render.Rasterizer
	logger   zerolog.Logger
	runID    uuid.UUID

	scanner   *scan.Scanner
	clusterer *layout.Clusterer
	merger    *layout.Merger
}

// scannedPage is the phase 1 output of one page.
type scannedPage struct {
	index      int
	result     *scan.Result
	candidates []model.Candidate
	warnings   []Warning
}

// pageFigures is the phase 2 output of one page.
type pageFigures struct {
	records  []model.FigureRecord
	warnings []Warning
}

func newPipeline(doc *reader.Document, options ExtractOptions, renderer render.Rasterizer) *pipeline {
	runID := uuid.New()
	logger := options.logger.With().Str("run_id", runID.String()).Logger()
	return &pipeline{
		doc:       doc,
		options:   options,
		renderer:  renderer,
		logger:    logger,
		runID:     runID,
		scanner:   scan.New(doc, scan.WithMaxFormDepth(options.engine.MaxFormDepth), scan.WithLogger(logger)),
		clusterer: layout.NewClustererWithConfig(options.engine.Cluster()),
		merger:    layout.NewMergerWithConfig(options.engine.Merge()),
	}
}

// run extracts the figures of the selected pages. Phase 1 scans and
// clusters pages in parallel; once every page is done the repetition
// index is built from all of them, and phase 2 filters, merges and
// renders the selected pages in parallel.
func (p *pipeline) run(ctx context.Context, selected []int) (*Result, error) {
	res := &Result{RunID: p.runID, Pages: len(selected)}
	for _, w := range p.doc.Warnings() {
		res.Warnings = append(res.Warnings, Warning{Kind: WarningDocument, Message: w})
	}

	p.logger.Info().Int("pages", len(selected)).Msg("extracting figures")

	// Furniture is decided over the whole document, so every page is
	// scanned when the rule can apply.
	total := p.doc.PageCount()
	toScan := selected
	if total >= p.options.engine.MinPages && len(selected) < total {
		toScan = make([]int, total)
		for i := range toScan {
			toScan[i] = i
		}
	}

	scanned, err := p.scanAll(ctx, toScan)
	if err != nil {
		return nil, err
	}

	boxes := make([]layout.PageBoxes, 0, len(scanned))
	for _, sp := range scanned {
		if sp == nil || sp.result == nil {
			continue
		}
		pb := layout.PageBoxes{PageIndex: sp.index, PageBox: sp.result.PageBox}
		for _, c := range sp.candidates {
			pb.Boxes = append(pb.Boxes, c.Box)
		}
		boxes = append(boxes, pb)
	}
	index := layout.NewRepetitionIndex(boxes, total, p.options.engine.Repetition())
	filter := layout.NewRegionFilterWithConfig(p.options.engine.Filter(), index)

	byIndex := make(map[int]*scannedPage, len(scanned))
	for _, sp := range scanned {
		byIndex[sp.index] = sp
	}
	work := make([]*scannedPage, len(selected))
	for i, idx := range selected {
		work[i] = byIndex[idx]
		res.Warnings = append(res.Warnings, work[i].warnings...)
	}

	figures, err := p.renderAll(ctx, work, filter)
	if err != nil {
		return nil, err
	}

	var records []model.FigureRecord
	for _, pf := range figures {
		records = append(records, pf.records...)
		res.Warnings = append(res.Warnings, pf.warnings...)
	}

	kept, dups := dedupe.New(p.options.engine.CrossPageDedup).Suppress(records)
	for _, d := range dups {
		p.logger.Debug().
			Int("page", d.Dropped.Page).
			Str("box", d.Dropped.Box.String()).
			Int("kept_page", d.Kept.Page).
			Str("fingerprint", d.Dropped.Fingerprint).
			Msg("duplicate figure dropped")
	}
	res.Figures = kept
	res.Duplicates = len(dups)

	p.logger.Info().
		Int("figures", len(res.Figures)).
		Int("duplicates", res.Duplicates).
		Int("warnings", len(res.Warnings)).
		Msg("extraction finished")
	return res, nil
}

// scanAll runs phase 1. The result has one entry per index, in order.
func (p *pipeline) scanAll(ctx context.Context, indices []int) ([]*scannedPage, error) {
	out := make([]*scannedPage, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.options.workers())
	for i, idx := range indices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = p.scanPage(gctx, idx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *pipeline) scanPage(ctx context.Context, index int) *scannedPage {
	sp := &scannedPage{index: index}
	logger := p.logger.With().Int("page", index+1).Logger()

	pctx, cancel := context.WithTimeout(ctx, p.options.pageTimeout())
	defer cancel()

	result, err := p.scanner.ScanPage(pctx, index)
	if err != nil {
		sp.warnings = append(sp.warnings, p.pageWarning(ctx, index, err))
		logger.Warn().Err(err).Msg("page skipped")
		return sp
	}
	for _, prob := range result.Problems {
		kind := WarningUnsupportedPrimitive
		if errors.Is(prob, reader.ErrStreamTooLarge) {
			kind = WarningResourceExhaustion
		}
		sp.warnings = append(sp.warnings, Warning{
			Page:    index + 1,
			Kind:    kind,
			Message: prob.Error(),
		})
	}

	cands := append([]model.Candidate(nil), result.Rasters...)
	for _, cl := range p.clusterer.Cluster(result.Primitives, result.PageBox) {
		cands = append(cands, model.NewVectorCandidate(index, cl))
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].Seq < cands[b].Seq })

	sp.result = result
	sp.candidates = cands
	logger.Debug().
		Int("rasters", len(result.Rasters)).
		Int("primitives", len(result.Primitives)).
		Int("candidates", len(cands)).
		Msg("page scanned")
	return sp
}

// renderAll runs phase 2. Each page writes to its own slot, so output
// order never depends on completion order.
func (p *pipeline) renderAll(ctx context.Context, pages []*scannedPage, filter *layout.RegionFilter) ([]pageFigures, error) {
	out := make([]pageFigures, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.options.workers())
	for i, sp := range pages {
		if sp == nil || sp.result == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = p.figuresOf(gctx, sp, filter)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *pipeline) figuresOf(ctx context.Context, sp *scannedPage, filter *layout.RegionFilter) pageFigures {
	var pf pageFigures
	page := sp.result.PageBox
	logger := p.logger.With().Int("page", sp.index+1).Logger()

	pctx, cancel := context.WithTimeout(ctx, p.options.pageTimeout())
	defer cancel()

	kept, rejected := filter.Filter(sp.candidates, page)
	for _, r := range rejected {
		logger.Debug().
			Str("box", r.Candidate.Box.String()).
			Str("kind", r.Candidate.Kind.String()).
			Str("rule", r.Rule.String()).
			Msg("candidate rejected")
	}

	regions := p.merger.Merge(sp.index, kept)
	rp := &render.Page{Index: sp.index, Box: page, Display: sp.result.Display}

	for _, region := range regions {
		img, err := p.renderer.Render(pctx, rp, region.Box)
		if err != nil {
			if pctx.Err() != nil {
				// The page ran out of time; partial output is discarded.
				return pageFigures{warnings: append(pf.warnings, p.pageWarning(ctx, sp.index, pctx.Err()))}
			}
			w := Warning{Page: sp.index + 1, Box: region.Box, Kind: WarningRasterization, Message: err.Error()}
			var re *render.ResourceExhaustion
			if errors.As(err, &re) {
				w.Kind = WarningResourceExhaustion
			}
			pf.warnings = append(pf.warnings, w)
			logger.Warn().Err(err).Str("box", region.Box.String()).Msg("region dropped")
			continue
		}

		pf.records = append(pf.records, model.FigureRecord{
			Page:        sp.index + 1,
			Box:         region.Box,
			Image:       img,
			Fingerprint: dedupe.Fingerprint(img),
			Kinds:       region.Kinds(),
		})
	}

	logger.Debug().
		Int("kept", len(kept)).
		Int("rejected", len(rejected)).
		Int("figures", len(pf.records)).
		Msg("page rendered")
	return pf
}

// pageWarning turns a page-level failure into a warning. Deadline errors
// caused by the per-page budget are timeouts and oversized streams are
// resource exhaustion; the caller's own cancellation is handled by the
// pipeline.
func (p *pipeline) pageWarning(ctx context.Context, index int, err error) Warning {
	w := Warning{Page: index + 1, Kind: WarningMalformedPage, Message: err.Error()}
	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		w.Kind = WarningTimeout
		w.Message = fmt.Sprintf("page exceeded its %s budget", p.options.pageTimeout())
	case errors.Is(err, reader.ErrStreamTooLarge):
		w.Kind = WarningResourceExhaustion
	}
	return w
}
