// Package layout decides which painted things on a page are figures.
//
// It works on bounding boxes in page space and never looks at pixels. The
// stages run in this order for each page:
//
//	clusters := layout.NewClusterer().Cluster(prims, pageBox)
//	kept, rejected := layout.NewRegionFilter(index).Filter(cands, pageBox)
//	regions := layout.NewMerger().Merge(pageIndex, kept)
//
// # Clustering
//
// The [Clusterer] groups vector primitives whose boxes touch or lie within
// a small gap of each other (a fraction of the page diagonal) into
// connected components. Shapes covering nearly the whole page, such as a
// background fill, are set aside first so they do not glue every drawing
// on the page into one cluster.
//
// # Page furniture
//
// A [RepetitionIndex] is built once per document from every candidate
// box. A box that recurs at the same position and size on a majority of
// pages is furniture (a logo, a header rule) rather than a figure. The
// index is inactive for documents shorter than MinPages.
//
// # Filtering
//
// The [RegionFilter] rejects candidates that are furniture, that cover the
// full page, or that are too small or too thin to be a figure. Each
// rejection names its [Rule].
//
// # Merging
//
// The [Merger] combines candidates whose boxes overlap strongly or are
// mostly contained in one another, repeating until no pair qualifies, and
// returns regions in reading order (top to bottom, then left to right).
package layout
