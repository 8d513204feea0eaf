// Package model defines the data types shared by every stage of figure
// extraction.
//
// Coordinates are expressed in page user space: the unrotated PDF default
// coordinate system, 72 units per inch, with y growing upward.
//
// # Geometry
//
//   - [Box] - axis-aligned page-space box with union, intersection, IoU and
//     containment measures
//   - [Point] - 2D point
//   - [Matrix] - 2D affine transformation matrix
//
// # Candidates
//
// A [Candidate] is a provisional figure region. It is a tagged variant:
// [KindRaster] candidates carry a [RasterCandidate] (one placement of a
// shared [Bitmap]); [KindVector] candidates carry a [VectorCluster] of
// painted path primitives. Code that only needs geometry uses the shared
// Box and Page fields and never inspects the payload.
//
// # Results
//
// The merger turns candidates into [FigureRegion] values. After
// rasterization and de-duplication each surviving region becomes an
// immutable [FigureRecord].
//
// # Display lists
//
// The scanner records painted content as a [DisplayList] so a page can be
// rasterized without interpreting its content stream a second time.
package model
