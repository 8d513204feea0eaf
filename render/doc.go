// Package render turns figure regions into images.
//
// Two renderers implement [Rasterizer]:
//
//   - [Native] replays the display list collected by the scanner with
//     golang.org/x/image: paths, bitmaps, text through the font package's
//     glyph outlines, and axial or radial shadings.
//   - [Fitz] renders the full page with MuPDF and crops the region. It is
//     only available when built with -tags fitz, which sets [FitzEnabled].
//
// The output resolution comes from a [Policy]: a target DPI lowered until
// the longer side fits MaxDimension, never below MinDPI. Regions whose
// image would exceed MaxPixels fail with a *ResourceExhaustion before any
// pixels are allocated.
package render
