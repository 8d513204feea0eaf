// Package scan interprets a page's content stream and collects the
// material figures are made of.
//
// [Scanner.ScanPage] walks the operators in order, tracking the graphics
// state, and returns:
//
//   - one raster candidate per image placement (XObject or inline), all
//     placements of an image sharing one reader.ImageResource
//   - one vector primitive per painted path, its box in page space and
//     grown by half the line width when stroked
//   - a display list of everything painted, for the native renderer
//
// Form XObjects are drawn recursively with their own matrix, bounding box
// and resources, up to a nesting limit. Shown text and shadings go into the
// display list so crops keep their labels and fills; text never yields a
// candidate.
//
// Content that cannot be read at all fails the page with a
// *MalformedPageError. Single operators that cannot be interpreted are
// skipped and reported as *UnsupportedPrimitiveError values in
// Result.Problems.
package scan
