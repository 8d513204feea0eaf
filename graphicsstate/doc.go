// Package graphicsstate tracks the PDF graphics state while a content
// stream is interpreted.
//
// GraphicsState carries the current transformation matrix, line width and
// stroke and fill colors, with the q/Q save stack:
//
//	gs := graphicsstate.NewGraphicsState()
//	gs.Save()            // q
//	gs.Transform(m)      // cm
//	gs.SetFillColor(1, 0, 0)
//	gs.Restore()         // Q
//
// TextState follows the text operators (Tf, Tc, Tw, Tz, TL, Tr, Ts, BT,
// Tm, Td, TD, T*). GlyphMatrix gives the page-space placement of the next
// glyph and Advance moves past it.
//
// Path records construction operators (m, l, c, v, y, h, re) in user space.
// Flatten and Bounds map the path into page space through a CTM, with
// curves flattened to line segments.
package graphicsstate
