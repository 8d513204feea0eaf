// Package font turns the fonts of a PDF into glyph outlines for drawing.
//
// A [Font] is built from a [Descriptor], the already-resolved contents of
// a PDF font dictionary. Embedded TrueType and OpenType programs are
// parsed with golang.org/x/image/font/sfnt and draw their own glyphs.
// Fonts without a usable program (the standard 14, Type 1 and bare CFF
// programs) are drawn with the closest Go font, chosen from the font name
// and descriptor flags, using the character's Unicode value.
//
// Character codes are one byte for simple fonts and two bytes for Type 0
// fonts. Advance widths come from the PDF /Widths or /W arrays when
// present, then from the standard 14 metrics, then from the font program.
//
// Type 3 fonts draw glyphs with content streams and are handled by the
// content stream interpreter, not by this package.
package font
