package font

import "strings"

// Advance widths of the printable ASCII range, in thousandths of an em,
// for the standard 14 families. Index 0 is the space character.
var (
	helveticaASCII = [95]int16{
		278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
		1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
		333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
		556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
	}
	helveticaBoldASCII = [95]int16{
		278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 333, 333, 584, 584, 584, 611,
		975, 722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 333, 278, 333, 584, 556,
		333, 556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889, 611, 611,
		611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500, 389, 280, 389, 584,
	}
	timesASCII = [95]int16{
		250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278, 564, 564, 564, 444,
		921, 722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889, 722, 722,
		556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611, 333, 278, 333, 469, 500,
		333, 444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778, 500, 500,
		500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541,
	}
	timesBoldASCII = [95]int16{
		250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 333, 333, 570, 570, 570, 500,
		930, 722, 667, 722, 722, 667, 611, 778, 778, 389, 500, 778, 667, 944, 722, 778,
		611, 778, 722, 556, 667, 722, 722, 1000, 722, 722, 667, 333, 278, 333, 581, 500,
		333, 500, 556, 444, 556, 444, 333, 500, 556, 278, 333, 556, 278, 833, 556, 500,
		556, 556, 444, 389, 333, 556, 500, 722, 500, 500, 444, 394, 220, 394, 520,
	}
)

// Widths of the quote glyphs StandardEncoding puts at 0x27 and 0x60.
var quoteWidths = map[*[95]int16][2]int16{
	&helveticaASCII:     {222, 222},
	&helveticaBoldASCII: {278, 278},
	&timesASCII:         {333, 333},
	&timesBoldASCII:     {333, 333},
}

// metrics gives standard 14 advance widths by character.
type metrics struct {
	ascii *[95]int16
	fixed int16 // Courier
}

func (m *metrics) width(r rune) (float64, bool) {
	if m == nil {
		return 0, false
	}
	if m.fixed > 0 {
		return float64(m.fixed), true
	}
	switch {
	case r >= ' ' && r <= '~':
		return float64(m.ascii[r-' ']), true
	case r == '’':
		return float64(quoteWidths[m.ascii][0]), true
	case r == '‘':
		return float64(quoteWidths[m.ascii][1]), true
	}
	return 0, false
}

// standardMetrics returns the metrics of a standard 14 font, or of the
// metric-compatible names writers substitute for them (Arial for
// Helvetica, TimesNewRoman for Times). Symbol, ZapfDingbats and other
// fonts return nil.
func standardMetrics(baseFont string) *metrics {
	name := strings.ToLower(baseFont)
	bold := strings.Contains(name, "bold")
	switch {
	case strings.Contains(name, "courier"):
		return &metrics{fixed: 600}
	case strings.HasPrefix(name, "helvetica"), strings.HasPrefix(name, "arial"):
		if bold {
			return &metrics{ascii: &helveticaBoldASCII}
		}
		return &metrics{ascii: &helveticaASCII}
	case strings.HasPrefix(name, "times"):
		if bold {
			return &metrics{ascii: &timesBoldASCII}
		}
		return &metrics{ascii: &timesASCII}
	}
	return nil
}
