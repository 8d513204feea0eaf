package font

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Encoding maps the one-byte codes of a simple font to Unicode. Zero
// means the code has no known character.
type Encoding [256]rune

// NamedEncoding returns the base encoding a simple font names in its
// /Encoding entry. Unknown names give StandardEncoding.
func NamedEncoding(name string) Encoding {
	switch name {
	case "WinAnsiEncoding":
		return fromCharmap(charmap.Windows1252)
	case "MacRomanEncoding":
		return fromCharmap(charmap.Macintosh)
	case "MacExpertEncoding":
		// Expert sets hold small capitals and ligatures the fallback fonts
		// lack; the ASCII range still places digits and punctuation.
		return standardEncoding()
	}
	return standardEncoding()
}

func fromCharmap(cm *charmap.Charmap) Encoding {
	var e Encoding
	for c := 0x20; c < 256; c++ {
		r := cm.DecodeByte(byte(c))
		if r != '\ufffd' {
			e[c] = r
		}
	}
	return e
}

// standardEncoding is Adobe StandardEncoding: ASCII with typographic
// quotes, and its own layout above 0xA0.
func standardEncoding() Encoding {
	var e Encoding
	for c := 0x20; c < 0x7f; c++ {
		e[c] = rune(c)
	}
	e['\''] = '’'
	e['`'] = '‘'
	for c, r := range standardHigh {
		e[c] = r
	}
	return e
}

var standardHigh = map[int]rune{
	0xA1: '¡', 0xA2: '¢', 0xA3: '£', 0xA4: '⁄', 0xA5: '¥', 0xA6: 'ƒ', 0xA7: '§',
	0xA8: '¤', 0xA9: '\'', 0xAA: '“', 0xAB: '«', 0xAC: '‹', 0xAD: '›', 0xAE: 'ﬁ',
	0xAF: 'ﬂ', 0xB1: '–', 0xB2: '†', 0xB3: '‡', 0xB4: '·', 0xB6: '¶', 0xB7: '•',
	0xB8: '‚', 0xB9: '„', 0xBA: '”', 0xBB: '»', 0xBC: '…', 0xBD: '‰', 0xBF: '¿',
	0xC1: '`', 0xC2: '´', 0xC3: 'ˆ', 0xC4: '˜', 0xC5: '¯', 0xC6: '˘', 0xC7: '˙',
	0xC8: '¨', 0xCA: '˚', 0xCB: '¸', 0xCD: '˝', 0xCE: '˛', 0xCF: 'ˇ', 0xD0: '—',
	0xE1: 'Æ', 0xE3: 'ª', 0xE8: 'Ł', 0xE9: 'Ø', 0xEA: 'Œ', 0xEB: 'º', 0xF1: 'æ',
	0xF5: 'ı', 0xF8: 'ł', 0xF9: 'ø', 0xFA: 'œ', 0xFB: 'ß',
}

// Apply overrides codes with the glyph names of a /Differences array.
// Names with no known character clear the code.
func (e *Encoding) Apply(differences map[int]string) {
	for code, name := range differences {
		if code < 0 || code > 255 {
			continue
		}
		e[code] = GlyphRune(name)
	}
}

// GlyphRune returns the character named by a glyph name, or 0. It
// understands uniXXXX and uXXXX[XX] names, single-character names, the
// common Adobe names and accented Latin letters such as "eacute".
func GlyphRune(name string) rune {
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i] // "a.sc", "one.oldstyle"
	}
	if r, ok := glyphNames[name]; ok {
		return r
	}
	if len(name) == 1 {
		return rune(name[0])
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 {
		if v, err := strconv.ParseUint(name[3:7], 16, 32); err == nil {
			return rune(v)
		}
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil {
			return rune(v)
		}
	}
	return accented(name)
}

// accented composes a base letter with the accent its name ends in.
func accented(name string) rune {
	for suffix, mark := range accents {
		base, ok := strings.CutSuffix(name, suffix)
		if !ok || len(base) != 1 {
			continue
		}
		composed := []rune(norm.NFC.String(base + string(mark)))
		if len(composed) == 1 {
			return composed[0]
		}
	}
	return 0
}

var accents = map[string]rune{
	"acute":        '\u0301',
	"grave":        '\u0300',
	"circumflex":   '\u0302',
	"tilde":        '\u0303',
	"macron":       '\u0304',
	"breve":        '\u0306',
	"dotaccent":    '\u0307',
	"dieresis":     '\u0308',
	"ring":         '\u030A',
	"hungarumlaut": '\u030B',
	"caron":        '\u030C',
	"cedilla":      '\u0327',
	"ogonek":       '\u0328',
}

var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#', "dollar": '$',
	"percent": '%', "ampersand": '&', "quotesingle": '\'', "quoteright": '’',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+', "comma": ',',
	"hyphen": '-', "period": '.', "slash": '/', "zero": '0', "one": '1', "two": '2',
	"three": '3', "four": '4', "five": '5', "six": '6', "seven": '7', "eight": '8',
	"nine": '9', "colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@', "bracketleft": '[', "backslash": '\\',
	"bracketright": ']', "asciicircum": '^', "underscore": '_', "grave": '`',
	"quoteleft": '‘', "braceleft": '{', "bar": '|', "braceright": '}',
	"asciitilde": '~', "bullet": '•', "endash": '–', "emdash": '—',
	"quotedblleft": '“', "quotedblright": '”', "quotesinglbase": '‚',
	"quotedblbase": '„', "ellipsis": '…', "degree": '°', "copyright": '©',
	"registered": '®', "trademark": '™', "fi": 'ﬁ', "fl": 'ﬂ', "minus": '−',
	"multiply": '×', "divide": '÷', "plusminus": '±', "mu": 'µ', "periodcentered": '·',
	"dagger": '†', "daggerdbl": '‡', "section": '§', "paragraph": '¶', "perthousand": '‰',
	"guillemotleft": '«', "guillemotright": '»', "guilsinglleft": '‹', "guilsinglright": '›',
	"exclamdown": '¡', "questiondown": '¿', "cent": '¢', "sterling": '£', "yen": '¥',
	"Euro": '€', "currency": '¤', "florin": 'ƒ', "brokenbar": '¦', "logicalnot": '¬',
	"onehalf": '½', "onequarter": '¼', "threequarters": '¾', "onesuperior": '¹',
	"twosuperior": '²', "threesuperior": '³', "ordfeminine": 'ª', "ordmasculine": 'º',
	"germandbls": 'ß', "AE": 'Æ', "ae": 'æ', "OE": 'Œ', "oe": 'œ', "Oslash": 'Ø',
	"oslash": 'ø', "Lslash": 'Ł', "lslash": 'ł', "dotlessi": 'ı', "Eth": 'Ð', "eth": 'ð',
	"Thorn": 'Þ', "thorn": 'þ', "nbspace": '\u00a0', "sfthyphen": '\u00ad',
	"arrowleft": '←', "arrowup": '↑', "arrowright": '→', "arrowdown": '↓',
	"infinity": '∞', "lessequal": '≤', "greaterequal": '≥', "notequal": '≠',
	"approxequal": '≈', "summation": '∑', "product": '∏', "radical": '√',
	"integral": '∫', "partialdiff": '∂', "Delta": '∆', "Omega": 'Ω', "pi": 'π',
	"alpha": 'α', "beta": 'β', "gamma": 'γ', "delta": 'δ', "epsilon": 'ε',
	"lambda": 'λ', "sigma": 'σ', "theta": 'θ', "percentsign": '%',
}
