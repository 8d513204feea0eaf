package reader

import (
	"fmt"
	"image/color"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ColorSpace is an image color space reduced to what is needed to turn
// samples into RGB.
type ColorSpace struct {
	Family     string
	Components int

	// Indexed
	Base   *ColorSpace
	HiVal  int
	Lookup []byte

	// Lab
	WhitePoint [3]float64
	Range      [4]float64
}

var (
	deviceGray = &ColorSpace{Family: "DeviceGray", Components: 1}
	deviceRGB  = &ColorSpace{Family: "DeviceRGB", Components: 3}
	deviceCMYK = &ColorSpace{Family: "DeviceCMYK", Components: 4}
)

// maxColorSpaceDepth bounds nesting such as Indexed over ICCBased over a
// named resource.
const maxColorSpaceDepth = 8

// colorSpace resolves a /ColorSpace value. Names that are not device
// spaces are looked up in resources, as inline images may do.
func (d *Document) colorSpace(obj types.Object, resources types.Dict, inline bool, depth int) (*ColorSpace, error) {
	if depth > maxColorSpaceDepth {
		return nil, fmt.Errorf("color space nested too deeply")
	}

	obj, err := d.Resolve(obj)
	if err != nil {
		return nil, err
	}

	switch v := obj.(type) {
	case types.Name:
		switch string(v) {
		case "DeviceGray", "G", "CalGray":
			return deviceGray, nil
		case "DeviceRGB", "RGB", "CalRGB":
			return deviceRGB, nil
		case "DeviceCMYK", "CMYK":
			return deviceCMYK, nil
		}
		entry, err := d.Resource(resources, "ColorSpace", string(v))
		if err != nil {
			return nil, fmt.Errorf("unknown color space /%s", v)
		}
		return d.colorSpace(entry, resources, false, depth+1)
	case types.Array:
		return d.colorSpaceArray(v, resources, inline, depth)
	case nil:
		return nil, fmt.Errorf("missing color space")
	}
	return nil, fmt.Errorf("invalid color space type %T", obj)
}

func (d *Document) colorSpaceArray(arr types.Array, resources types.Dict, inline bool, depth int) (*ColorSpace, error) {
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty color space array")
	}
	head, err := d.Resolve(arr[0])
	if err != nil {
		return nil, err
	}
	family, ok := head.(types.Name)
	if !ok {
		return nil, fmt.Errorf("invalid color space family %T", head)
	}

	switch string(family) {
	case "DeviceGray", "G", "CalGray":
		return deviceGray, nil
	case "DeviceRGB", "RGB", "CalRGB":
		return deviceRGB, nil
	case "DeviceCMYK", "CMYK":
		return deviceCMYK, nil

	case "ICCBased":
		if len(arr) < 2 {
			return nil, fmt.Errorf("ICCBased without stream")
		}
		dict, err := d.ResolveDict(arr[1])
		if err != nil || dict == nil {
			return nil, fmt.Errorf("invalid ICC profile stream")
		}
		if n, ok := d.Int(dict["N"]); ok {
			switch n {
			case 1:
				return deviceGray, nil
			case 3:
				return deviceRGB, nil
			case 4:
				return deviceCMYK, nil
			}
		}
		if alt, ok := dict.Find("Alternate"); ok {
			return d.colorSpace(alt, resources, inline, depth+1)
		}
		return nil, fmt.Errorf("ICCBased profile without usable /N")

	case "Indexed", "I":
		if len(arr) < 4 {
			return nil, fmt.Errorf("short Indexed color space")
		}
		base, err := d.colorSpace(arr[1], resources, inline, depth+1)
		if err != nil {
			return nil, fmt.Errorf("Indexed base: %w", err)
		}
		hival, ok := d.Int(arr[2])
		if !ok || hival < 0 {
			return nil, fmt.Errorf("invalid Indexed hival")
		}
		lookup, err := d.lookupBytes(arr[3], inline)
		if err != nil {
			return nil, err
		}
		return &ColorSpace{Family: "Indexed", Components: 1, Base: base, HiVal: hival, Lookup: lookup}, nil

	case "Separation":
		return &ColorSpace{Family: "Separation", Components: 1}, nil

	case "DeviceN":
		if len(arr) < 2 {
			return nil, fmt.Errorf("short DeviceN color space")
		}
		names, err := d.Resolve(arr[1])
		if err != nil {
			return nil, err
		}
		n, ok := names.(types.Array)
		if !ok || len(n) == 0 {
			return nil, fmt.Errorf("invalid DeviceN colorants")
		}
		return &ColorSpace{Family: "DeviceN", Components: len(n)}, nil

	case "Lab":
		cs := &ColorSpace{
			Family:     "Lab",
			Components: 3,
			WhitePoint: [3]float64{0.9505, 1, 1.089},
			Range:      [4]float64{-100, 100, -100, 100},
		}
		if len(arr) > 1 {
			if dict, err := d.ResolveDict(arr[1]); err == nil && dict != nil {
				if wp, ok := d.Numbers(dict["WhitePoint"]); ok && len(wp) == 3 {
					copy(cs.WhitePoint[:], wp)
				}
				if r, ok := d.Numbers(dict["Range"]); ok && len(r) == 4 {
					copy(cs.Range[:], r)
				}
			}
		}
		return cs, nil
	}

	return nil, fmt.Errorf("unsupported color space /%s", family)
}

// lookupBytes returns an Indexed palette. Strings read by the content
// stream parser are already unescaped; strings from the object layer are
// not.
func (d *Document) lookupBytes(obj types.Object, inline bool) ([]byte, error) {
	switch v := obj.(type) {
	case types.IndirectRef, *types.IndirectRef:
		resolved, err := d.Resolve(obj)
		if err != nil {
			return nil, err
		}
		switch resolved.(type) {
		case types.StringLiteral, types.HexLiteral:
			return d.lookupBytes(resolved, false)
		}
		s, err := d.Stream(obj)
		if err != nil {
			return nil, fmt.Errorf("Indexed lookup: %w", err)
		}
		return s.Data, nil
	case types.StringLiteral:
		if inline {
			return []byte(v), nil
		}
		return types.Unescape(string(v))
	case types.HexLiteral:
		return v.Bytes()
	case types.StreamDict:
		s, err := d.Stream(&v)
		if err != nil {
			return nil, err
		}
		return s.Data, nil
	}
	return nil, fmt.Errorf("invalid Indexed lookup %T", obj)
}

// defaultDecode returns the decode ranges used when an image has no
// /Decode array.
func (cs *ColorSpace) defaultDecode(bpc int) []float64 {
	switch cs.Family {
	case "Indexed":
		return []float64{0, float64(int(1)<<bpc - 1)}
	case "Lab":
		return []float64{0, 100, cs.Range[0], cs.Range[1], cs.Range[2], cs.Range[3]}
	}
	out := make([]float64, 0, 2*cs.Components)
	for i := 0; i < cs.Components; i++ {
		out = append(out, 0, 1)
	}
	return out
}

// NRGBA converts decoded component values to a color.
func (cs *ColorSpace) NRGBA(c []float64) color.NRGBA {
	switch cs.Family {
	case "DeviceGray":
		g := unit8(c[0])
		return color.NRGBA{R: g, G: g, B: g, A: 0xff}
	case "DeviceRGB":
		return color.NRGBA{R: unit8(c[0]), G: unit8(c[1]), B: unit8(c[2]), A: 0xff}
	case "DeviceCMYK":
		k := 1 - c[3]
		return color.NRGBA{
			R: unit8((1 - c[0]) * k),
			G: unit8((1 - c[1]) * k),
			B: unit8((1 - c[2]) * k),
			A: 0xff,
		}
	case "Indexed":
		return cs.indexed(int(math.Round(c[0])))
	case "Separation", "DeviceN":
		// Tints are ink coverage; the strongest colorant decides the gray.
		max := 0.0
		for _, v := range c {
			if v > max {
				max = v
			}
		}
		g := unit8(1 - max)
		return color.NRGBA{R: g, G: g, B: g, A: 0xff}
	case "Lab":
		r, g, b := labToRGB(c[0], c[1], c[2], cs.WhitePoint)
		return color.NRGBA{R: unit8(r), G: unit8(g), B: unit8(b), A: 0xff}
	}
	return color.NRGBA{A: 0xff}
}

func (cs *ColorSpace) indexed(i int) color.NRGBA {
	if i < 0 {
		i = 0
	}
	if i > cs.HiVal {
		i = cs.HiVal
	}
	n := cs.Base.Components
	off := i * n
	if off+n > len(cs.Lookup) {
		return color.NRGBA{A: 0xff}
	}
	comps := make([]float64, n)
	for k := 0; k < n; k++ {
		comps[k] = float64(cs.Lookup[off+k]) / 255
	}
	if cs.Base.Family == "Lab" {
		dec := cs.Base.defaultDecode(8)
		for k := range comps {
			comps[k] = dec[2*k] + comps[k]*(dec[2*k+1]-dec[2*k])
		}
	}
	return cs.Base.NRGBA(comps)
}

func labToRGB(l, a, b float64, wp [3]float64) (float64, float64, float64) {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200

	inv := func(t float64) float64 {
		if t > 6.0/29 {
			return t * t * t
		}
		return 3 * (6.0 / 29) * (6.0 / 29) * (t - 4.0/29)
	}
	x := wp[0] * inv(fx)
	y := wp[1] * inv(fy)
	z := wp[2] * inv(fz)

	r := 3.2406*x - 1.5372*y - 0.4986*z
	g := -0.9689*x + 1.8758*y + 0.0415*z
	bl := 0.0557*x - 0.2040*y + 1.0570*z
	return gamma(r), gamma(g), gamma(bl)
}

func gamma(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func unit8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
