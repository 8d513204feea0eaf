package reader

import (
	"fmt"
	"image/color"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Shading is a resolved /Shading resource, with its color function
// reduced to the colors at the two ends of its domain.
type Shading struct {
	Type int
	// Coords are x0 y0 x1 y1 for axial shadings and x0 y0 r0 x1 y1 r1 for
	// radial ones, in shading space.
	Coords   []float64
	From, To color.NRGBA
}

// maxFunctionDepth bounds stitching functions nested in each other.
const maxFunctionDepth = 4

// Shading resolves the named entry of the resource dictionary's /Shading
// category. Mesh and function-based shadings, whose colors vary over the
// area, come back with the /Background color or a mid tone at both ends.
func (d *Document) Shading(resources types.Dict, name string) (*Shading, error) {
	entry, err := d.Resource(resources, "Shading", name)
	if err != nil {
		return nil, err
	}
	dict, err := d.ResolveDict(entry)
	if err != nil || dict == nil {
		return nil, fmt.Errorf("invalid shading dictionary")
	}

	cs, err := d.colorSpace(dict["ColorSpace"], resources, false, 0)
	if err != nil {
		return nil, err
	}
	s := &Shading{}
	s.Type, _ = d.Int(dict["ShadingType"])
	s.Coords, _ = d.Numbers(dict["Coords"])

	n := cs.Components
	c0, c1, err := d.functionEnds(dict["Function"], 0)
	if err != nil || len(c0) == 0 {
		bg, ok := d.Numbers(dict["Background"])
		if !ok {
			bg = make([]float64, n)
			for i := range bg {
				bg[i] = 0.5
			}
		}
		c0, c1 = bg, bg
	}
	s.From = cs.NRGBA(pad(c0, n))
	s.To = cs.NRGBA(pad(c1, n))
	return s, nil
}

// functionEnds evaluates a shading function at both ends of a 0..1
// domain. An array of functions gives one output component each.
func (d *Document) functionEnds(obj types.Object, depth int) ([]float64, []float64, error) {
	if depth > maxFunctionDepth {
		return nil, nil, fmt.Errorf("functions nested too deeply")
	}
	resolved, err := d.Resolve(obj)
	if err != nil {
		return nil, nil, err
	}
	if arr, ok := resolved.(types.Array); ok {
		var c0, c1 []float64
		for _, f := range arr {
			a, b, err := d.functionEnds(f, depth+1)
			if err != nil {
				return nil, nil, err
			}
			c0 = append(c0, first(a))
			c1 = append(c1, first(b))
		}
		return c0, c1, nil
	}

	dict, err := d.ResolveDict(resolved)
	if err != nil || dict == nil {
		return nil, nil, fmt.Errorf("missing function")
	}
	typ, _ := d.Int(dict["FunctionType"])
	switch typ {
	case 2:
		c0, ok := d.Numbers(dict["C0"])
		if !ok {
			c0 = []float64{0}
		}
		c1, ok := d.Numbers(dict["C1"])
		if !ok {
			c1 = []float64{1}
		}
		return c0, c1, nil
	case 3:
		fns, err := d.Resolve(dict["Functions"])
		if err != nil {
			return nil, nil, err
		}
		arr, ok := fns.(types.Array)
		if !ok || len(arr) == 0 {
			return nil, nil, fmt.Errorf("stitching function without /Functions")
		}
		c0, _, err := d.functionEnds(arr[0], depth+1)
		if err != nil {
			return nil, nil, err
		}
		_, c1, err := d.functionEnds(arr[len(arr)-1], depth+1)
		return c0, c1, err
	case 0:
		return d.sampledEnds(obj, dict)
	}
	return nil, nil, fmt.Errorf("function type %d", typ)
}

// sampledEnds reads the first and last samples of a one-input sampled
// function.
func (d *Document) sampledEnds(obj types.Object, dict types.Dict) ([]float64, []float64, error) {
	size, ok := d.Numbers(dict["Size"])
	if !ok || len(size) == 0 || size[0] < 1 {
		return nil, nil, fmt.Errorf("sampled function without /Size")
	}
	bps, _ := d.Int(dict["BitsPerSample"])
	rng, ok := d.Numbers(dict["Range"])
	if !ok || len(rng) < 2 || bps <= 0 || bps > 32 {
		return nil, nil, fmt.Errorf("invalid sampled function")
	}
	decode, ok := d.Numbers(dict["Decode"])
	if !ok || len(decode) != len(rng) {
		decode = rng
	}
	s, err := d.Stream(obj)
	if err != nil {
		return nil, nil, err
	}

	outputs := len(rng) / 2
	full := float64(uint64(1)<<uint(bps) - 1)
	at := func(index int) []float64 {
		out := make([]float64, outputs)
		for j := range out {
			v := bitsAt(s.Data, (index*outputs+j)*bps, bps)
			out[j] = decode[2*j] + float64(v)/full*(decode[2*j+1]-decode[2*j])
		}
		return out
	}
	return at(0), at(int(size[0]) - 1), nil
}

func first(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// bitsAt reads n bits starting at bit offset off, big-endian. Bits past
// the end of data read as zero.
func bitsAt(data []byte, off, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		bit := off + i
		v <<= 1
		if bit/8 < len(data) && data[bit/8]&(0x80>>uint(bit%8)) != 0 {
			v |= 1
		}
	}
	return v
}

// pad extends v to n components, repeating its last value.
func pad(v []float64, n int) []float64 {
	if len(v) >= n {
		return v
	}
	out := make([]float64, n)
	copy(out, v)
	for i := len(v); i < n && len(v) > 0; i++ {
		out[i] = v[len(v)-1]
	}
	return out
}
