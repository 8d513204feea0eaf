package reader

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/figura/internal/filters"
)

// Stream is a stream object with its general-purpose filters applied.
type Stream struct {
	// ObjectNumber is 0 for direct streams.
	ObjectNumber int
	Dict         types.Dict
	Data         []byte

	// Pending holds the image codec filters (DCT, JPX, JBIG2) left for the
	// image decoder.
	Pending []filters.Filter
}

// Stream resolves obj to a stream and decodes it. Decoding stops with
// ErrStreamTooLarge past the document's stream size limit.
func (d *Document) Stream(obj types.Object) (*Stream, error) {
	enc, err := d.encoded(obj)
	if err != nil {
		return nil, err
	}

	data, pending, err := filters.Decode(enc.raw, enc.chain, d.maxStream)
	if err != nil {
		return nil, fmt.Errorf("stream %d: %w", enc.num, err)
	}

	return &Stream{ObjectNumber: enc.num, Dict: enc.dict, Data: data, Pending: pending}, nil
}

// encodedStream is a stream whose filters have not been applied yet.
type encodedStream struct {
	num   int
	dict  types.Dict
	raw   []byte
	chain []filters.Filter
}

func (d *Document) encoded(obj types.Object) (*encodedStream, error) {
	sd, num, err := d.streamDict(obj)
	if err != nil {
		return nil, err
	}

	chain, err := d.filterChain(sd.Dict)
	if err != nil {
		return nil, err
	}

	raw := sd.Raw
	if raw == nil {
		// Only the decoded form is available. pdfcpu stops at image codecs
		// too, so those are still pending.
		if sd.Content == nil {
			if err := sd.Decode(); err != nil {
				return nil, fmt.Errorf("failed to load stream %d: %w", num, err)
			}
		}
		raw = sd.Content
		chain = imageCodecs(chain)
	}

	return &encodedStream{num: num, dict: sd.Dict, raw: raw, chain: chain}, nil
}

func (d *Document) streamDict(obj types.Object) (*types.StreamDict, int, error) {
	num := 0
	switch v := obj.(type) {
	case types.IndirectRef:
		num = v.ObjectNumber.Value()
	case *types.IndirectRef:
		if v == nil {
			return nil, 0, fmt.Errorf("nil stream reference")
		}
		num = v.ObjectNumber.Value()
		obj = *v
	case *types.StreamDict:
		if v == nil {
			return nil, 0, fmt.Errorf("nil stream")
		}
		return v, 0, nil
	}

	sd, _, err := d.ctx.DereferenceStreamDict(obj)
	if err != nil {
		return nil, num, fmt.Errorf("object %d is not a stream: %w", num, err)
	}
	if sd == nil {
		return nil, num, fmt.Errorf("object %d is missing", num)
	}
	return sd, num, nil
}

// filterChain reads /Filter and /DecodeParms from a stream dictionary.
func (d *Document) filterChain(dict types.Dict) ([]filters.Filter, error) {
	obj, ok := dict.Find("Filter")
	if !ok {
		obj, ok = dict.Find("F")
	}
	if !ok || obj == nil {
		return nil, nil
	}
	obj, err := d.Resolve(obj)
	if err != nil {
		return nil, err
	}

	var names []string
	switch v := obj.(type) {
	case types.Name:
		names = []string{string(v)}
	case types.Array:
		for _, e := range v {
			e, err := d.Resolve(e)
			if err != nil {
				return nil, err
			}
			n, ok := e.(types.Name)
			if !ok {
				return nil, fmt.Errorf("invalid filter entry %T", e)
			}
			names = append(names, string(n))
		}
	default:
		return nil, fmt.Errorf("invalid /Filter type %T", obj)
	}

	parmsObj, ok := dict.Find("DecodeParms")
	if !ok {
		parmsObj, _ = dict.Find("DP")
	}
	parmsObj, err = d.Resolve(parmsObj)
	if err != nil {
		return nil, err
	}

	chain := make([]filters.Filter, len(names))
	for i, name := range names {
		chain[i] = filters.Filter{Name: filters.Canonical(name)}
		var p types.Object
		switch v := parmsObj.(type) {
		case types.Dict:
			if i == 0 {
				p = v
			}
		case types.Array:
			if i < len(v) {
				p = v[i]
			}
		}
		pd, err := d.ResolveDict(p)
		if err == nil && pd != nil {
			chain[i].Params = d.params(pd)
		}
	}
	return chain, nil
}

func imageCodecs(chain []filters.Filter) []filters.Filter {
	for i, f := range chain {
		if filters.IsImageCodec(f.Name) {
			return chain[i:]
		}
	}
	return nil
}

// FilterChain is filterChain for dictionaries that did not come from a
// stream object, such as inline image headers.
func (d *Document) FilterChain(dict types.Dict) ([]filters.Filter, error) {
	return d.filterChain(dict)
}

func (d *Document) params(dict types.Dict) filters.Params {
	out := make(filters.Params, len(dict))
	for k, v := range dict {
		v, err := d.Resolve(v)
		if err != nil {
			continue
		}
		switch x := v.(type) {
		case types.Integer:
			out[k] = int(x)
		case types.Float:
			out[k] = float64(x)
		case types.Boolean:
			out[k] = bool(x)
		case types.Name:
			out[k] = string(x)
		}
	}
	return out
}
