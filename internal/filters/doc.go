// Package filters decodes PDF stream filters.
//
// Decode runs a whole filter pipeline and stops at the first image codec
// (DCTDecode, JPXDecode, JBIG2Decode), returning the remaining filters so
// the caller can hand the encoded image to an image decoder. The last
// argument caps the size of every stage's output, so a small compressed
// stream cannot expand without bound:
//
//	data, rest, err := filters.Decode(raw, []filters.Filter{
//	    {Name: "FlateDecode", Params: filters.Params{"Predictor": 12, "Columns": 100}},
//	}, 64<<20)
//
// The individual filters are also exported: FlateDecode (with TIFF and PNG
// predictors), ASCIIHexDecode, ASCII85Decode, RunLengthDecode and
// CCITTFaxDecode. LZWDecode is delegated to pdfcpu.
//
// Abbreviated names used by inline images (Fl, AHx, ...) are accepted
// everywhere a filter name is.
package filters
