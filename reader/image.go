package reader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/figura/internal/filters"
	"github.com/tsawler/figura/model"
)

// MaxImagePixels bounds the size of a single decoded image.
const MaxImagePixels = 1 << 26

var (
	// ErrImageTooLarge is returned when an image exceeds MaxImagePixels.
	ErrImageTooLarge = errors.New("image too large")
	// ErrUnsupportedCodec is returned for JPX and JBIG2 images.
	ErrUnsupportedCodec = errors.New("unsupported image codec")
)

// ImageResource is an image XObject or inline image. The sample data
// stays encoded until the image is first drawn; the decoded pixels are
// then shared.
type ImageResource struct {
	id string

	Width            int
	Height           int
	BitsPerComponent int
	ImageMask        bool
	ColorSpace       *ColorSpace
	Decode           []float64

	raw   []byte
	chain []filters.Filter
	codec string
	limit int64
	smask *ImageResource

	once sync.Once
	img  image.Image
	err  error
}

// Ensure ImageResource implements model.Bitmap
var _ model.Bitmap = (*ImageResource)(nil)

// ID identifies the image within its document.
func (r *ImageResource) ID() string { return r.id }

// Size returns the declared pixel dimensions.
func (r *ImageResource) Size() (int, int) { return r.Width, r.Height }

// Image decodes the image, once.
func (r *ImageResource) Image() (image.Image, error) {
	r.once.Do(func() {
		r.img, r.err = r.decode()
		r.raw = nil
	})
	return r.img, r.err
}

// NewInlineImage builds an image from a BI ... ID ... EI sequence. Named
// color spaces are looked up in resources.
func (d *Document) NewInlineImage(dict types.Dict, data []byte, resources types.Dict, id string) (*ImageResource, error) {
	chain, err := d.FilterChain(dict)
	if err != nil {
		return nil, err
	}
	return d.buildImage(dict, data, chain, resources, id, true)
}

func (d *Document) newImage(obj types.Object, id string) (*ImageResource, error) {
	enc, err := d.encoded(obj)
	if err != nil {
		return nil, err
	}
	return d.buildImage(enc.dict, enc.raw, enc.chain, nil, id, false)
}

// buildImage reads the image dictionary. Nothing is decoded here.
func (d *Document) buildImage(dict types.Dict, raw []byte, chain []filters.Filter, resources types.Dict, id string, inline bool) (*ImageResource, error) {
	r := &ImageResource{id: id, raw: raw, chain: chain}

	var ok bool
	if r.Width, ok = d.Int(dict["Width"]); !ok || r.Width <= 0 {
		return nil, fmt.Errorf("invalid image width")
	}
	if r.Height, ok = d.Int(dict["Height"]); !ok || r.Height <= 0 {
		return nil, fmt.Errorf("invalid image height")
	}

	if m, err := d.Resolve(dict["ImageMask"]); err == nil {
		if b, ok := m.(types.Boolean); ok {
			r.ImageMask = bool(b)
		}
	}

	r.BitsPerComponent = 8
	if r.ImageMask {
		r.BitsPerComponent = 1
	}
	if bpc, ok := d.Int(dict["BitsPerComponent"]); ok {
		r.BitsPerComponent = bpc
	}

	for _, f := range chain {
		if filters.IsImageCodec(f.Name) {
			r.codec = filters.Canonical(f.Name)
			break
		}
	}

	if !r.ImageMask && r.codec != "JPXDecode" {
		csObj, ok := dict.Find("ColorSpace")
		if !ok && r.codec == "DCTDecode" {
			r.ColorSpace = deviceRGB
		} else {
			cs, err := d.colorSpace(csObj, resources, inline, 0)
			if err != nil {
				return nil, err
			}
			r.ColorSpace = cs
		}
	}

	if dec, ok := d.Numbers(dict["Decode"]); ok {
		r.Decode = dec
	}
	r.limit = r.sampleLimit(d.maxStream)

	if !inline {
		if sm, ok := dict.Find("SMask"); ok && sm != nil {
			if enc, err := d.encoded(sm); err == nil {
				mask, err := d.buildImage(enc.dict, enc.raw, enc.chain, nil, fmt.Sprintf("obj-%d", enc.num), false)
				if err == nil {
					r.smask = mask
				}
			}
		}
	}

	return r, nil
}

// sampleLimit is the most decoded data an image of the declared size can
// need: the packed samples, doubled to leave room for predictor bytes and
// encoded codec data, plus a fixed allowance for codec headers.
func (r *ImageResource) sampleLimit(ceiling int64) int64 {
	comps := 4
	if r.ImageMask {
		comps = 1
	} else if r.ColorSpace != nil {
		comps = r.ColorSpace.Components
	}
	bpc := r.BitsPerComponent
	if bpc < 8 {
		bpc = 8
	}
	rowBytes := (int64(r.Width)*int64(comps)*int64(bpc) + 7) / 8
	limit := 2*rowBytes*int64(r.Height) + imageHeaderAllowance
	if ceiling > 0 && limit > ceiling {
		limit = ceiling
	}
	return limit
}

// imageHeaderAllowance covers JPEG markers, embedded ICC profiles and
// similar overhead in small images.
const imageHeaderAllowance = 1 << 20

func (r *ImageResource) decode() (image.Image, error) {
	if int64(r.Width)*int64(r.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, r.Width, r.Height)
	}

	data, pending, err := filters.Decode(r.raw, r.chain, r.limit)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", r.id, err)
	}

	var img *image.NRGBA
	if len(pending) > 0 {
		img, err = r.decodeCodec(data, pending)
	} else {
		img, err = r.decodeSamples(data)
	}
	if err != nil {
		return nil, err
	}

	if r.smask != nil {
		if alpha, err := r.smask.Image(); err == nil {
			applyAlpha(img, alpha)
		}
	}
	return img, nil
}

func (r *ImageResource) decodeCodec(data []byte, pending []filters.Filter) (*image.NRGBA, error) {
	switch name := filters.Canonical(pending[0].Name); name {
	case "DCTDecode":
		src, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("DCT: %w", err)
		}
		dst := image.NewNRGBA(src.Bounds())
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		if _, isCMYK := src.(*image.CMYK); isCMYK && len(r.Decode) >= 2 && r.Decode[0] > r.Decode[1] {
			invert(dst)
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, name)
	}
}

func (r *ImageResource) decodeSamples(data []byte) (*image.NRGBA, error) {
	bpc := r.BitsPerComponent
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("unsupported bits per component %d", bpc)
	}

	comps := 1
	if !r.ImageMask {
		if r.ColorSpace == nil {
			return nil, fmt.Errorf("image without color space")
		}
		comps = r.ColorSpace.Components
	}

	rowBytes := (r.Width*comps*bpc + 7) / 8
	if len(data) < rowBytes*r.Height {
		// Short data is padded with zeros.
		padded := make([]byte, rowBytes*r.Height)
		copy(padded, data)
		data = padded
	}

	maxv := float64(int(1)<<bpc - 1)
	decode := r.Decode
	if r.ImageMask {
		if len(decode) < 2 {
			decode = []float64{0, 1}
		}
	} else if len(decode) < 2*comps {
		decode = r.ColorSpace.defaultDecode(bpc)
	}

	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	vals := make([]float64, comps)
	for y := 0; y < r.Height; y++ {
		row := data[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < r.Width; x++ {
			for c := 0; c < comps; c++ {
				s := float64(sample(row, x*comps+c, bpc))
				vals[c] = decode[2*c] + s*(decode[2*c+1]-decode[2*c])/maxv
			}

			var px color.NRGBA
			if r.ImageMask {
				// Sample value 0 marks painted pixels.
				if vals[0] < 0.5 {
					px = color.NRGBA{A: 0xff}
				}
			} else {
				px = r.ColorSpace.NRGBA(vals)
			}
			img.SetNRGBA(x, y, px)
		}
	}
	return img, nil
}

// sample extracts the i-th sample of a row packed at bpc bits.
func sample(row []byte, i, bpc int) int {
	switch bpc {
	case 8:
		return int(row[i])
	case 16:
		return int(row[2*i])<<8 | int(row[2*i+1])
	}
	bit := i * bpc
	b := row[bit/8]
	shift := 8 - bpc - bit%8
	return int(b>>uint(shift)) & (1<<bpc - 1)
}

// applyAlpha uses the gray level of mask as alpha, sampling nearest
// neighbors when the sizes differ.
func applyAlpha(img *image.NRGBA, mask image.Image) {
	b := img.Bounds()
	mb := mask.Bounds()
	if mb.Empty() {
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		my := mb.Min.Y + (y-b.Min.Y)*mb.Dy()/b.Dy()
		for x := b.Min.X; x < b.Max.X; x++ {
			mx := mb.Min.X + (x-b.Min.X)*mb.Dx()/b.Dx()
			g := color.GrayModel.Convert(mask.At(mx, my)).(color.Gray).Y
			i := img.PixOffset(x, y)
			img.Pix[i+3] = uint8(uint16(img.Pix[i+3]) * uint16(g) / 0xff)
		}
	}
}

func invert(img *image.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff - img.Pix[i]
		img.Pix[i+1] = 0xff - img.Pix[i+1]
		img.Pix[i+2] = 0xff - img.Pix[i+2]
	}
}
