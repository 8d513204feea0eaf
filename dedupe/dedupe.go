package dedupe

import (
	"fmt"
	"image"

	"github.com/rivo/duplo"
	"golang.org/x/image/draw"

	"github.com/tsawler/figura/model"
)

// hashInput is the longest side an image is shrunk to before hashing.
// duplo downsamples much further, so larger inputs only cost time.
const hashInput = 256

// Fingerprint returns a fixed-length hex key summarizing what img looks
// like. Visually identical images produce the same key.
func Fingerprint(img image.Image) string {
	if img == nil || img.Bounds().Empty() {
		return ""
	}
	hash, _ := duplo.CreateHash(shrink(img))
	return fmt.Sprintf("%016x%016x", hash.DHash[0], hash.DHash[1])
}

func shrink(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= hashInput && h <= hashInput {
		return img
	}
	if w >= h {
		h = max(1, h*hashInput/w)
		w = hashInput
	} else {
		w = max(1, w*hashInput/h)
		h = hashInput
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Duplicate pairs a dropped record with the record that replaced it.
type Duplicate struct {
	Dropped model.FigureRecord
	Kept    model.FigureRecord
}

// Suppressor removes duplicate figure records.
type Suppressor struct {
	crossPage bool
}

// New creates a Suppressor. With crossPage set, equal figures on different
// pages are also collapsed.
func New(crossPage bool) *Suppressor {
	return &Suppressor{crossPage: crossPage}
}

// Suppress returns records without duplicates, preserving order, and the
// duplicates it removed. records must be ordered by page. Records without
// a fingerprint are always kept.
func (s *Suppressor) Suppress(records []model.FigureRecord) ([]model.FigureRecord, []Duplicate) {
	type key struct {
		page        int
		fingerprint string
	}

	winner := make(map[key]int)
	for i, r := range records {
		if r.Fingerprint == "" {
			continue
		}
		k := key{page: r.Page, fingerprint: r.Fingerprint}
		if s.crossPage {
			k.page = 0
		}
		j, ok := winner[k]
		if !ok {
			winner[k] = i
			continue
		}
		// Within a page the larger box wins; earlier pages always win.
		if records[j].Page == r.Page && r.Box.Area() > records[j].Box.Area() {
			winner[k] = i
		}
	}

	var kept []model.FigureRecord
	var dropped []Duplicate
	for i, r := range records {
		if r.Fingerprint == "" {
			kept = append(kept, r)
			continue
		}
		k := key{page: r.Page, fingerprint: r.Fingerprint}
		if s.crossPage {
			k.page = 0
		}
		if j := winner[k]; j != i {
			dropped = append(dropped, Duplicate{Dropped: r, Kept: records[j]})
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
