package reader

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/figura/model"
)

// XObjectKind is the subtype of an external object.
type XObjectKind int

const (
	XObjectUnknown XObjectKind = iota
	XObjectImage
	XObjectForm
)

// XObject is a resolved /XObject resource.
type XObject struct {
	Kind  XObjectKind
	Image *ImageResource
	Form  *Form
	// Subtype is the raw /Subtype for kinds this package does not handle.
	Subtype string
}

// Form is a form XObject: a reusable content stream with its own
// resources.
type Form struct {
	ObjectNumber int
	// Matrix maps form space into the user space of the invoking stream.
	Matrix    model.Matrix
	BBox      model.Box
	HasBBox   bool
	Resources types.Dict
	Content   []byte
}

// XObject resolves the named entry of the resource dictionary's /XObject
// category. Image XObjects are cached per object so that every placement
// shares one decode. Image samples are not decoded until drawn.
func (d *Document) XObject(resources types.Dict, name string) (*XObject, error) {
	entry, err := d.Resource(resources, "XObject", name)
	if err != nil {
		return nil, err
	}

	sd, num, err := d.streamDict(entry)
	if err != nil {
		return nil, fmt.Errorf("XObject /%s: %w", name, err)
	}

	subtype := ""
	if s := sd.Dict.NameEntry("Subtype"); s != nil {
		subtype = *s
	}

	switch subtype {
	case "Image":
		img, err := d.cachedImage(entry, num)
		if err != nil {
			return nil, fmt.Errorf("image /%s: %w", name, err)
		}
		return &XObject{Kind: XObjectImage, Image: img, Subtype: subtype}, nil
	case "Form":
		form, err := d.form(entry, num)
		if err != nil {
			return nil, fmt.Errorf("form /%s: %w", name, err)
		}
		return &XObject{Kind: XObjectForm, Form: form, Subtype: subtype}, nil
	}
	return &XObject{Kind: XObjectUnknown, Subtype: subtype}, nil
}

func (d *Document) cachedImage(obj types.Object, num int) (*ImageResource, error) {
	if num > 0 {
		d.mu.Lock()
		img, ok := d.images[num]
		d.mu.Unlock()
		if ok {
			return img, nil
		}
	}

	img, err := d.newImage(obj, fmt.Sprintf("obj-%d", num))
	if err != nil {
		return nil, err
	}

	if num > 0 {
		d.mu.Lock()
		if cached, ok := d.images[num]; ok {
			img = cached
		} else {
			d.images[num] = img
		}
		d.mu.Unlock()
	}
	return img, nil
}

func (d *Document) form(obj types.Object, num int) (*Form, error) {
	s, err := d.Stream(obj)
	if err != nil {
		return nil, err
	}
	if len(s.Pending) > 0 {
		return nil, fmt.Errorf("image filter %s on form content", s.Pending[0].Name)
	}

	f := &Form{
		ObjectNumber: num,
		Matrix:       model.Identity(),
		Content:      s.Data,
	}

	if m, ok := s.Dict.Find("Matrix"); ok {
		if v, ok := d.Numbers(m); ok && len(v) == 6 {
			f.Matrix = model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
		}
	}
	if b, ok := s.Dict.Find("BBox"); ok {
		if v, ok := d.Numbers(b); ok && len(v) == 4 {
			f.BBox = model.NewBox(v[0], v[1], v[2], v[3])
			f.HasBBox = f.BBox.IsValid()
		}
	}
	if r, ok := s.Dict.Find("Resources"); ok {
		res, err := d.ResolveDict(r)
		if err == nil {
			f.Resources = res
		}
	}
	return f, nil
}
