package pages

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/figura/model"
)

// maxTreeDepth bounds page tree recursion; deeper trees are treated as
// cyclic.
const maxTreeDepth = 64

// ObjectResolver resolves indirect references. Direct objects are returned
// unchanged.
type ObjectResolver interface {
	Resolve(obj types.Object) (types.Object, error)
}

// inheritable lists the page attributes a page takes from its ancestors
// when it does not set them itself.
var inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// PageTree is the flattened page tree of a document.
type PageTree struct {
	root     types.Dict
	resolver ObjectResolver
	pages    []*Page
}

// NewPageTree creates a page tree rooted at the catalog's /Pages dictionary.
func NewPageTree(root types.Dict, resolver ObjectResolver) *PageTree {
	return &PageTree{root: root, resolver: resolver}
}

// Count returns the number of leaf pages found by walking the tree. The
// /Count entry is not trusted.
func (t *PageTree) Count() (int, error) {
	if err := t.load(); err != nil {
		return 0, err
	}
	return len(t.pages), nil
}

// GetPage returns the page at the given 0-based index.
func (t *PageTree) GetPage(index int) (*Page, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(t.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(t.pages))
	}
	return t.pages[index], nil
}

// Pages returns all pages in document order.
func (t *PageTree) Pages() ([]*Page, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	return t.pages, nil
}

func (t *PageTree) load() error {
	if t.pages != nil {
		return nil
	}
	t.pages = make([]*Page, 0)
	if err := t.traverse(t.root, types.Dict{}, 0); err != nil {
		t.pages = nil
		return fmt.Errorf("failed to traverse page tree: %w", err)
	}
	return nil
}

// traverse walks one node. inherited holds the attributes collected from
// the node's ancestors.
func (t *PageTree) traverse(node, inherited types.Dict, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("page tree deeper than %d levels", maxTreeDepth)
	}

	attrs := types.Dict{}
	for k, v := range inherited {
		attrs[k] = v
	}
	for _, key := range inheritable {
		if v, ok := node.Find(key); ok && v != nil {
			attrs[key] = v
		}
	}

	kidsObj, hasKids := node.Find("Kids")
	typeName := node.NameEntry("Type")
	isPage := (typeName != nil && *typeName == "Page") || (typeName == nil && !hasKids)
	if isPage {
		t.pages = append(t.pages, &Page{
			Index:    len(t.pages),
			dict:     node,
			attrs:    attrs,
			resolver: t.resolver,
		})
		return nil
	}

	if !hasKids || kidsObj == nil {
		return nil
	}

	resolved, err := t.resolver.Resolve(kidsObj)
	if err != nil {
		return fmt.Errorf("failed to resolve /Kids: %w", err)
	}
	kids, ok := resolved.(types.Array)
	if !ok {
		return fmt.Errorf("invalid /Kids type: %T", resolved)
	}

	for i, kidObj := range kids {
		kid, err := t.resolver.Resolve(kidObj)
		if err != nil {
			return fmt.Errorf("failed to resolve kid %d: %w", i, err)
		}
		kidDict, ok := kid.(types.Dict)
		if !ok {
			return fmt.Errorf("invalid kid type: %T", kid)
		}
		if err := t.traverse(kidDict, attrs, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// Page is a leaf of the page tree with its inherited attributes resolved.
type Page struct {
	// Index is the 0-based position of the page in the document.
	Index int

	dict     types.Dict
	attrs    types.Dict
	resolver ObjectResolver
}

// NewPage creates a page from its dictionary. Inherited attributes are taken
// from attrs.
func NewPage(index int, dict, attrs types.Dict, resolver ObjectResolver) *Page {
	if attrs == nil {
		attrs = types.Dict{}
	}
	return &Page{Index: index, dict: dict, attrs: attrs, resolver: resolver}
}

// Dict returns the raw page dictionary.
func (p *Page) Dict() types.Dict {
	return p.dict
}

// MediaBox returns the page's media box. A missing or malformed box falls
// back to US Letter.
func (p *Page) MediaBox() model.Box {
	if box, err := p.box("MediaBox"); err == nil {
		return box
	}
	return model.Box{X0: 0, Y0: 0, X1: 612, Y1: 792}
}

// CropBox returns the visible region of the page, clipped to the media box.
func (p *Page) CropBox() model.Box {
	media := p.MediaBox()
	crop, err := p.box("CropBox")
	if err != nil {
		return media
	}
	if clipped := crop.Intersect(media); clipped.IsValid() {
		return clipped
	}
	return media
}

func (p *Page) box(name string) (model.Box, error) {
	obj, ok := p.attrs[name]
	if !ok {
		return model.Box{}, fmt.Errorf("%s not found", name)
	}

	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return model.Box{}, fmt.Errorf("failed to resolve %s: %w", name, err)
	}

	arr, ok := resolved.(types.Array)
	if !ok || len(arr) != 4 {
		return model.Box{}, fmt.Errorf("invalid %s: %v", name, resolved)
	}

	var v [4]float64
	for i, elem := range arr {
		elem, err = p.resolver.Resolve(elem)
		if err != nil {
			return model.Box{}, err
		}
		switch n := elem.(type) {
		case types.Integer:
			v[i] = float64(n)
		case types.Float:
			v[i] = float64(n)
		default:
			return model.Box{}, fmt.Errorf("invalid %s element type: %T", name, elem)
		}
	}

	box := model.NewBox(v[0], v[1], v[2], v[3])
	if !box.IsValid() {
		return model.Box{}, fmt.Errorf("degenerate %s %v", name, box)
	}
	return box, nil
}

// Resources returns the page resource dictionary, or an empty dictionary
// when the page has none.
func (p *Page) Resources() (types.Dict, error) {
	obj, ok := p.attrs["Resources"]
	if !ok || obj == nil {
		return types.Dict{}, nil
	}

	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Resources: %w", err)
	}

	dict, ok := resolved.(types.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid Resources type: %T", resolved)
	}
	return dict, nil
}

// Contents returns the page's content stream objects in order. Array
// elements are left unresolved so the caller can dereference each stream
// by reference.
func (p *Page) Contents() ([]types.Object, error) {
	obj, ok := p.dict.Find("Contents")
	if !ok || obj == nil {
		return nil, nil
	}

	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Contents: %w", err)
	}

	switch v := resolved.(type) {
	case types.StreamDict, *types.StreamDict:
		return []types.Object{obj}, nil
	case types.Array:
		return append([]types.Object(nil), v...), nil
	default:
		return nil, fmt.Errorf("invalid Contents type: %T", resolved)
	}
}

// Rotate returns the page rotation normalized to 0, 90, 180 or 270.
func (p *Page) Rotate() int {
	obj, ok := p.attrs["Rotate"]
	if !ok {
		return 0
	}
	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return 0
	}
	r, ok := resolved.(types.Integer)
	if !ok {
		return 0
	}
	deg := ((int(r) % 360) + 360) % 360
	return deg - deg%90
}
