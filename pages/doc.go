// Package pages walks the PDF page tree.
//
// PageTree flattens the /Pages hierarchy into document order and resolves
// the inheritable attributes (Resources, MediaBox, CropBox, Rotate) from
// every ancestor, not just the direct parent:
//
//	tree := pages.NewPageTree(pagesDict, resolver)
//	page, err := tree.GetPage(0)
//	box := page.CropBox()
//
// Objects are pdfcpu values; the ObjectResolver supplied by the caller
// dereferences indirect references.
package pages
