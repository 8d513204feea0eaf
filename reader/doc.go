// Package reader opens PDF documents and exposes the objects figure
// extraction needs: pages, decoded content streams, form XObjects and
// images.
//
// The object layer is pdfcpu, read in relaxed mode. Stream filters are
// applied by the internal filters package so that image codecs (DCT, JPX,
// JBIG2) stay encoded until an image is actually decoded.
//
// # Opening PDF Files
//
//	doc, err := reader.Open("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
// Or use [OpenBytes] / [NewDocument] with data already in memory.
//
// # Page Access
//
// Pages are addressed by 0-based index:
//
//   - PageCount() - number of leaf pages in the page tree
//   - Page(i) - the page with inherited attributes applied
//   - PageContent(p) - the page's content streams, decoded and joined
//
// # Images
//
// Image XObjects are cached by object number, so every placement of the
// same image shares one [ImageResource]. ImageResource implements
// model.Bitmap and decodes its pixels on first use; it is safe for
// concurrent use.
package reader
