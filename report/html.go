package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ImageMode controls how figures are referenced from HTML.
type ImageMode int

const (
	// LinkImages points at Entry.Filename, for reports written next to the
	// PNGs or inside an archive.
	LinkImages ImageMode = iota
	// EmbedImages inlines each figure as a PNG data URI.
	EmbedImages
	// NoImages leaves figures out.
	NoImages
)

// HTMLOptions configures HTML output.
type HTMLOptions struct {
	Title  string
	Images ImageMode
}

// HTML renders a standalone report page.
func HTML(entries []Entry, opts HTMLOptions) (string, error) {
	body, err := Fragment(entries, opts)
	if err != nil {
		return "", err
	}
	title := opts.Title
	if title == "" {
		title = "Figure summary"
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head><body>\n")
	b.WriteString(body)
	b.WriteString("\n</body></html>\n")
	return b.String(), nil
}

// Fragment renders the report body: a summary, a type distribution table
// and one card per figure. Classification text comes from a model and is
// sanitized before it is returned.
func Fragment(entries []Entry, opts HTMLOptions) (string, error) {
	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	setAttr(root, "class", "figura-report")

	title := opts.Title
	if title == "" {
		title = "Figure summary"
	}
	root.AppendChild(textElem(atom.H1, title))

	s := Summarize(entries)
	stats := elem(atom.Ul)
	stats.AppendChild(textElem(atom.Li, fmt.Sprintf("Total figures: %d", s.Total)))
	stats.AppendChild(textElem(atom.Li, fmt.Sprintf("Figure types: %d", s.Types)))
	stats.AppendChild(textElem(atom.Li, "Average confidence: "+Percent(s.AverageConfidence)))
	root.AppendChild(stats)

	if len(s.Counts) > 0 {
		root.AppendChild(textElem(atom.H2, "Type distribution"))
		tbl := elem(atom.Table)
		tbl.AppendChild(row(atom.Th, "Type", "Count"))
		for _, c := range s.Counts {
			tbl.AppendChild(row(atom.Td, Title(c.Type), strconv.Itoa(c.Count)))
		}
		root.AppendChild(tbl)
	}

	root.AppendChild(textElem(atom.H2, "Figures"))
	for _, e := range entries {
		card, err := figureCard(e, opts.Images)
		if err != nil {
			return "", err
		}
		root.AppendChild(card)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return sanitizer().Sanitize(buf.String()), nil
}

func figureCard(e Entry, mode ImageMode) (*html.Node, error) {
	fig := elem(atom.Figure)
	setAttr(fig, "id", fmt.Sprintf("figure-%d", e.ID))

	if mode != NoImages && e.Record.Image != nil {
		img := elem(atom.Img)
		src := e.Filename()
		if mode == EmbedImages {
			var buf bytes.Buffer
			if err := png.Encode(&buf, e.Record.Image); err != nil {
				return nil, fmt.Errorf("encode figure %d: %w", e.ID, err)
			}
			src = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
		}
		setAttr(img, "src", src)
		setAttr(img, "alt", fmt.Sprintf("Page %d - %s", e.Record.Page, Title(e.Classification.Classification)))
		fig.AppendChild(img)
	}

	caption := elem(atom.Figcaption)
	caption.AppendChild(textElem(atom.Strong, Title(e.Classification.Classification)))
	details := elem(atom.Ul)
	details.AppendChild(textElem(atom.Li, "Confidence: "+Percent(e.Classification.Confidence)))
	details.AppendChild(textElem(atom.Li, fmt.Sprintf("Page: %d", e.Record.Page)))
	details.AppendChild(textElem(atom.Li, "File: "+e.Filename()))
	if e.Classification.Description != "" {
		details.AppendChild(textElem(atom.Li, "Description: "+e.Classification.Description))
	}
	caption.AppendChild(details)
	fig.AppendChild(caption)
	return fig, nil
}

// Markdown renders the report as Markdown, linking each figure by file
// name.
func Markdown(entries []Entry, title string) (string, error) {
	body, err := Fragment(entries, HTMLOptions{Title: title, Images: LinkImages})
	if err != nil {
		return "", err
	}
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	md, err := conv.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("convert report: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}

func sanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataURIImages()
	p.AllowElements("figure", "figcaption")
	p.AllowAttrs("class").OnElements("div")
	p.AllowAttrs("id").OnElements("figure")
	p.RequireNoFollowOnLinks(false)
	return p
}

func elem(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func textElem(a atom.Atom, text string) *html.Node {
	n := elem(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func row(cell atom.Atom, values ...string) *html.Node {
	tr := elem(atom.Tr)
	for _, v := range values {
		tr.AppendChild(textElem(cell, v))
	}
	return tr
}

func setAttr(n *html.Node, key, val string) {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
