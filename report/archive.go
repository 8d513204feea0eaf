package report

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"image/png"
	"io"
	"strconv"
)

// Archive member names.
const (
	SummaryCSV      = "figure_summary.csv"
	SummaryHTML     = "summary.html"
	SummaryMarkdown = "summary.md"
)

// WriteCSV writes one row per entry: Figure ID, Filename, Type,
// Confidence and Page.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Figure ID", "Filename", "Type", "Confidence", "Page"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			strconv.Itoa(e.ID),
			e.Filename(),
			e.Classification.Classification,
			Percent(e.Classification.Confidence),
			strconv.Itoa(e.Record.Page),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteArchive writes a ZIP holding every figure as PNG plus the CSV,
// HTML and Markdown summaries. Entries without an image are listed in the
// summaries but have no PNG.
func WriteArchive(w io.Writer, entries []Entry, title string) error {
	zw := zip.NewWriter(w)

	for _, e := range entries {
		if e.Record.Image == nil {
			continue
		}
		f, err := zw.Create(e.Filename())
		if err != nil {
			return fmt.Errorf("archive %s: %w", e.Filename(), err)
		}
		if err := png.Encode(f, e.Record.Image); err != nil {
			return fmt.Errorf("encode %s: %w", e.Filename(), err)
		}
	}

	f, err := zw.Create(SummaryCSV)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, entries); err != nil {
		return fmt.Errorf("write %s: %w", SummaryCSV, err)
	}

	page, err := HTML(entries, HTMLOptions{Title: title, Images: LinkImages})
	if err != nil {
		return err
	}
	if err := writeMember(zw, SummaryHTML, page); err != nil {
		return err
	}

	md, err := Markdown(entries, title)
	if err != nil {
		return err
	}
	if err := writeMember(zw, SummaryMarkdown, md); err != nil {
		return err
	}

	return zw.Close()
}

func writeMember(zw *zip.Writer, name, content string) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	if _, err := io.WriteString(f, content); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
