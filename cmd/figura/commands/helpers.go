package commands

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/figura/classify"
	"github.com/tsawler/figura/cmd/figura/ui"
	"github.com/tsawler/figura/report"
)

// newClassifier builds the configured classifier. A missing Gemini key
// turns classification off instead of failing the run.
func newClassifier() (classify.Classifier, error) {
	c, err := cfg.Classifier.NewClassifier(logger)
	if errors.Is(err, classify.ErrMissingAPIKey) {
		ui.Warning("GEMINI_API_KEY is not set; figures will not be classified")
		return classify.Static{Result: classify.Fallback()}, nil
	}
	return c, err
}

// writeDir writes each figure as PNG plus the summaries into dir.
func writeDir(dir string, entries []report.Entry, title string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Record.Image == nil {
			continue
		}
		if err := writePNG(filepath.Join(dir, e.Filename()), e); err != nil {
			return err
		}
	}

	f, err := os.Create(filepath.Join(dir, report.SummaryCSV))
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	page, err := report.HTML(entries, report.HTMLOptions{Title: title, Images: report.LinkImages})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, report.SummaryHTML), []byte(page), 0o644); err != nil {
		return err
	}

	md, err := report.Markdown(entries, title)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, report.SummaryMarkdown), []byte(md), 0o644)
}

func writePNG(path string, e report.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, e.Record.Image); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// baseName strips the directory and extension from a path or URL.
func baseName(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	name := filepath.Base(src)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == "/" {
		return "document"
	}
	return name
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
