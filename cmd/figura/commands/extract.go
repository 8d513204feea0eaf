package commands

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsawler/figura"
	"github.com/tsawler/figura/classify"
	"github.com/tsawler/figura/cmd/figura/ui"
	"github.com/tsawler/figura/format"
	"github.com/tsawler/figura/model"
	"github.com/tsawler/figura/report"
)

var (
	extractOut        string
	extractFormat     string
	extractPages      string
	extractDPI        float64
	extractWorkers    int
	extractRenderer   string
	extractCrossPage  bool
	extractNoClassify bool
	extractSort       string
	extractType       string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf|url>",
	Short: "Extract figures from a PDF",
	Long: `Extract every figure from a PDF file or URL, classify it, and write the
images with CSV, HTML and Markdown summaries.

Output formats:
  dir       PNG files and summaries in the output directory (default)
  zip       a single ZIP archive
  html      a standalone HTML page with embedded images
  markdown  a Markdown summary linking the PNG files`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractOut, "out", "o", "", "output directory or file (default: <name>_figures)")
	f.StringVarP(&extractFormat, "format", "f", "dir", "output format: dir, zip, html or markdown")
	f.StringVarP(&extractPages, "pages", "p", "", "pages to extract, e.g. 1-3,7")
	f.Float64Var(&extractDPI, "dpi", 0, "output resolution (default from config)")
	f.IntVarP(&extractWorkers, "workers", "w", 0, "pages processed in parallel (default from config)")
	f.StringVar(&extractRenderer, "renderer", "", "renderer backend: auto, native or fitz")
	f.BoolVar(&extractCrossPage, "cross-page", false, "drop duplicate figures across pages")
	f.BoolVarP(&assumeYes, "yes", "y", false, "download URLs without asking")
	f.BoolVar(&extractNoClassify, "no-classify", false, "skip classification")
	f.StringVar(&extractSort, "sort", "page", "order: page, confidence or type")
	f.StringVar(&extractType, "type", "", "keep only figures with this label")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	src := args[0]

	sortBy, err := report.ParseSortBy(extractSort)
	if err != nil {
		return err
	}
	if extractType != "" && !classify.IsKnown(extractType) {
		return fmt.Errorf("unknown label %q (see figura labels)", extractType)
	}
	pages, err := figura.ParsePages(extractPages)
	if err != nil {
		return err
	}
	if extractRenderer != "" {
		cfg.Render.Backend = extractRenderer
	}
	if extractWorkers > 0 {
		cfg.Engine.Workers = extractWorkers
	}
	if extractCrossPage {
		cfg.Engine.CrossPageDedup = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := src
	if format.IsURL(src) {
		dir, err := os.MkdirTemp("", "figura-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		path, err = download(ctx, src, dir)
		if err != nil {
			return err
		}
	}

	ext := figura.Open(path).WithConfig(cfg).WithLogger(logger).Pages(pages...)
	if extractDPI > 0 {
		ext = ext.DPI(extractDPI)
	}

	ui.Section("Figure extraction")
	spin := ui.NewSpinner("Finding figures...")
	spin.Start()
	res, err := ext.Figures(ctx)
	spin.Stop()
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		ui.Warning("%s", w)
	}
	ui.Success("Found %s on %s", plural(len(res.Figures), "figure"), plural(res.Pages, "page"))
	if res.Duplicates > 0 {
		ui.Info("Dropped %s", plural(res.Duplicates, "duplicate"))
	}

	results, err := classifyFigures(ctx, res.Figures)
	if err != nil {
		return err
	}

	entries := report.Filter(report.Entries(res.Figures, results), extractType)
	report.Sort(entries, sortBy)
	printSummary(entries)

	title := filepath.Base(src)
	out := extractOut
	switch extractFormat {
	case "dir":
		if out == "" {
			out = baseName(src) + "_figures"
		}
		err = writeDir(out, entries, title)
	case "zip":
		if out == "" {
			out = baseName(src) + "_figures.zip"
		}
		err = writeFile(out, func(f *os.File) error { return report.WriteArchive(f, entries, title) })
	case "html":
		if out == "" {
			out = baseName(src) + "_figures.html"
		}
		err = writeFile(out, func(f *os.File) error {
			page, err := report.HTML(entries, report.HTMLOptions{Title: title, Images: report.EmbedImages})
			if err != nil {
				return err
			}
			_, err = f.WriteString(page)
			return err
		})
	case "markdown":
		if out == "" {
			out = baseName(src) + "_figures"
		}
		err = writeDir(out, entries, title)
		out = filepath.Join(out, report.SummaryMarkdown)
	default:
		return fmt.Errorf("unknown output format %q", extractFormat)
	}
	if err != nil {
		return err
	}
	ui.Success("Wrote %s", out)
	return nil
}

func classifyFigures(ctx context.Context, records []model.FigureRecord) ([]classify.Result, error) {
	if extractNoClassify || len(records) == 0 {
		return nil, nil
	}
	c, err := newClassifier()
	if err != nil {
		return nil, err
	}

	images := make([]image.Image, len(records))
	for i, r := range records {
		images[i] = r.Image
	}
	bar := ui.NewProgressBar(len(images), "Classifying")
	results := classify.ClassifyAll(ctx, c, images, func(done, total int) { bar.Set(done) })
	bar.Finish()
	return results, nil
}

func printSummary(entries []report.Entry) {
	s := report.Summarize(entries)
	ui.Section("Summary")
	ui.Row("Total figures", s.Total)
	ui.Row("Figure types", s.Types)
	ui.Row("Average confidence", report.Percent(s.AverageConfidence))
	for _, c := range s.Counts {
		ui.Row(report.Title(c.Type), c.Count)
	}
}

func writeFile(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
