package report

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/figura/classify"
	"github.com/tsawler/figura/model"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func sample() []Entry {
	records := []model.FigureRecord{
		{Page: 2, Image: solid(4, 3, color.Black)},
		{Page: 1, Image: solid(5, 5, color.White)},
		{Page: 3, Image: solid(2, 2, color.Gray{Y: 128})},
	}
	results := []classify.Result{
		{Classification: "bar_chart", Confidence: 0.9, Description: "Revenue by year"},
		{Classification: "photograph", Confidence: 0.6},
		{Classification: "bar_chart", Confidence: 0.75, Description: `<script>alert(1)</script>Costs`},
	}
	return Entries(records, results)
}

func ids(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestEntries_FallbackForMissingResults(t *testing.T) {
	entries := Entries([]model.FigureRecord{{Page: 1}, {Page: 2}}, []classify.Result{{Classification: "map", Confidence: 1}})
	require.Len(t, entries, 2)
	assert.Equal(t, "map", entries[0].Classification.Classification)
	assert.Equal(t, classify.Fallback(), entries[1].Classification)
	assert.Equal(t, "figure_page_2_1.png", entries[1].Filename())
}

func TestSort(t *testing.T) {
	entries := sample()

	Sort(entries, ByPage)
	assert.Equal(t, []int{1, 0, 2}, ids(entries))

	Sort(entries, ByConfidence)
	assert.Equal(t, []int{0, 2, 1}, ids(entries))

	Sort(entries, ByType)
	assert.Equal(t, []int{0, 2, 1}, ids(entries), "ties keep extraction order")
}

func TestParseSortBy(t *testing.T) {
	for in, want := range map[string]SortBy{"": ByPage, "Page": ByPage, "confidence": ByConfidence, "type": ByType} {
		got, err := ParseSortBy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSortBy("size")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	entries := sample()
	assert.Equal(t, []int{0, 2}, ids(Filter(entries, "bar_chart")))
	assert.Len(t, Filter(entries, "All"), 3)
	assert.Empty(t, Filter(entries, "map"))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Types)
	assert.InDelta(t, 0.75, s.AverageConfidence, 1e-9)
	assert.Equal(t, []TypeCount{{"bar_chart", 2}, {"photograph", 1}}, s.Counts)

	empty := Summarize(nil)
	assert.Zero(t, empty.AverageConfidence)
}

func TestTitleAndPercent(t *testing.T) {
	assert.Equal(t, "Bar Chart", Title("bar_chart"))
	assert.Equal(t, "Venn Diagram", Title("venn_diagram"))
	assert.Equal(t, "87.5%", Percent(0.875))
	assert.Equal(t, "30.0%", Percent(classify.FallbackConfidence))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Figure ID", "Filename", "Type", "Confidence", "Page"}, rows[0])
	assert.Equal(t, []string{"0", "figure_page_2_0.png", "bar_chart", "90.0%", "2"}, rows[1])
}

func TestHTML_SanitizesModelText(t *testing.T) {
	page, err := HTML(sample(), HTMLOptions{Title: "paper.pdf"})
	require.NoError(t, err)

	assert.Contains(t, page, "<title>paper.pdf</title>")
	assert.Contains(t, page, `src="figure_page_2_0.png"`)
	assert.Contains(t, page, "Bar Chart")
	assert.Contains(t, page, "Revenue by year")
	assert.NotContains(t, page, "<script>")
}

func TestHTML_EmbedImages(t *testing.T) {
	page, err := HTML(sample()[:1], HTMLOptions{Images: EmbedImages})
	require.NoError(t, err)
	assert.Contains(t, page, "data:image/png;base64,")
}

func TestMarkdown(t *testing.T) {
	md, err := Markdown(sample(), "Figures")
	require.NoError(t, err)

	assert.Contains(t, md, "# Figures")
	assert.Contains(t, md, "figure_page_1_1.png")
	assert.Contains(t, md, "| Bar Chart")
}

func TestWriteArchive(t *testing.T) {
	entries := sample()
	entries = append(entries, Entry{ID: 3, Record: model.FigureRecord{Page: 4}, Classification: classify.Fallback()})

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, entries, "paper.pdf"))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make(map[string]*zip.File)
	for _, f := range zr.File {
		names[f.Name] = f
	}
	for _, want := range []string{"figure_page_2_0.png", "figure_page_1_1.png", "figure_page_3_2.png", SummaryCSV, SummaryHTML, SummaryMarkdown} {
		assert.Contains(t, names, want)
	}
	assert.NotContains(t, names, "figure_page_4_3.png", "entries without an image have no PNG")

	rc, err := names["figure_page_2_0.png"].Open()
	require.NoError(t, err)
	defer rc.Close()
	img, err := png.Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())

	rc2, err := names[SummaryCSV].Open()
	require.NoError(t, err)
	defer rc2.Close()
	data, err := io.ReadAll(rc2)
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(data), "\n"))
}
