package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tsawler/figura/classify"
	"github.com/tsawler/figura/model"
)

// Entry pairs an extracted figure with its classification.
type Entry struct {
	// ID is the figure's position in extraction order. It is stable under
	// Sort and Filter and names the figure's file.
	ID             int
	Record         model.FigureRecord
	Classification classify.Result
}

// Filename is the name the figure's PNG gets in archives and reports.
func (e Entry) Filename() string {
	return fmt.Sprintf("figure_page_%d_%d.png", e.Record.Page, e.ID)
}

// Entries pairs records with results by position. Records without a
// result get the fallback classification.
func Entries(records []model.FigureRecord, results []classify.Result) []Entry {
	out := make([]Entry, len(records))
	for i, r := range records {
		c := classify.Fallback()
		if i < len(results) {
			c = results[i]
		}
		out[i] = Entry{ID: i, Record: r, Classification: c}
	}
	return out
}

// SortBy selects the order of a report.
type SortBy int

const (
	// ByPage orders by page, then position on the page.
	ByPage SortBy = iota
	// ByConfidence puts the most confident classifications first.
	ByConfidence
	// ByType orders alphabetically by label.
	ByType
)

// ParseSortBy accepts "page", "confidence" and "type".
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "page":
		return ByPage, nil
	case "confidence":
		return ByConfidence, nil
	case "type":
		return ByType, nil
	default:
		return ByPage, fmt.Errorf("unknown sort order %q", s)
	}
}

// Sort orders entries in place. Ties keep extraction order.
func Sort(entries []Entry, by SortBy) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch by {
		case ByConfidence:
			if a.Classification.Confidence != b.Classification.Confidence {
				return a.Classification.Confidence > b.Classification.Confidence
			}
		case ByType:
			if a.Classification.Classification != b.Classification.Classification {
				return a.Classification.Classification < b.Classification.Classification
			}
		default:
			if a.Record.Page != b.Record.Page {
				return a.Record.Page < b.Record.Page
			}
		}
		return a.ID < b.ID
	})
}

// Filter returns the entries classified as label. An empty label or "all"
// keeps everything.
func Filter(entries []Entry, label string) []Entry {
	if label == "" || strings.EqualFold(label, "all") {
		return append([]Entry(nil), entries...)
	}
	var out []Entry
	for _, e := range entries {
		if e.Classification.Classification == label {
			out = append(out, e)
		}
	}
	return out
}

// TypeCount is the number of figures with one label.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Summary aggregates a set of classified figures.
type Summary struct {
	Total             int         `json:"total"`
	Types             int         `json:"types"`
	AverageConfidence float64     `json:"average_confidence"`
	Counts            []TypeCount `json:"counts"`
}

// Summarize computes totals. Counts are ordered by descending count, then
// label.
func Summarize(entries []Entry) Summary {
	s := Summary{Total: len(entries)}
	counts := make(map[string]int)
	var sum float64
	for _, e := range entries {
		counts[e.Classification.Classification]++
		sum += e.Classification.Confidence
	}
	if len(entries) > 0 {
		s.AverageConfidence = sum / float64(len(entries))
	}
	s.Types = len(counts)
	for t, n := range counts {
		s.Counts = append(s.Counts, TypeCount{Type: t, Count: n})
	}
	sort.Slice(s.Counts, func(i, j int) bool {
		if s.Counts[i].Count != s.Counts[j].Count {
			return s.Counts[i].Count > s.Counts[j].Count
		}
		return s.Counts[i].Type < s.Counts[j].Type
	})
	return s
}

var titler = cases.Title(language.English)

// Title turns a label such as "bar_chart" into "Bar Chart".
func Title(label string) string {
	return titler.String(strings.ReplaceAll(label, "_", " "))
}

// Percent formats a confidence in [0, 1] with one decimal, e.g. "87.5%".
func Percent(c float64) string {
	if math.IsNaN(c) {
		c = 0
	}
	return fmt.Sprintf("%.1f%%", c*100)
}
