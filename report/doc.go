// Package report turns extracted and classified figures into things people
// download: a ZIP of PNGs with a CSV summary, and HTML or Markdown pages
// with the type distribution and one card per figure.
//
// Entries keep their extraction index as ID, so file names stay stable
// when a report is filtered or re-sorted:
//
//	entries := report.Entries(res.Figures, results)
//	report.Sort(entries, report.ByConfidence)
//	err := report.WriteArchive(f, entries, "paper.pdf")
package report
