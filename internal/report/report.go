// Package report prints summary tables for a combined dataset.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

const defaultTopN = 25

// Options control report rendering.
type Options struct {
	// TopN caps the ranking table; defaults to 25.
	TopN int
}

// Write renders overview, views distribution, quality histogram, and
// top-ranked tables for the dataset.
func Write(w io.Writer, records []wiki.CombinedRecord, opts Options) {
	topN := opts.TopN
	if topN <= 0 {
		topN = defaultTopN
	}

	writeOverview(w, records)
	if len(records) == 0 {
		return
	}
	writeViewsDistribution(w, records)
	writeQualityHistogram(w, records)
	writeTopArticles(w, records, topN)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	return t
}

func writeOverview(w io.Writer, records []wiki.CombinedRecord) {
	var totalViews, totalWords int64
	for _, rec := range records {
		totalViews += rec.YearlyViews
		totalWords += rec.WordCount
	}
	mean := "0.0"
	median := int64(0)
	if len(records) > 0 {
		mean = fmt.Sprintf("%.1f", float64(totalViews)/float64(len(records)))
		median = quantile(sortedViews(records), 0.5)
	}

	t := newTable(w, "Overview")
	t.AppendRows([]table.Row{
		{"Articles", len(records)},
		{"Total views", totalViews},
		{"Mean views", mean},
		{"Median views", median},
		{"Total words", totalWords},
	})
	t.Render()
}

func writeViewsDistribution(w io.Writer, records []wiki.CombinedRecord) {
	views := sortedViews(records)

	t := newTable(w, "Views distribution")
	t.AppendHeader(table.Row{"Quantile", "Views"})
	t.AppendRows([]table.Row{
		{"Min", views[0]},
		{"P25", quantile(views, 0.25)},
		{"P50", quantile(views, 0.50)},
		{"P75", quantile(views, 0.75)},
		{"P90", quantile(views, 0.90)},
		{"Max", views[len(views)-1]},
	})
	t.Render()
}

// writeQualityHistogram prints per-grade counts ordered best to worst,
// with ungraded articles in a trailing bucket.
func writeQualityHistogram(w io.Writer, records []wiki.CombinedRecord) {
	counts := make(map[wiki.Grade]int)
	ungraded := 0
	for _, rec := range records {
		if rec.Quality == "" {
			ungraded++
			continue
		}
		counts[rec.Quality]++
	}

	t := newTable(w, "Quality")
	t.AppendHeader(table.Row{"Grade", "Articles", "Share"})
	total := len(records)
	for _, grade := range wiki.Grades() {
		n, ok := counts[grade]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{string(grade), n, percent(n, total)})
	}
	if ungraded > 0 {
		t.AppendRow(table.Row{"Ungraded", ungraded, percent(ungraded, total)})
	}
	t.Render()
}

func writeTopArticles(w io.Writer, records []wiki.CombinedRecord, topN int) {
	ranked := make([]wiki.CombinedRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	t := newTable(w, fmt.Sprintf("Top %d by views", len(ranked)))
	t.AppendHeader(table.Row{"Rank", "Views", "Article", "Quality", "Words"})
	for _, rec := range ranked {
		t.AppendRow(table.Row{rec.Rank, rec.YearlyViews, rec.Title, string(rec.Quality), rec.WordCount})
	}
	t.Render()
}

func sortedViews(records []wiki.CombinedRecord) []int64 {
	views := make([]int64, len(records))
	for i, rec := range records {
		views[i] = rec.YearlyViews
	}
	sort.Slice(views, func(i, j int) bool { return views[i] < views[j] })
	return views
}

// quantile returns the nearest-rank quantile of an ascending-sorted slice.
func quantile(sorted []int64, q float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}
