package enrich

import (
	"sort"
	"strings"

	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

// Assemble joins pageview totals with metadata and ranks the result.
// Metadata is matched by page ID; articles without a metadata row keep
// zero values for the enriched columns. Records sort by yearly views
// descending, ties broken by case-folded title, and ranks run 1..N in
// that order.
func Assemble(totals []wiki.PageviewTotal, metas []wiki.ArticleMeta) []wiki.CombinedRecord {
	byID := make(map[int64]wiki.ArticleMeta, len(metas))
	for _, meta := range metas {
		byID[meta.PageID] = meta
	}

	records := make([]wiki.CombinedRecord, 0, len(totals))
	for _, total := range totals {
		rec := wiki.CombinedRecord{
			PageID:      total.PageID,
			Title:       total.Title,
			Category:    total.Category,
			YearlyViews: total.YearlyViews,
		}
		if meta, ok := byID[total.PageID]; ok {
			rec.ShortDesc = meta.ShortDesc
			rec.WordCount = meta.WordCount
			rec.Quality = meta.Quality
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].YearlyViews != records[j].YearlyViews {
			return records[i].YearlyViews > records[j].YearlyViews
		}
		return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
	})
	for i := range records {
		records[i].Rank = i + 1
	}
	return records
}
