// Package dataset reads and writes the CSV artifacts passed between
// harvest stages: article lists, pageview totals, article metadata, and
// the ranked combined dataset.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wikiharvest/wikiharvest/internal/enrich"
	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

// Column orders are fixed; downstream tooling keys on them.
var (
	articleHeader  = []string{"pageid", "title", "category"}
	viewsHeader    = []string{"pageid", "title", "category", "yearly_views"}
	metaHeader     = []string{"pageid", "title", "shortdesc", "size_bytes", "word_count", "quality", "last_edit", "wikiprojects", "rev_id", "rev_url", "wikidata_id", "wikidata_url"}
	combinedHeader = []string{"rank", "pageid", "title", "category", "yearly_views", "shortdesc", "word_count", "quality"}
	skippedHeader  = []string{"pageid", "title", "phase", "reason"}
)

const wikiProjectSeparator = "; "

// WriteArticles writes the crawl output shape.
func WriteArticles(path string, refs []wiki.ArticleRef) error {
	rows := make([][]string, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, []string{
			strconv.FormatInt(ref.PageID, 10),
			ref.Title,
			ref.Category,
		})
	}
	return writeRows(path, articleHeader, rows)
}

// ReadArticles loads an articles CSV back into refs.
func ReadArticles(path string) ([]wiki.ArticleRef, error) {
	rows, err := readRows(path, articleHeader)
	if err != nil {
		return nil, err
	}
	refs := make([]wiki.ArticleRef, 0, len(rows))
	for i, row := range rows {
		pageID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad pageid %q: %w", path, i+2, row[0], err)
		}
		refs = append(refs, wiki.ArticleRef{PageID: pageID, Title: row[1], Category: row[2]})
	}
	return refs, nil
}

// WriteViews writes the pageview totals shape.
func WriteViews(path string, totals []wiki.PageviewTotal) error {
	rows := make([][]string, 0, len(totals))
	for _, total := range totals {
		rows = append(rows, []string{
			strconv.FormatInt(total.PageID, 10),
			total.Title,
			total.Category,
			strconv.FormatInt(total.YearlyViews, 10),
		})
	}
	return writeRows(path, viewsHeader, rows)
}

// WriteMeta writes the article metadata shape.
func WriteMeta(path string, metas []wiki.ArticleMeta) error {
	rows := make([][]string, 0, len(metas))
	for _, meta := range metas {
		rows = append(rows, []string{
			strconv.FormatInt(meta.PageID, 10),
			meta.Title,
			meta.ShortDesc,
			strconv.FormatInt(meta.SizeBytes, 10),
			strconv.FormatInt(meta.WordCount, 10),
			string(meta.Quality),
			meta.LastEdit,
			strings.Join(meta.WikiProjects, wikiProjectSeparator),
			strconv.FormatInt(meta.RevID, 10),
			meta.RevURL,
			meta.WikidataID,
			meta.WikidataURL,
		})
	}
	return writeRows(path, metaHeader, rows)
}

// WriteCombined writes the ranked combined dataset.
func WriteCombined(path string, records []wiki.CombinedRecord) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.Itoa(rec.Rank),
			strconv.FormatInt(rec.PageID, 10),
			rec.Title,
			rec.Category,
			strconv.FormatInt(rec.YearlyViews, 10),
			rec.ShortDesc,
			strconv.FormatInt(rec.WordCount, 10),
			string(rec.Quality),
		})
	}
	return writeRows(path, combinedHeader, rows)
}

// ReadCombined loads a combined CSV back into records.
func ReadCombined(path string) ([]wiki.CombinedRecord, error) {
	rows, err := readRows(path, combinedHeader)
	if err != nil {
		return nil, err
	}
	records := make([]wiki.CombinedRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		rank, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad rank %q: %w", path, line, row[0], err)
		}
		pageID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad pageid %q: %w", path, line, row[1], err)
		}
		views, err := strconv.ParseInt(row[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad yearly_views %q: %w", path, line, row[4], err)
		}
		words, err := strconv.ParseInt(row[6], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad word_count %q: %w", path, line, row[6], err)
		}
		records = append(records, wiki.CombinedRecord{
			Rank:        rank,
			PageID:      pageID,
			Title:       row[2],
			Category:    row[3],
			YearlyViews: views,
			ShortDesc:   row[5],
			WordCount:   words,
			Quality:     wiki.Grade(row[7]),
		})
	}
	return records, nil
}

// WriteSkipped writes the skip-accounting shape.
func WriteSkipped(path string, skips []enrich.SkippedArticle) error {
	rows := make([][]string, 0, len(skips))
	for _, skip := range skips {
		rows = append(rows, []string{
			strconv.FormatInt(skip.PageID, 10),
			skip.Title,
			skip.Phase,
			skip.Reason,
		})
	}
	return writeRows(path, skippedHeader, rows)
}

func writeRows(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write %s header: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write %s row: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func readRows(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	for i, name := range header {
		if records[0][i] != name {
			return nil, fmt.Errorf("%s: unexpected header %q, want %q", path, strings.Join(records[0], ","), strings.Join(header, ","))
		}
	}
	return records[1:], nil
}
