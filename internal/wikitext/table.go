// Package wikitext renders combined datasets as MediaWiki sortable tables
// ready for on-wiki publication.
package wikitext

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

// DefaultCaption is the table caption used when none is supplied. The
// placeholder is meant to be replaced by hand before publication.
const DefaultCaption = "[[:Category:REPLACE_ME]]"

// DefaultLimit caps rendered rows for inputs without an explicit limit.
const DefaultLimit = 150

const descriptionRunes = 85

const (
	preDecadeLimit = 20
	decadeLimit    = 150
)

// decadeOrder fixes the chronological order of grouped subsections.
var decadeOrder = []string{"Pre-1980", "1980s", "1990s", "2000s", "2010s", "2020s", "Unparseable"}

// Input is one combined dataset rendered as a wikitext section.
type Input struct {
	// Section is the heading title, usually the input file stem.
	Section string
	// Limit caps rendered rows; zero renders every row. Ignored in
	// decade-grouped mode.
	Limit int
	// Records render in order; they arrive already ranked.
	Records []wiki.CombinedRecord
}

// Options control rendering across all sections.
type Options struct {
	// WikiProject names the assessment category used in quality cells,
	// e.g. "video game" yields Category:B-Class video game articles.
	WikiProject string
	// Caption overrides DefaultCaption when non-empty.
	Caption string
	// GroupDecades buckets rows by the leading year of their provenance
	// category instead of honoring per-input limits.
	GroupDecades bool
}

// Render produces the wikitext document for the given inputs.
func Render(inputs []Input, opts Options) string {
	caption := opts.Caption
	if caption == "" {
		caption = DefaultCaption
	}

	var b strings.Builder
	for _, in := range inputs {
		if opts.GroupDecades {
			renderGrouped(&b, in, caption, opts.WikiProject)
		} else {
			renderSection(&b, in, caption, opts.WikiProject)
		}
	}
	return b.String()
}

// ParseSpec splits an input argument of the form "path" or "path:limit".
// A spec without a limit receives defaultLimit.
func ParseSpec(spec string, defaultLimit int) (string, int, error) {
	idx := strings.LastIndex(spec, ":")
	if idx < 0 {
		return spec, defaultLimit, nil
	}
	limit, err := strconv.Atoi(spec[idx+1:])
	if err != nil || limit < 1 {
		return "", 0, fmt.Errorf("invalid limit in input spec %q", spec)
	}
	return spec[:idx], limit, nil
}

func renderSection(b *strings.Builder, in Input, caption, project string) {
	fmt.Fprintf(b, "== %s ==\n", in.Section)
	writeTableHeader(b, caption)

	count := 0
	for _, rec := range in.Records {
		if strings.TrimSpace(rec.Title) == "" {
			continue
		}
		writeTableRow(b, rec, project)
		count++
		if in.Limit > 0 && count >= in.Limit {
			break
		}
	}
	b.WriteString("|}\n\n")
}

// renderGrouped writes one subsection per decade bucket. Rows re-sort by
// views inside each bucket because bucketing breaks the global rank order.
func renderGrouped(b *strings.Builder, in Input, caption, project string) {
	fmt.Fprintf(b, "== %s ==\n", in.Section)

	buckets := make(map[string][]wiki.CombinedRecord)
	for _, rec := range in.Records {
		name := bucketFor(categoryYear(rec.Category))
		buckets[name] = append(buckets[name], rec)
	}

	for _, name := range decadeOrder {
		rows := buckets[name]
		if len(rows) == 0 {
			continue
		}

		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].YearlyViews != rows[j].YearlyViews {
				return rows[i].YearlyViews > rows[j].YearlyViews
			}
			return strings.ToLower(rows[i].Title) < strings.ToLower(rows[j].Title)
		})
		if limit := bucketLimit(name); limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}

		fmt.Fprintf(b, "=== %s ===\n", name)
		writeTableHeader(b, caption)
		for _, rec := range rows {
			if strings.TrimSpace(rec.Title) == "" {
				continue
			}
			writeTableRow(b, rec, project)
		}
		b.WriteString("|}\n\n")
	}
}

func writeTableHeader(b *strings.Builder, caption string) {
	b.WriteString("{{Table alignment}}\n")
	b.WriteString("{| class=\"wikitable sortable col1right col2right col5right\"\n")
	fmt.Fprintf(b, "|+ %s\n", caption)
	b.WriteString("|-\n")
	b.WriteString("! Rank !! Views !! Article !! Quality !! Words !! Description\n")
}

func writeTableRow(b *strings.Builder, rec wiki.CombinedRecord, project string) {
	b.WriteString("|-\n")
	fmt.Fprintf(b, "| %d\n", rec.Rank)
	fmt.Fprintf(b, "| %d\n", rec.YearlyViews)
	fmt.Fprintf(b, "| [[%s]]\n", rec.Title)
	fmt.Fprintf(b, "| %s\n", qualityCell(rec.Quality, project))
	fmt.Fprintf(b, "| %d\n", rec.WordCount)
	fmt.Fprintf(b, "| %s\n", truncateDescription(rec.ShortDesc))
}

// qualityCell renders the assessment template for a graded article, or an
// empty cell for ungraded ones.
func qualityCell(grade wiki.Grade, project string) string {
	g := strings.TrimSpace(string(grade))
	if g == "" {
		return ""
	}
	return fmt.Sprintf("{{%s-Class|category=Category:%s-Class %s articles}}", g, g, project)
}

func truncateDescription(desc string) string {
	runes := []rune(strings.TrimSpace(desc))
	if len(runes) <= descriptionRunes {
		return string(runes)
	}
	return string(runes[:descriptionRunes]) + "..."
}

// categoryYear extracts the leading 4-digit year of a provenance category
// like "1993 video games". Returns 0 when absent or implausible.
func categoryYear(category string) int {
	category = strings.TrimSpace(category)
	if len(category) < 4 {
		return 0
	}
	year, err := strconv.Atoi(category[:4])
	if err != nil || year < 1000 || year > 2100 {
		return 0
	}
	return year
}

func bucketFor(year int) string {
	switch {
	case year == 0:
		return "Unparseable"
	case year < 1980:
		return "Pre-1980"
	case year < 1990:
		return "1980s"
	case year < 2000:
		return "1990s"
	case year < 2010:
		return "2000s"
	case year < 2020:
		return "2010s"
	default:
		return "2020s"
	}
}

func bucketLimit(name string) int {
	switch name {
	case "Pre-1980":
		return preDecadeLimit
	case "Unparseable":
		return 0
	default:
		return decadeLimit
	}
}
