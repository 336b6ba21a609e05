package wiki

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ErrNotFound indicates a title that resolves to no page.
var ErrNotFound = errors.New("page not found")

const wikidataBase = "https://www.wikidata.org/wiki/"

// qualityPattern matches assessment categories like "Category:FA-Class
// articles" or "Category:B-Class Foo articles". Grades appear in canonical
// case, so the capture needs no normalization.
var qualityPattern = regexp.MustCompile(`^Category:(FA|FL|A|GA|B|C|Start|Stub|List)-Class\b`)

// wikiProjectPattern captures the project name from talk-page categories
// like "Category:WikiProject Video games articles".
var wikiProjectPattern = regexp.MustCompile(`^Category:WikiProject (.+?) articles$`)

// ExtractQuality returns the best assessment grade found among talk-page
// category titles, or the empty grade when the article is unassessed.
// Articles normally carry one grade since assessments were unified, but
// stragglers with several project ratings still exist.
func ExtractQuality(titles []string) Grade {
	var found []Grade
	for _, title := range titles {
		if m := qualityPattern.FindStringSubmatch(title); m != nil {
			found = append(found, Grade(m[1]))
		}
	}
	return BestGrade(found)
}

// ExtractWikiProjects returns the sorted, deduplicated WikiProject names
// found among talk-page category titles.
func ExtractWikiProjects(titles []string) []string {
	seen := make(map[string]struct{})
	for _, title := range titles {
		if m := wikiProjectPattern.FindStringSubmatch(title); m != nil {
			seen[m[1]] = struct{}{}
		}
	}
	projects := make([]string, 0, len(seen))
	for p := range seen {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	return projects
}

// FetchMeta collects an article's metadata with two action API queries: the
// article's own properties, then its talk page's categories for the
// assessment grade and WikiProjects. A missing talk page is not an error; a
// missing article is ErrNotFound.
func (c *Client) FetchMeta(ctx context.Context, title string) (ArticleMeta, error) {
	page, err := c.articleProps(ctx, title)
	if err != nil {
		return ArticleMeta{}, err
	}

	meta := ArticleMeta{
		PageID:    page.PageID,
		Title:     page.Title,
		SizeBytes: page.Length,
		WordCount: int64(len(strings.Fields(page.Extract))),
	}
	if page.PageProps != nil {
		meta.ShortDesc = page.PageProps.WikibaseShortDesc
		meta.WikidataID = page.PageProps.WikibaseItem
	}
	if meta.WikidataID != "" {
		meta.WikidataURL = wikidataBase + meta.WikidataID
	}
	if len(page.Revisions) > 0 {
		rev := page.Revisions[0]
		meta.RevID = rev.RevID
		meta.LastEdit = revisionDate(rev.Timestamp)
		meta.RevURL = fmt.Sprintf("%s/w/index.php?title=%s&oldid=%d",
			c.siteURL, strings.ReplaceAll(title, " ", "_"), rev.RevID)
	}

	talkCats, err := c.talkCategories(ctx, title)
	if err != nil {
		return ArticleMeta{}, err
	}
	meta.Quality = ExtractQuality(talkCats)
	meta.WikiProjects = ExtractWikiProjects(talkCats)

	return meta, nil
}

// articleProps fetches the first query: revision ids, byte length, plaintext
// extract, canonical URL, and page properties.
func (c *Client) articleProps(ctx context.Context, title string) (pageData, error) {
	payload, err := c.query(ctx, map[string]string{
		"prop":        "revisions|info|extracts|pageprops",
		"titles":      title,
		"rvprop":      "ids|timestamp",
		"explaintext": "1",
		"inprop":      "url",
	})
	if err != nil {
		return pageData{}, fmt.Errorf("fetch article props for %q: %w", title, err)
	}
	page, err := firstPage(payload.Query)
	if err != nil {
		return pageData{}, fmt.Errorf("fetch article props for %q: %w", title, err)
	}
	if page.Missing != nil || page.PageID == 0 {
		return pageData{}, fmt.Errorf("article %q: %w", title, ErrNotFound)
	}
	return page, nil
}

// talkCategories fetches the second query: the talk page's category titles.
// Articles without a talk page yield an empty list.
func (c *Client) talkCategories(ctx context.Context, title string) ([]string, error) {
	payload, err := c.query(ctx, map[string]string{
		"prop":    "categories",
		"titles":  "Talk:" + title,
		"cllimit": "max",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch talk categories for %q: %w", title, err)
	}
	page, err := firstPage(payload.Query)
	if err != nil {
		return nil, fmt.Errorf("fetch talk categories for %q: %w", title, err)
	}
	titles := make([]string, 0, len(page.Categories))
	for _, cat := range page.Categories {
		titles = append(titles, cat.Title)
	}
	return titles, nil
}

// revisionDate trims an action API revision timestamp to its date. Values
// that fail to parse pass through untouched rather than dropping the edit
// record.
func revisionDate(ts string) string {
	t, err := time.Parse("2006-01-02T15:04:05Z", ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02")
}
