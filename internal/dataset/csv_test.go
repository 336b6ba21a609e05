package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikiharvest/wikiharvest/internal/enrich"
	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

// TestArticlesRoundTrip writes and reads back the crawl shape unchanged.
func TestArticlesRoundTrip(t *testing.T) {
	t.Parallel()

	refs := []wiki.ArticleRef{
		{PageID: 22193, Title: "QEMU", Category: "Emulators"},
		{PageID: 93192, Title: "Dwarf Fortress", Category: "Roguelikes"},
		{PageID: 7, Title: "Rogue (video game)", Category: "Roguelikes"},
	}
	path := filepath.Join(t.TempDir(), "articles_games.csv")

	require.NoError(t, WriteArticles(path, refs))
	got, err := ReadArticles(path)
	require.NoError(t, err)
	require.Equal(t, refs, got)
}

// TestCombinedRoundTrip covers quoting, empty grades, and numeric columns.
func TestCombinedRoundTrip(t *testing.T) {
	t.Parallel()

	records := []wiki.CombinedRecord{
		{
			Rank:        1,
			PageID:      93192,
			Title:       "Dwarf Fortress",
			Category:    "Roguelikes",
			YearlyViews: 431002,
			ShortDesc:   "2006 video game, famously complex",
			WordCount:   3100,
			Quality:     wiki.GradeGA,
		},
		{
			Rank:        2,
			PageID:      7,
			Title:       "Obscure tool",
			Category:    "Roguelikes",
			YearlyViews: 50,
			ShortDesc:   "",
			WordCount:   0,
			Quality:     "",
		},
	}
	path := filepath.Join(t.TempDir(), "games_combined.csv")

	require.NoError(t, WriteCombined(path, records))
	got, err := ReadCombined(path)
	require.NoError(t, err)
	require.Equal(t, records, got)
}

// TestWriteMetaJoinsWikiProjects checks the multi-valued column encoding.
func TestWriteMetaJoinsWikiProjects(t *testing.T) {
	t.Parallel()

	metas := []wiki.ArticleMeta{
		{
			PageID:       93192,
			Title:        "Dwarf Fortress",
			ShortDesc:    "2006 video game",
			SizeBytes:    88342,
			WordCount:    5400,
			Quality:      wiki.GradeGA,
			LastEdit:     "2025-06-14",
			WikiProjects: []string{"Apple Inc.", "Video games"},
			RevID:        1290000000,
			RevURL:       "https://en.wikipedia.org/w/index.php?title=Dwarf_Fortress&oldid=1290000000",
			WikidataID:   "Q526652",
			WikidataURL:  "https://www.wikidata.org/wiki/Q526652",
		},
	}
	path := filepath.Join(t.TempDir(), "games_meta.csv")

	require.NoError(t, WriteMeta(path, metas))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "Apple Inc.; Video games")
	require.Contains(t, string(raw), "pageid,title,shortdesc,size_bytes,word_count,quality,last_edit,wikiprojects,rev_id,rev_url,wikidata_id,wikidata_url")
}

// TestWriteViewsShape pins the pageview totals header and row layout.
func TestWriteViewsShape(t *testing.T) {
	t.Parallel()

	totals := []wiki.PageviewTotal{
		{ArticleRef: wiki.ArticleRef{PageID: 22193, Title: "QEMU", Category: "Emulators"}, YearlyViews: 431002},
	}
	path := filepath.Join(t.TempDir(), "games_views.csv")

	require.NoError(t, WriteViews(path, totals))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "pageid,title,category,yearly_views\n22193,QEMU,Emulators,431002\n", string(raw))
}

// TestWriteSkippedShape pins the skip-accounting layout.
func TestWriteSkippedShape(t *testing.T) {
	t.Parallel()

	skips := []enrich.SkippedArticle{
		{PageID: 7, Title: "Ghost page", Phase: "views", Reason: "upstream rejected"},
	}
	path := filepath.Join(t.TempDir(), "games_skipped.csv")

	require.NoError(t, WriteSkipped(path, skips))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "pageid,title,phase,reason\n7,Ghost page,views,upstream rejected\n", string(raw))
}

// TestReadArticlesRejectsBadHeader fails fast on a foreign CSV.
func TestReadArticlesRejectsBadHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "articles.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,cat\n1,QEMU,Emulators\n"), 0o644))

	_, err := ReadArticles(path)
	require.Error(t, err)
	require.ErrorContains(t, err, "unexpected header")
}

// TestReadArticlesRejectsBadPageID surfaces the offending row.
func TestReadArticlesRejectsBadPageID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "articles.csv")
	require.NoError(t, os.WriteFile(path, []byte("pageid,title,category\nx,QEMU,Emulators\n"), 0o644))

	_, err := ReadArticles(path)
	require.Error(t, err)
	require.ErrorContains(t, err, "bad pageid")
	require.ErrorContains(t, err, "row 2")
}

// TestReadCombinedMissingFile wraps the open error with the path.
func TestReadCombinedMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadCombined(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	require.ErrorContains(t, err, "nope.csv")
}
