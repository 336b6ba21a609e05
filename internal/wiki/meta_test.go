package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractQuality(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		titles []string
		want   Grade
	}{
		{
			name: "single grade",
			titles: []string{
				"Category:Start-Class video game articles",
				"Category:WikiProject Video games articles",
			},
			want: GradeStart,
		},
		{
			name: "best of several",
			titles: []string{
				"Category:B-Class biography articles",
				"Category:GA-Class video game articles",
				"Category:C-Class articles",
			},
			want: GradeGA,
		},
		{
			name:   "featured beats featured list",
			titles: []string{"Category:FL-Class articles", "Category:FA-Class articles"},
			want:   GradeFA,
		},
		{
			name:   "anchored to the category start",
			titles: []string{"Category:Articles needing B-Class review"},
			want:   "",
		},
		{
			name:   "unassessed",
			titles: []string{"Category:Talk pages with comments"},
			want:   "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractQuality(tc.titles); got != tc.want {
				t.Errorf("ExtractQuality(%v) = %q, want %q", tc.titles, got, tc.want)
			}
		})
	}
}

func TestExtractWikiProjects(t *testing.T) {
	t.Parallel()

	titles := []string{
		"Category:WikiProject Video games articles",
		"Category:WikiProject Biography articles",
		"Category:WikiProject Video games articles",
		"Category:WikiProject Apple Inc. articles",
		"Category:WikiProject Video games articles by quality",
		"Category:GA-Class video game articles",
	}
	got := ExtractWikiProjects(titles)
	require.Equal(t, []string{"Apple Inc.", "Biography", "Video games"}, got)
}

const metaPropsBody = `{"batchcomplete":"","query":{"pages":{"93192":{
	"pageid":93192,"ns":0,"title":"Dwarf Fortress",
	"revisions":[{"revid":1290000000,"parentid":1289999999,"timestamp":"2025-06-14T09:30:00Z"}],
	"length":88342,
	"fullurl":"https://en.wikipedia.org/wiki/Dwarf_Fortress",
	"extract":"one two three four five six seven",
	"pageprops":{"wikibase_item":"Q526652","wikibase-shortdesc":"2006 video game"}}}}}`

const metaTalkBody = `{"batchcomplete":"","query":{"pages":{"93193":{
	"pageid":93193,"ns":1,"title":"Talk:Dwarf Fortress",
	"categories":[
		{"ns":14,"title":"Category:GA-Class video game articles"},
		{"ns":14,"title":"Category:B-Class video game articles"},
		{"ns":14,"title":"Category:WikiProject Video games articles"}]}}}}`

func metaServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("prop") == "categories" {
			w.Write([]byte(metaTalkBody))
			return
		}
		w.Write([]byte(metaPropsBody))
	}))
}

func TestFetchMeta(t *testing.T) {
	t.Parallel()

	srv := metaServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	meta, err := c.FetchMeta(context.Background(), "Dwarf Fortress")
	require.NoError(t, err)

	require.EqualValues(t, 93192, meta.PageID)
	require.Equal(t, "Dwarf Fortress", meta.Title)
	require.Equal(t, "2006 video game", meta.ShortDesc)
	require.EqualValues(t, 88342, meta.SizeBytes)
	require.EqualValues(t, 7, meta.WordCount)
	require.Equal(t, GradeGA, meta.Quality)
	require.Equal(t, "2025-06-14", meta.LastEdit)
	require.Equal(t, []string{"Video games"}, meta.WikiProjects)
	require.EqualValues(t, 1290000000, meta.RevID)
	require.Equal(t, "https://en.wikipedia.org/w/index.php?title=Dwarf_Fortress&oldid=1290000000", meta.RevURL)
	require.Equal(t, "Q526652", meta.WikidataID)
	require.Equal(t, "https://www.wikidata.org/wiki/Q526652", meta.WikidataURL)
}

func TestFetchMeta_MissingArticle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"batchcomplete":"","query":{"pages":{"-1":{"ns":0,"title":"No Such Page","missing":""}}}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchMeta(context.Background(), "No Such Page")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFetchMeta_MissingTalkPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("prop") == "categories" {
			w.Write([]byte(`{"batchcomplete":"","query":{"pages":{"-1":{"ns":1,"title":"Talk:Dwarf Fortress","missing":""}}}}`))
			return
		}
		w.Write([]byte(metaPropsBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	meta, err := c.FetchMeta(context.Background(), "Dwarf Fortress")
	require.NoError(t, err, "a missing talk page is not an error")
	require.Equal(t, Grade(""), meta.Quality)
	require.Empty(t, meta.WikiProjects)
}
