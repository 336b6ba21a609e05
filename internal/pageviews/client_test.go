package pageviews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wikiharvest/wikiharvest/internal/upstream"
)

func TestEncodeTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Sid Meier", "Sid_Meier"},
		{"AC/DC", "AC%2FDC"},
		{"C++", "C%2B%2B"},
		{"Pokémon", "Pok%C3%A9mon"},
		{"100% Orange Juice", "100%25_Orange_Juice"},
		{"Nier:_Automata", "Nier%3A_Automata"},
		{"simple-title.v2_~x", "simple-title.v2_~x"},
	}
	for _, tc := range cases {
		if got := EncodeTitle(tc.in); got != tc.want {
			t.Errorf("EncodeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func FuzzEncodeTitle(f *testing.F) {
	seeds := []string{"Sid Meier", "AC/DC", "C++", "Pokémon", "100% Orange Juice", ""}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, title string) {
		encoded := EncodeTitle(title)
		decoded, err := url.PathUnescape(encoded)
		if err != nil {
			t.Fatalf("EncodeTitle(%q) produced unparseable escaping %q: %v", title, encoded, err)
		}
		if want := strings.ReplaceAll(title, " ", "_"); decoded != want {
			t.Errorf("EncodeTitle(%q) round-trips to %q, want %q", title, decoded, want)
		}
		if strings.ContainsAny(encoded, " /+?#") {
			t.Errorf("EncodeTitle(%q) = %q contains reserved characters", title, encoded)
		}
	})
}

func testClient(t *testing.T, url string, attempts int) *Client {
	t.Helper()
	return NewClient(Config{
		Upstream: upstream.Config{
			BaseURL:        url,
			UserAgent:      "wikiharvest-test/0.0",
			Timeout:        5 * time.Second,
			MaxAttempts:    attempts,
			BackoffInitial: time.Millisecond,
			BackoffMax:     5 * time.Millisecond,
		},
	}, nil)
}

func TestYearlyViews_SumsBuckets(t *testing.T) {
	t.Parallel()

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"project":"en.wikipedia","article":"AC%2FDC","timestamp":"2024080100","views":1200},
			{"project":"en.wikipedia","article":"AC%2FDC","timestamp":"2024090100","views":800},
			{"project":"en.wikipedia","article":"AC%2FDC","timestamp":"2024100100","views":500}
		]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 1)
	total, err := c.YearlyViews(context.Background(), "AC/DC", "20240801", "20250701")
	require.NoError(t, err)
	require.EqualValues(t, 2500, total)
	require.Equal(t, "/en.wikipedia.org/all-access/user/AC%2FDC/monthly/20240801/20250701", gotPath)
}

func TestYearlyViews_NotFoundMeansZero(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"type":"about:blank","title":"Not found.","detail":"The date(s) you used are valid, but we either do not have data for those date(s), or the project you asked for is not loaded yet."}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 6)
	total, err := c.YearlyViews(context.Background(), "Obscure Topic", "20240801", "20250701")
	require.NoError(t, err)
	require.Zero(t, total)
	require.EqualValues(t, 1, hits.Load(), "404 must not be retried")
}

func TestYearlyViews_BadRequestIsRejection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"about:blank","title":"Invalid parameters","detail":"start timestamp is invalid, must be a valid date in YYYYMMDD format"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 6)
	_, err := c.YearlyViews(context.Background(), "Sid Meier", "2024-08-01", "20250701")
	require.ErrorIs(t, err, upstream.ErrRejected)
}

func TestYearlyViews_PersistentFailure(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	_, err := c.YearlyViews(context.Background(), "Sid Meier", "20240801", "20250701")
	require.ErrorIs(t, err, upstream.ErrExhausted)
	require.EqualValues(t, 3, hits.Load())
}
