package wikitext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

func TestRenderSection(t *testing.T) {
	t.Parallel()

	records := []wiki.CombinedRecord{
		{
			Rank:        1,
			PageID:      22193,
			Title:       "QEMU",
			Category:    "Linux emulation software",
			YearlyViews: 2417651,
			ShortDesc:   "Free and open-source emulator",
			WordCount:   3214,
			Quality:     wiki.GradeB,
		},
		{
			Rank:        2,
			PageID:      21578,
			Title:       "NetHack",
			Category:    "Roguelike video games",
			YearlyViews: 901200,
			ShortDesc:   "1987 video game",
			WordCount:   871,
		},
	}

	got := Render([]Input{{Section: "roguelikes", Records: records}}, Options{WikiProject: "video game"})

	want := strings.Join([]string{
		"== roguelikes ==",
		"{{Table alignment}}",
		`{| class="wikitable sortable col1right col2right col5right"`,
		"|+ [[:Category:REPLACE_ME]]",
		"|-",
		"! Rank !! Views !! Article !! Quality !! Words !! Description",
		"|-",
		"| 1",
		"| 2417651",
		"| [[QEMU]]",
		"| {{B-Class|category=Category:B-Class video game articles}}",
		"| 3214",
		"| Free and open-source emulator",
		"|-",
		"| 2",
		"| 901200",
		"| [[NetHack]]",
		"| ",
		"| 871",
		"| 1987 video game",
		"|}",
		"",
		"",
	}, "\n")
	require.Equal(t, want, got)
}

func TestRenderAppliesLimit(t *testing.T) {
	t.Parallel()

	records := []wiki.CombinedRecord{
		{Rank: 1, Title: "QEMU", YearlyViews: 3},
		{Rank: 2, Title: "NetHack", YearlyViews: 2},
		{Rank: 3, Title: "Rogue (video game)", YearlyViews: 1},
	}

	got := Render([]Input{{Section: "s", Limit: 2, Records: records}}, Options{WikiProject: "video game"})

	require.Contains(t, got, "[[QEMU]]")
	require.Contains(t, got, "[[NetHack]]")
	require.NotContains(t, got, "Rogue (video game)")
}

func TestRenderSkipsEmptyTitles(t *testing.T) {
	t.Parallel()

	records := []wiki.CombinedRecord{
		{Rank: 1, Title: "  ", YearlyViews: 9},
		{Rank: 2, Title: "NetHack", YearlyViews: 2},
	}

	got := Render([]Input{{Section: "s", Records: records}}, Options{WikiProject: "video game"})

	require.Contains(t, got, "[[NetHack]]")
	require.Equal(t, 1, strings.Count(got, "| [["))
}

func TestRenderCaptionOverride(t *testing.T) {
	t.Parallel()

	got := Render(
		[]Input{{Section: "s", Records: []wiki.CombinedRecord{{Rank: 1, Title: "QEMU"}}}},
		Options{WikiProject: "video game", Caption: "[[:Category:Roguelike video games]]"},
	)

	require.Contains(t, got, "|+ [[:Category:Roguelike video games]]")
	require.NotContains(t, got, "REPLACE_ME")
}

func TestRenderGroupDecades(t *testing.T) {
	t.Parallel()

	records := []wiki.CombinedRecord{
		{Rank: 1, Title: "Tetris", Category: "1984 video games", YearlyViews: 900},
		{Rank: 2, Title: "Rogue (video game)", Category: "1980 video games", YearlyViews: 800},
		{Rank: 3, Title: "Spacewar!", Category: "1962 video games", YearlyViews: 700},
		{Rank: 4, Title: "Hades (video game)", Category: "2020 video games", YearlyViews: 600},
		{Rank: 5, Title: "Brogue", Category: "Roguelike video games", YearlyViews: 500},
	}

	got := Render(
		[]Input{{Section: "games", Limit: 1, Records: records}},
		Options{WikiProject: "video game", GroupDecades: true},
	)

	require.Contains(t, got, "== games ==")
	require.Contains(t, got, "=== Pre-1980 ===")
	require.Contains(t, got, "=== 1980s ===")
	require.Contains(t, got, "=== 2020s ===")
	require.Contains(t, got, "=== Unparseable ===")
	require.NotContains(t, got, "=== 1990s ===")

	// Chronological subsection order, unparseable last; the per-input
	// limit does not apply in grouped mode.
	pre := strings.Index(got, "=== Pre-1980 ===")
	eighties := strings.Index(got, "=== 1980s ===")
	twenties := strings.Index(got, "=== 2020s ===")
	unparseable := strings.Index(got, "=== Unparseable ===")
	require.True(t, pre < eighties && eighties < twenties && twenties < unparseable)
	require.Contains(t, got, "[[Brogue]]")
}

func TestRenderGroupDecadesSortsInsideBucket(t *testing.T) {
	t.Parallel()

	records := []wiki.CombinedRecord{
		{Rank: 9, Title: "Moria", Category: "1983 video games", YearlyViews: 10},
		{Rank: 1, Title: "Tetris", Category: "1984 video games", YearlyViews: 900},
		{Rank: 5, Title: "angband", Category: "1985 video games", YearlyViews: 10},
	}

	got := Render(
		[]Input{{Section: "games", Records: records}},
		Options{WikiProject: "video game", GroupDecades: true},
	)

	tetris := strings.Index(got, "[[Tetris]]")
	angband := strings.Index(got, "[[angband]]")
	moria := strings.Index(got, "[[Moria]]")
	require.True(t, tetris < angband && angband < moria)
}

func TestTruncateDescription(t *testing.T) {
	t.Parallel()

	short := strings.Repeat("a", 85)
	if got := truncateDescription(short); got != short {
		t.Fatalf("expected untouched description, got %d runes", len([]rune(got)))
	}

	long := strings.Repeat("ä", 90)
	got := truncateDescription(long)
	if got != strings.Repeat("ä", 85)+"..." {
		t.Fatalf("unexpected truncation: %d runes", len([]rune(got)))
	}
}

func TestParseSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec      string
		wantPath  string
		wantLimit int
		wantErr   bool
	}{
		{"roguelikes_combined.csv", "roguelikes_combined.csv", 150, false},
		{"roguelikes_combined.csv:50", "roguelikes_combined.csv", 50, false},
		{"data/city_builders_combined.csv:25", "data/city_builders_combined.csv", 25, false},
		{"bad.csv:abc", "", 0, true},
		{"bad.csv:0", "", 0, true},
		{"bad.csv:-5", "", 0, true},
	}
	for _, tt := range tests {
		path, limit, err := ParseSpec(tt.spec, 150)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSpec(%q) expected error", tt.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSpec(%q) error = %v", tt.spec, err)
			continue
		}
		if path != tt.wantPath || limit != tt.wantLimit {
			t.Errorf("ParseSpec(%q) = (%q, %d), want (%q, %d)", tt.spec, path, limit, tt.wantPath, tt.wantLimit)
		}
	}
}

func TestCategoryYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category string
		want     int
	}{
		{"1993 video games", 1993},
		{"2024 video games", 2024},
		{"Roguelike video games", 0},
		{"198", 0},
		{"0999 oddities", 0},
		{"2101 future games", 0},
	}
	for _, tt := range tests {
		if got := categoryYear(tt.category); got != tt.want {
			t.Errorf("categoryYear(%q) = %d, want %d", tt.category, got, tt.want)
		}
	}
}
