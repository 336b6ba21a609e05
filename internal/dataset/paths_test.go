package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStem(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"articles_roguelikes.csv", "roguelikes"},
		{"data/articles_city_builders.csv", "city_builders"},
		{"games.csv", "games"},
		{"/tmp/run/articles_4x.csv", "4x"},
	}
	for _, tc := range cases {
		if got := Stem(tc.in); got != tc.want {
			t.Fatalf("Stem(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOutputs(t *testing.T) {
	t.Parallel()

	out := Outputs(filepath.Join("data", "articles_roguelikes.csv"))
	if out.Views != filepath.Join("data", "roguelikes_views.csv") {
		t.Fatalf("views path = %q", out.Views)
	}
	if out.Meta != filepath.Join("data", "roguelikes_meta.csv") {
		t.Fatalf("meta path = %q", out.Meta)
	}
	if out.Combined != filepath.Join("data", "roguelikes_combined.csv") {
		t.Fatalf("combined path = %q", out.Combined)
	}
	if out.Skipped != filepath.Join("data", "roguelikes_skipped.csv") {
		t.Fatalf("skipped path = %q", out.Skipped)
	}
}

func TestEnsureAbsent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := filepath.Join(dir, "new.csv")
	if err := EnsureAbsent(missing); err != nil {
		t.Fatalf("EnsureAbsent(%q) = %v, want nil", missing, err)
	}

	existing := filepath.Join(dir, "old.csv")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureAbsent(existing); err == nil {
		t.Fatalf("EnsureAbsent(%q) = nil, want error", existing)
	}
}
