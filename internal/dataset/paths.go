package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// OutputPaths holds the derived artifact locations for one articles file.
type OutputPaths struct {
	Views    string
	Meta     string
	Combined string
	Skipped  string
}

// Stem extracts the dataset stem from an articles path: the base name
// without its extension, minus a leading "articles_" marker. So
// "data/articles_roguelikes.csv" stems to "roguelikes" and
// "games.csv" stems to "games".
func Stem(articlesPath string) string {
	base := filepath.Base(articlesPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimPrefix(stem, "articles_")
}

// Outputs derives the default output paths next to the articles file.
func Outputs(articlesPath string) OutputPaths {
	dir := filepath.Dir(articlesPath)
	stem := Stem(articlesPath)
	return OutputPaths{
		Views:    filepath.Join(dir, stem+"_views.csv"),
		Meta:     filepath.Join(dir, stem+"_meta.csv"),
		Combined: filepath.Join(dir, stem+"_combined.csv"),
		Skipped:  filepath.Join(dir, stem+"_skipped.csv"),
	}
}

// EnsureAbsent fails when path already exists. Combined datasets are
// never overwritten implicitly.
func EnsureAbsent(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return nil
}
