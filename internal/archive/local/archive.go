// Package local implements a local filesystem archiver.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the local filesystem archiver.
type Config struct {
	// BaseDir is the root directory archived outputs are written under.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Archive writes run outputs to the local filesystem.
type Archive struct {
	baseDir string
}

// New creates a filesystem-backed archiver rooted at cfg.BaseDir,
// creating the directory if it does not exist.
func New(cfg Config) (*Archive, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", cfg.BaseDir)
		}
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	default:
		return nil, fmt.Errorf("stat base directory: %w", err)
	}

	return &Archive{baseDir: cfg.BaseDir}, nil
}

// Put streams data to a file under the base directory and returns a
// file:// URI. Object names must stay within the base directory.
func (a *Archive) Put(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	if strings.TrimSpace(objectName) == "" {
		return "", fmt.Errorf("object name is required")
	}

	fullPath := filepath.Join(a.baseDir, filepath.FromSlash(objectName))
	rel, err := filepath.Rel(a.baseDir, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object name %q escapes base directory", objectName)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close() //nolint:errcheck,gosec // write error takes precedence
		return "", fmt.Errorf("write archive file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close archive file: %w", err)
	}

	return fmt.Sprintf("file://%s", fullPath), nil
}
