// Package archive uploads finished run outputs to blob storage.
// The provider abstraction keeps the pipeline independent of where
// archives land (Google Cloud Storage, the local filesystem, or nowhere).
package archive

import (
	"context"
	"io"
	"path"
)

// Archiver uploads a single run output and returns the URI it landed at.
type Archiver interface {
	Put(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)
}

// Noop discards uploads. It serves runs with archiving disabled.
type Noop struct{}

// Put does nothing and returns an empty URI.
func (Noop) Put(_ context.Context, _, _ string, _ io.Reader) (string, error) {
	return "", nil
}

// ObjectName builds the object key for one run output. Outputs are
// grouped per run: <prefix>/<runID>/<filename>, with the prefix omitted
// when empty.
func ObjectName(prefix, runID, filename string) string {
	if prefix == "" {
		return path.Join(runID, filename)
	}
	return path.Join(prefix, runID, filename)
}
