// Package memory keeps archived outputs in memory for tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Archive stores run outputs in memory and returns pseudo URIs.
type Archive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates an in-memory archiver.
func New() *Archive {
	return &Archive{objects: make(map[string][]byte)}
}

// Put stores a copy of the content and returns a memory:// URI.
func (a *Archive) Put(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read object data: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[objectName] = append([]byte(nil), data...)
	return fmt.Sprintf("memory://%s", objectName), nil
}

// Object returns the stored content for objectName.
func (a *Archive) Object(objectName string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.objects[objectName]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports how many objects have been stored.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.objects)
}
