// Package uuid generates identifiers for harvest runs.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces time-ordered run identifiers.
type Generator struct{}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns the string form of a new UUIDv7.
func (g *Generator) NewID() (string, error) {
	id, err := g.NewRawID()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewRawID returns a new UUIDv7. V7 identifiers sort by creation time,
// which keeps run listings chronological.
func (g *Generator) NewRawID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid7: %w", err)
	}
	return id, nil
}
