package dataset

import (
	"context"

	"github.com/google/uuid"

	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

// Store mirrors combined datasets into a durable backend. Implementations
// live in subpackages; NoopStore serves runs without one configured.
type Store interface {
	// SaveCombined persists the ranked records under the run ID.
	SaveCombined(ctx context.Context, runID uuid.UUID, records []wiki.CombinedRecord) error

	// Close releases backend resources.
	Close()
}

// NoopStore discards every dataset.
type NoopStore struct{}

// SaveCombined does nothing.
func (NoopStore) SaveCombined(context.Context, uuid.UUID, []wiki.CombinedRecord) error {
	return nil
}

// Close does nothing.
func (NoopStore) Close() {}
