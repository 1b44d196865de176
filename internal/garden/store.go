package garden

import (
	"context"

	"whispers/backend/internal/models"
)

// Store is the remote side of a garden: a per-user record embedding the
// thought collection. Implementations classify their failures with apperr.
type Store interface {
	// FetchAll returns the whole collection, or an empty slice when the user
	// record or its collection does not exist yet.
	FetchAll(ctx context.Context, userID string) ([]models.Thought, error)
	// Append adds a thought without reading the collection first.
	Append(ctx context.Context, userID string, thought models.Thought) error
	// RemoveByID drops the thought with the given id. Removing an id that is
	// not present succeeds.
	RemoveByID(ctx context.Context, userID, thoughtID string) error
}
