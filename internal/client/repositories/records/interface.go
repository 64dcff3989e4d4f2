package records

import (
	"context"

	"github.com/interestIngc/cyphershare/internal/client/models"
)

// Repository describes persistence for the file exchange history.
// Implementations are backed by a local SQLite database.
type Repository interface {
	// Save inserts or updates a record keyed by its ID.
	Save(ctx context.Context, rec *models.FileRecord) error

	// GetByID returns a single record or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.FileRecord, error)

	// GetByContentID resolves a record by its content ID.
	GetByContentID(ctx context.Context, cid string) (*models.FileRecord, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]*models.FileRecord, error)

	// ListContentIDs returns the content IDs of all records with the given
	// direction, used to re-seed the dedup sets on startup.
	ListContentIDs(ctx context.Context, direction models.Direction) ([]string, error)

	// SetCommitment stores the computation commitment on an existing record.
	SetCommitment(ctx context.Context, id, commitment string) error

	// Delete removes a record.
	Delete(ctx context.Context, id string) error
}
