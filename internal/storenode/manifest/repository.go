// Package manifest tracks what content the node holds: one entry per
// content ID with the metadata the uploader declared.
package manifest

import (
	"context"
	"time"
)

type Entry struct {
	CID       string    `json:"cid"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	// Create records an entry. Re-uploading existing content is a no-op.
	Create(ctx context.Context, e *Entry) error

	// GetByCID returns the entry or common.ErrNotFound.
	GetByCID(ctx context.Context, cid string) (*Entry, error)

	// List returns all entries, newest first.
	List(ctx context.Context) ([]*Entry, error)

	// Count returns the number of entries.
	Count(ctx context.Context) (int64, error)
}
