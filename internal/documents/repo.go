package documents

import "context"

// Stats summarizes index contents for the admin console.
type Stats struct {
	TotalDocuments int `json:"totalDocuments"`
	Processed      int `json:"processed"`
	Unprocessed    int `json:"unprocessed"`
}

// Repo defines persistence operations for the document index.
type Repo interface {
	// Upsert is keyed by content hash: update mutable fields in place if a
	// row with that hash exists, else insert. All-or-nothing.
	Upsert(ctx context.Context, doc Document) (Document, error)
	GetByHash(ctx context.Context, hash string) (Document, error)
	GetByPath(ctx context.Context, ownerID, storedPath string) (Document, error)
	UpdateStoredPath(ctx context.Context, hash, storedPath, label string) error
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)
	SearchByOwner(ctx context.Context, ownerID, query string) ([]Document, error)
	DeleteByHash(ctx context.Context, hash string) error
	ClearOwner(ctx context.Context, ownerID string) (int, error)
	Counts(ctx context.Context) (Stats, error)
}
