package documents

import "time"

// Document is one indexed row mirroring a stored file. Rows are keyed by
// content hash, so re-uploading identical bytes reuses the same row.
type Document struct {
	ID            int64     `json:"id"`
	OwnerID       string    `json:"ownerId"`
	FileName      string    `json:"fileName"`
	ContentHash   string    `json:"contentHash"`
	StoredPath    string    `json:"storedPath"`
	ExtractedPath string    `json:"extractedPath,omitempty"`
	SummaryPath   string    `json:"summaryPath,omitempty"`
	Label         string    `json:"label,omitempty"`
	Confidence    float64   `json:"confidence"`
	Processed     bool      `json:"processed"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
