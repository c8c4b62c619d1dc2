package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"fileName"`
	ContentHash string    `json:"contentHash"`
	StoredPath  string    `json:"storedPath"`
	Label       string    `json:"label,omitempty"`
	Confidence  float64   `json:"confidence"`
	Processed   bool      `json:"processed"`
	Notes       string    `json:"notes,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:          doc.ID,
		FileName:    doc.FileName,
		ContentHash: doc.ContentHash,
		StoredPath:  doc.StoredPath,
		Label:       doc.Label,
		Confidence:  doc.Confidence,
		Processed:   doc.Processed,
		Notes:       doc.Notes,
		UploadedAt:  doc.CreatedAt,
	}
}
