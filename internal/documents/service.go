package documents

import (
	"context"
	"errors"
	"strings"

	"docclassifier-backend/internal/shared/telemetry"
	"docclassifier-backend/internal/shared/util"
)

// Service contains business logic for the document store: content-addressed
// uploads, artifact persistence after processing, and read-time
// reconciliation of path drift between filesystem and index.
type Service struct {
	Tree *FileTree
	Repo Repo
}

// NewService constructs a Service.
func NewService(tree *FileTree, repo Repo) *Service {
	return &Service{Tree: tree, Repo: repo}
}

// SaveParams carries everything the pipeline hands over for persistence.
type SaveParams struct {
	OwnerID       string
	ContentHash   string
	Label         string
	Confidence    float64
	ExtractedText string
	Summary       string
	Notes         string
}

// Upload stores the file bytes and indexes them. Identical bytes reuse the
// existing row: the second return reports whether a new document was created.
func (s *Service) Upload(ctx context.Context, ownerID, fileName string, data []byte) (Document, bool, error) {
	if fileName == "" || len(data) == 0 {
		return Document{}, false, ErrInvalidInput
	}

	hash := util.HashBytes(data)
	existing, err := s.Repo.GetByHash(ctx, hash)
	if err == nil {
		// Same bytes already stored; make sure the file is still on disk.
		path, repaired, fixErr := s.Tree.EnsureExists(ownerID, existing.StoredPath, hash)
		if fixErr == nil && repaired {
			if updErr := s.Repo.UpdateStoredPath(ctx, hash, path, existing.Label); updErr == nil {
				existing.StoredPath = path
			}
		}
		if errors.Is(fixErr, ErrNotFound) {
			// Row exists but bytes are gone; rewrite the file.
			path, writeErr := s.Tree.StoreOriginal(ownerID, fileName, data)
			if writeErr != nil {
				return Document{}, false, writeErr
			}
			if updErr := s.Repo.UpdateStoredPath(ctx, hash, path, existing.Label); updErr != nil {
				return Document{}, false, updErr
			}
			existing.StoredPath = path
		}
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Document{}, false, err
	}

	path, err := s.Tree.StoreOriginal(ownerID, fileName, data)
	if err != nil {
		return Document{}, false, err
	}
	doc, err := s.Repo.Upsert(ctx, Document{
		OwnerID:     ownerID,
		FileName:    fileName,
		ContentHash: hash,
		StoredPath:  path,
		Label:       "Unlabeled",
		Processed:   false,
	})
	if err != nil {
		return Document{}, false, err
	}
	return doc, true, nil
}

// SaveResults persists pipeline output: the original moves into its label
// bucket, derived artifacts are written, and the index row is upserted by
// content hash. A re-run with a different label overwrites in place.
func (s *Service) SaveResults(ctx context.Context, p SaveParams) (Document, error) {
	doc, err := s.Repo.GetByHash(ctx, p.ContentHash)
	if err != nil {
		return Document{}, err
	}

	storedPath, repaired, err := s.Tree.EnsureExists(p.OwnerID, doc.StoredPath, p.ContentHash)
	if err != nil {
		return Document{}, err
	}
	if repaired {
		doc.StoredPath = storedPath
	}

	newPath, err := s.Tree.MoveToLabel(doc.StoredPath, p.OwnerID, p.Label)
	if err != nil {
		return Document{}, err
	}

	extractedPath, err := s.Tree.StoreExtracted(p.OwnerID, p.Label, doc.FileName, p.ExtractedText)
	if err != nil {
		return Document{}, err
	}
	summaryPath := ""
	if strings.TrimSpace(p.Summary) != "" {
		summaryPath, err = s.Tree.StoreSummary(p.OwnerID, p.Label, doc.FileName, p.Summary)
		if err != nil {
			return Document{}, err
		}
	}

	doc.StoredPath = newPath
	doc.ExtractedPath = extractedPath
	doc.SummaryPath = summaryPath
	doc.Label = p.Label
	doc.Confidence = p.Confidence
	doc.Processed = true
	doc.Notes = p.Notes

	saved, err := s.Repo.Upsert(ctx, doc)
	if err != nil {
		// The file moved but the index did not follow; the next read
		// reconciles via EnsureExists.
		telemetry.Error("documents.index_update_failed", map[string]any{
			"content_hash": p.ContentHash,
			"error":        err.Error(),
		})
		return Document{}, err
	}
	return saved, nil
}

// List returns the owner's documents, repairing any stale stored paths.
func (s *Service) List(ctx context.Context, ownerID string) ([]Document, error) {
	docs, err := s.Repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, ownerID, docs), nil
}

// Search returns the owner's documents matching a substring over filename,
// label, and notes.
func (s *Service) Search(ctx context.Context, ownerID, query string) ([]Document, error) {
	if strings.TrimSpace(query) == "" {
		return s.List(ctx, ownerID)
	}
	docs, err := s.Repo.SearchByOwner(ctx, ownerID, query)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, ownerID, docs), nil
}

// GetByHash returns the indexed row for a content hash.
func (s *Service) GetByHash(ctx context.Context, hash string) (Document, error) {
	return s.Repo.GetByHash(ctx, hash)
}

// ResolvePath returns the on-disk location for a document, repairing the
// indexed path first if the file drifted.
func (s *Service) ResolvePath(ctx context.Context, doc Document) (string, error) {
	path, repaired, err := s.Tree.EnsureExists(doc.OwnerID, doc.StoredPath, doc.ContentHash)
	if err != nil {
		return "", err
	}
	if repaired {
		if err := s.Repo.UpdateStoredPath(ctx, doc.ContentHash, path, doc.Label); err != nil {
			return "", err
		}
	}
	return path, nil
}

// Rename changes the display and on-disk name of a document.
func (s *Service) Rename(ctx context.Context, ownerID, storedPath, newName string) (Document, error) {
	doc, err := s.Repo.GetByPath(ctx, ownerID, storedPath)
	if err != nil {
		return Document{}, err
	}
	newPath, err := s.Tree.Rename(doc.StoredPath, newName)
	if err != nil {
		return Document{}, err
	}
	doc.StoredPath = newPath
	doc.FileName = newName
	return s.Repo.Upsert(ctx, doc)
}

// DeleteByPath removes the file, its derived artifacts, and the index row.
// Artifact removal is best-effort so a partially deleted document can still
// be cleaned up.
func (s *Service) DeleteByPath(ctx context.Context, ownerID, storedPath string) error {
	doc, err := s.Repo.GetByPath(ctx, ownerID, storedPath)
	if err != nil {
		return err
	}
	s.Tree.Delete(doc.StoredPath, doc.ExtractedPath, doc.SummaryPath)
	return s.Repo.DeleteByHash(ctx, doc.ContentHash)
}

// ClearAll wipes the owner's tree and index rows. Destructive reset.
func (s *Service) ClearAll(ctx context.Context, ownerID string) (int, error) {
	if err := s.Tree.ClearAll(ownerID); err != nil {
		return 0, err
	}
	return s.Repo.ClearOwner(ctx, ownerID)
}

func (s *Service) reconcile(ctx context.Context, ownerID string, docs []Document) []Document {
	for i := range docs {
		path, repaired, err := s.Tree.EnsureExists(ownerID, docs[i].StoredPath, docs[i].ContentHash)
		if err != nil || !repaired {
			continue
		}
		if err := s.Repo.UpdateStoredPath(ctx, docs[i].ContentHash, path, docs[i].Label); err == nil {
			docs[i].StoredPath = path
		}
	}
	return docs
}
