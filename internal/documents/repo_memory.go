package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo implements Repo with an in-memory map, used when no database is
// configured and in tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	byHash map[string]Document
	nextID int64
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byHash: make(map[string]Document), nextID: 1}
}

var _ Repo = (*MemoryRepo)(nil)

func (r *MemoryRepo) Upsert(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.byHash[doc.ContentHash]; ok {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.ID = r.nextID
		r.nextID++
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	r.byHash[doc.ContentHash] = doc
	return doc, nil
}

func (r *MemoryRepo) GetByHash(ctx context.Context, hash string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byHash[hash]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) GetByPath(ctx context.Context, ownerID, storedPath string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.byHash {
		if doc.OwnerID == ownerID && doc.StoredPath == storedPath {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

func (r *MemoryRepo) UpdateStoredPath(ctx context.Context, hash, storedPath, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byHash[hash]
	if !ok {
		return ErrNotFound
	}
	doc.StoredPath = storedPath
	doc.Label = label
	doc.UpdatedAt = time.Now().UTC()
	r.byHash[hash] = doc
	return nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.byHash {
		if doc.OwnerID == ownerID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) SearchByOwner(ctx context.Context, ownerID, query string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.byHash {
		if doc.OwnerID != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(doc.FileName), q) ||
			strings.Contains(strings.ToLower(doc.Label), q) ||
			strings.Contains(strings.ToLower(doc.Notes), q) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) DeleteByHash(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byHash[hash]; !ok {
		return ErrNotFound
	}
	delete(r.byHash, hash)
	return nil
}

func (r *MemoryRepo) ClearOwner(ctx context.Context, ownerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for hash, doc := range r.byHash {
		if doc.OwnerID == ownerID {
			delete(r.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) Counts(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats Stats
	for _, doc := range r.byHash {
		stats.TotalDocuments++
		if doc.Processed {
			stats.Processed++
		} else {
			stats.Unprocessed++
		}
	}
	return stats, nil
}
