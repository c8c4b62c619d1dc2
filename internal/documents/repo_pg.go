package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const docColumns = `id, owner_id, file_name, content_hash, stored_path, extracted_path, summary_path, label, confidence, processed, notes, created_at, updated_at`

// Upsert wraps the read-then-write in one transaction so two concurrent
// uploads of identical bytes cannot race into duplicate rows.
func (r *PGRepo) Upsert(ctx context.Context, doc Document) (Document, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var existingID int64
	err = tx.QueryRowContext(ctx, `
SELECT id FROM documents WHERE content_hash = $1 FOR UPDATE`, doc.ContentHash).Scan(&existingID)
	switch {
	case err == nil:
		doc.ID = existingID
		doc.UpdatedAt = now
		if _, err = tx.ExecContext(ctx, `
UPDATE documents
SET file_name = $1, stored_path = $2, extracted_path = $3, summary_path = $4,
    label = $5, confidence = $6, processed = $7, notes = $8, updated_at = $9
WHERE id = $10`,
			doc.FileName, doc.StoredPath, nullStr(doc.ExtractedPath), nullStr(doc.SummaryPath),
			nullStr(doc.Label), nullFloat(doc.Confidence, doc.Processed), doc.Processed, nullStr(doc.Notes), now, existingID); err != nil {
			return Document{}, err
		}
	case errors.Is(err, sql.ErrNoRows):
		doc.CreatedAt = now
		doc.UpdatedAt = now
		if err = tx.QueryRowContext(ctx, `
INSERT INTO documents (owner_id, file_name, content_hash, stored_path, extracted_path, summary_path, label, confidence, processed, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
RETURNING id`,
			doc.OwnerID, doc.FileName, doc.ContentHash, doc.StoredPath, nullStr(doc.ExtractedPath),
			nullStr(doc.SummaryPath), nullStr(doc.Label), nullFloat(doc.Confidence, doc.Processed), doc.Processed,
			nullStr(doc.Notes), now).Scan(&doc.ID); err != nil {
			return Document{}, err
		}
	default:
		return Document{}, err
	}

	if err = tx.Commit(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (r *PGRepo) GetByHash(ctx context.Context, hash string) (Document, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+docColumns+` FROM documents WHERE content_hash = $1`, hash)
	return scanDocument(row)
}

func (r *PGRepo) GetByPath(ctx context.Context, ownerID, storedPath string) (Document, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+docColumns+` FROM documents WHERE owner_id = $1 AND stored_path = $2`, ownerID, storedPath)
	return scanDocument(row)
}

func (r *PGRepo) UpdateStoredPath(ctx context.Context, hash, storedPath, label string) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE documents SET stored_path = $1, label = $2, updated_at = $3 WHERE content_hash = $4`,
		storedPath, nullStr(label), time.Now().UTC(), hash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+docColumns+` FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *PGRepo) SearchByOwner(ctx context.Context, ownerID, query string) ([]Document, error) {
	pattern := "%" + query + "%"
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+docColumns+` FROM documents
WHERE owner_id = $1 AND (file_name ILIKE $2 OR label ILIKE $2 OR notes ILIKE $2)
ORDER BY created_at DESC`, ownerID, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *PGRepo) DeleteByHash(ctx context.Context, hash string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE content_hash = $1`, hash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ClearOwner(ctx context.Context, ownerID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *PGRepo) Counts(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.DB.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE processed), COUNT(*) FILTER (WHERE NOT processed)
FROM documents`).Scan(&stats.TotalDocuments, &stats.Processed, &stats.Unprocessed)
	return stats, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var extracted, summary, label, notes sql.NullString
	var confidence sql.NullFloat64
	err := row.Scan(&doc.ID, &doc.OwnerID, &doc.FileName, &doc.ContentHash, &doc.StoredPath,
		&extracted, &summary, &label, &confidence, &doc.Processed, &notes, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	doc.ExtractedPath = extracted.String
	doc.SummaryPath = summary.String
	doc.Label = label.String
	doc.Confidence = confidence.Float64
	doc.Notes = notes.String
	return doc, nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullFloat keeps confidence NULL until the document has been classified, so
// a stored 0.0 is a real zero-confidence result rather than "absent".
func nullFloat(f float64, valid bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: valid}
}
