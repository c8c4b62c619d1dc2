package documents

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docclassifier-backend/internal/shared/telemetry"
	"docclassifier-backend/internal/shared/util"
)

const (
	bucketInputs    = "inputs"
	bucketExtracted = "extracted"
	bucketSummaries = "summaries"
	unlabeledDir    = "unlabeled"
)

// FileTree is the on-disk side of the document store. Files live under
// <root>/<ownerKey>/<bucket>/<label>/<date>/name and are never overwritten;
// name collisions get a numeric suffix.
type FileTree struct {
	Root string
}

// NewFileTree constructs a FileTree rooted at dir.
func NewFileTree(dir string) *FileTree {
	return &FileTree{Root: dir}
}

// StoreOriginal writes an uploaded file into the owner's unlabeled input
// bucket, partitioned by upload date. Returns the stored path.
func (t *FileTree) StoreOriginal(owner, fileName string, data []byte) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", ErrInvalidInput
	}
	dir := t.bucketDir(owner, bucketInputs, unlabeledDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path, err := uniquePath(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// StoreExtracted writes extracted text under the owner's label bucket.
func (t *FileTree) StoreExtracted(owner, label, fileName, text string) (string, error) {
	return t.storeDerived(owner, bucketExtracted, label, fileName, text)
}

// StoreSummary writes a summary under the owner's label bucket.
func (t *FileTree) StoreSummary(owner, label, fileName, text string) (string, error) {
	return t.storeDerived(owner, bucketSummaries, label, fileName, text)
}

func (t *FileTree) storeDerived(owner, bucket, label, fileName, text string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", ErrInvalidInput
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".txt"
	dir := t.bucketDir(owner, bucket, util.SanitizeLabel(label))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path, err := uniquePath(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// MoveToLabel relocates an original file into the label-specific input
// bucket after classification. Returns the new path.
func (t *FileTree) MoveToLabel(path, owner, label string) (string, error) {
	dir := t.bucketDir(owner, bucketInputs, util.SanitizeLabel(label))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest, err := uniquePath(dir, filepath.Base(path))
	if err != nil {
		return "", err
	}
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// EnsureExists reconciles index drift: if the stored path is missing on
// disk, the owner tree is scanned for a file with the same content hash and
// the located path is returned with repaired=true. Returns ErrNotFound when
// no matching file exists anywhere in the tree.
func (t *FileTree) EnsureExists(owner, storedPath, contentHash string) (string, bool, error) {
	if _, err := os.Stat(storedPath); err == nil {
		return storedPath, false, nil
	}

	ownerRoot := filepath.Join(t.Root, util.HashOwnerKey(owner), bucketInputs)
	var found string
	walkErr := filepath.WalkDir(ownerRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != "" {
			return nil
		}
		hash, hashErr := util.HashFile(path)
		if hashErr != nil {
			return nil
		}
		if hash == contentHash {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		return "", false, walkErr
	}
	if found == "" {
		return "", false, ErrNotFound
	}
	telemetry.Info("documents.path_repaired", map[string]any{
		"stale_path": storedPath,
		"found_path": found,
	})
	return found, true, nil
}

// Rename changes the base name of a stored file within its directory.
func (t *FileTree) Rename(path, newName string) (string, error) {
	name, err := util.SanitizeFileName(newName)
	if err != nil {
		return "", ErrInvalidInput
	}
	dest, err := uniquePath(filepath.Dir(path), name)
	if err != nil {
		return "", err
	}
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Delete removes the stored file and its derived artifacts. Missing
// artifacts are skipped so a partial prior delete can complete.
func (t *FileTree) Delete(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			telemetry.Error("documents.delete_failed", map[string]any{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
}

// ClearAll removes the entire owner tree.
func (t *FileTree) ClearAll(owner string) error {
	return os.RemoveAll(filepath.Join(t.Root, util.HashOwnerKey(owner)))
}

func (t *FileTree) bucketDir(owner, bucket, label string) string {
	date := time.Now().UTC().Format("2006-01-02")
	return filepath.Join(t.Root, util.HashOwnerKey(owner), bucket, label, date)
}

// uniquePath returns a path in dir for name that does not collide with an
// existing file, suffixing name-1.ext, name-2.ext as needed.
func uniquePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for i := 1; i <= 10000; i++ {
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
	return "", fmt.Errorf("too many name collisions for %s", name)
}
