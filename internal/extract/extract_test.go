package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docclassifier-backend/internal/engine"
)

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) Recognize(ctx context.Context, filePath string) (engine.OCRResult, error) {
	f.calls++
	if f.err != nil {
		return engine.OCRResult{}, f.err
	}
	return engine.OCRResult{Text: f.text}, nil
}

func TestFromFilePlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("plain text body"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ex := NewExtractor(nil)
	text, err := ex.FromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if text != "plain text body" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestFromFileImageRoutesToOCR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, []byte{0x89, 0x50, 0x4e, 0x47}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ocr := &fakeOCR{text: "recognized text"}
	ex := NewExtractor(ocr)
	text, err := ex.FromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if text != "recognized text" {
		t.Fatalf("unexpected text: %q", text)
	}
	if ocr.calls != 1 {
		t.Fatalf("expected one OCR call, got %d", ocr.calls)
	}
}

func TestFromFileImageWithoutOCREngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.jpg")
	if err := os.WriteFile(path, []byte{0xff, 0xd8}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ex := NewExtractor(nil)
	if _, err := ex.FromFile(context.Background(), path); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFromFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.mp3")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ex := NewExtractor(&fakeOCR{})
	_, err := ex.FromFile(context.Background(), path)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFromFileScannedPDFFallsBackToOCR(t *testing.T) {
	// Not a parseable PDF: direct extraction fails, OCR supplies the text.
	path := filepath.Join(t.TempDir(), "scanned.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 image-only body"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ocr := &fakeOCR{text: "ocr recovered text"}
	ex := NewExtractor(ocr)
	text, err := ex.FromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if text != "ocr recovered text" {
		t.Fatalf("unexpected text: %q", text)
	}
	if ocr.calls != 1 {
		t.Fatalf("expected one OCR call, got %d", ocr.calls)
	}
}

func TestExtractDOCXStripsXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	const docXML = `<?xml version="1.0"?><w:document xmlns:w="ns"><w:body><w:p><w:r><w:t>First line</w:t></w:r></w:p><w:p><w:r><w:t>Second line</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(docXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	text, err := extractDOCX(buf.Bytes())
	if err != nil {
		t.Fatalf("extractDOCX: %v", err)
	}
	if !strings.Contains(text, "First line") || !strings.Contains(text, "Second line") {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("notes.txt"); err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	if _, err := extractDOCX(buf.Bytes()); err == nil {
		t.Fatal("expected error for missing document.xml")
	}
}
