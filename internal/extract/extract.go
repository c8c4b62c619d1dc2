package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docclassifier-backend/internal/engine"
	"docclassifier-backend/internal/shared/telemetry"
)

// minDirectTextLen is the threshold below which a PDF is treated as scanned
// and routed through OCR.
const minDirectTextLen = 100

// ErrUnsupported indicates the file type has no extraction route.
var ErrUnsupported = errors.New("unsupported file type")

// Extractor pulls plain text out of uploaded files. PDFs are read directly
// via github.com/ledongthuc/pdf and fall back to OCR when nearly empty;
// images always go through OCR.
type Extractor struct {
	OCR engine.OCRClient
}

// NewExtractor constructs an Extractor.
func NewExtractor(ocr engine.OCRClient) *Extractor {
	return &Extractor{OCR: ocr}
}

// FromFile extracts text from the file at path, dispatching on extension.
func (e *Extractor) FromFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return e.fromPDF(ctx, path)
	case ".docx":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return extractDOCX(data)
	case ".txt", ".text", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return e.ocr(ctx, path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

func (e *Extractor) fromPDF(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := extractPDF(data)
	if err == nil && len(strings.TrimSpace(text)) >= minDirectTextLen {
		return text, nil
	}

	// Nearly empty direct extraction usually means a scanned PDF.
	if e.OCR == nil {
		if err != nil {
			return "", err
		}
		return text, nil
	}
	telemetry.Info("extract.ocr_fallback", map[string]any{
		"path":       filepath.Base(path),
		"direct_len": len(strings.TrimSpace(text)),
	})
	ocrText, ocrErr := e.ocr(ctx, path)
	if ocrErr != nil {
		if err != nil {
			return "", err
		}
		return text, nil
	}
	return ocrText, nil
}

func (e *Extractor) ocr(ctx context.Context, path string) (string, error) {
	if e.OCR == nil {
		return "", fmt.Errorf("%w: no OCR engine configured", ErrUnsupported)
	}
	res, err := e.OCR.Recognize(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if last := buf.Len(); last > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
