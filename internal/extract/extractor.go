// Package extract provides the document text-extraction collaborator.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// TextExtractor converts a stored document into plain text. Extraction
// failures are fatal to the run that requested them.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// pdfMagic is the required header of a PDF document.
var pdfMagic = []byte("%PDF-")

// DocumentExtractor extracts text from uploaded case documents. PDF bytes go
// through a PDF text reader; anything else is treated as plain UTF-8 text.
type DocumentExtractor struct{}

// NewDocumentExtractor creates the default extractor.
func NewDocumentExtractor() *DocumentExtractor { return &DocumentExtractor{} }

func (e *DocumentExtractor) Extract(_ context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty document")
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return extractPDF(data)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("document is neither PDF nor valid UTF-8 text")
	}
	return string(data), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf page %d: %w", pageNum, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
