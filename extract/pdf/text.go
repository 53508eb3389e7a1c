// Package pdf implements the document extraction collaborators on top of
// github.com/ledongthuc/pdf. It covers plain-text extraction and embedded
// JPEG image extraction; rendering pages to images is out of scope.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/botirk38/docsim/types"
)

// TextExtractor reads the plain text of a PDF file.
type TextExtractor struct{}

// NewTextExtractor creates a PDF text extractor.
func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

// ExtractText returns the concatenated text of all pages. Pages that fail
// to decode are skipped; a document where no page decodes fails with a
// *types.ExtractionError.
func (e *TextExtractor) ExtractText(ctx context.Context, path string) (text string, err error) {
	// The underlying parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = &types.ExtractionError{Path: path, Err: fmt.Errorf("pdf parser panic: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", &types.ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	decoded := 0

	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}

		// Cache fonts so the charmap is not re-parsed per page.
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}

		pageText, err := p.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
		decoded++
	}

	if pages > 0 && decoded == 0 {
		return "", &types.ExtractionError{Path: path, Err: fmt.Errorf("no page of %d could be decoded", pages)}
	}

	return sb.String(), nil
}
