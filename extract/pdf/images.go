package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/botirk38/docsim/types"
)

// ImageExtractor reads embedded raster images out of a PDF file.
// Only self-contained JPEG streams (DCTDecode) are extracted; images in
// encodings the parser cannot decode are skipped. An empty result is
// valid: the document has no usable images.
type ImageExtractor struct{}

// NewImageExtractor creates a PDF image extractor.
func NewImageExtractor() *ImageExtractor { return &ImageExtractor{} }

// ExtractImages walks each page's XObject resources and collects image
// streams in document order.
func (e *ImageExtractor) ExtractImages(ctx context.Context, path string) (images []types.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &types.ExtractionError{Path: path, Err: fmt.Errorf("pdf parser panic: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &types.ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	// Raw file bytes back the DCT fallback in rawJPEGSegment.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ExtractionError{Path: path, Err: err}
	}
	used := make(map[int]bool)

	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}

		xobjects := p.Resources().Key("XObject")
		if xobjects.Kind() != pdf.Dict {
			continue
		}
		for _, name := range xobjects.Keys() {
			obj := xobjects.Key(name)
			if obj.Kind() != pdf.Stream || obj.Key("Subtype").Name() != "Image" {
				continue
			}
			if !hasDCTFilter(obj.Key("Filter")) {
				continue
			}
			data := readImageStream(obj)
			if len(data) == 0 {
				data = rawJPEGSegment(raw, obj.Key("Length").Int64(), used)
			}
			if len(data) == 0 {
				continue
			}
			images = append(images, types.Image{
				Data:     data,
				MIMEType: "image/jpeg",
				Page:     i,
				Name:     name,
			})
		}
	}

	return images, nil
}

// hasDCTFilter reports whether the stream's Filter entry names DCTDecode,
// either directly or anywhere in a filter chain.
func hasDCTFilter(filter pdf.Value) bool {
	switch filter.Kind() {
	case pdf.Name:
		return filter.Name() == "DCTDecode"
	case pdf.Array:
		for i := 0; i < filter.Len(); i++ {
			if filter.Index(i).Name() == "DCTDecode" {
				return true
			}
		}
	}
	return false
}

// readImageStream pulls the stream bytes, absorbing the parser's panic on
// filters it cannot decode so one odd image doesn't abort the document.
func readImageStream(obj pdf.Value) (data []byte) {
	defer func() {
		if recover() != nil {
			data = nil
		}
	}()
	b, err := io.ReadAll(obj.Reader())
	if err != nil {
		return nil
	}
	return b
}

var (
	jpegSOI = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI = []byte{0xFF, 0xD9}
)

// rawJPEGSegment recovers a DCTDecode stream straight from the file bytes.
// The parser's Reader only applies flate, but a DCT stream body is already
// a complete JPEG: find it by its SOI/EOI markers and the declared stream
// length. used tracks claimed offsets so repeated lookups don't return the
// same segment.
func rawJPEGSegment(raw []byte, length int64, used map[int]bool) []byte {
	if length < int64(len(jpegSOI)+len(jpegEOI)) || length > int64(len(raw)) {
		return nil
	}
	n := int(length)
	for i := 0; ; {
		j := bytes.Index(raw[i:], jpegSOI)
		if j < 0 {
			return nil
		}
		start := i + j
		if start+n > len(raw) {
			return nil
		}
		if !used[start] && bytes.HasSuffix(raw[start:start+n], jpegEOI) {
			used[start] = true
			return raw[start : start+n]
		}
		i = start + 1
	}
}
