// Package types defines the data model and collaborator contracts for
// document similarity scoring.
package types

import "context"

// EmbeddingVector is an ordered feature vector produced by a remote model.
// Immutable once obtained; two vectors may only be compared when their
// lengths match.
type EmbeddingVector = []float64

// Image is an image extracted from a document, held in memory together
// with enough metadata to hand it to a vision provider.
type Image struct {
	// Data is the raw encoded image (e.g. JPEG bytes).
	Data []byte

	// MIMEType identifies the encoding, e.g. "image/jpeg".
	MIMEType string

	// Page is the 1-based page number the image was found on.
	Page int

	// Name is the resource name inside the document, when known.
	Name string
}

// Result holds the final blended score together with the per-branch
// sub-scores for observability.
type Result struct {
	// Score is the weighted blend of TextScore and ImageScore, in [0,1]
	// for non-negative inputs.
	Score float64 `json:"score"`

	// TextScore is the cosine similarity of the two text embeddings.
	TextScore float64 `json:"text_score"`

	// ImageScore is the aggregated pairwise image similarity. When neither
	// document contributes images it takes the configured empty-set default.
	ImageScore float64 `json:"image_score"`

	// ImagePairs is the number of cross-product image pairs that were scored.
	ImagePairs int `json:"image_pairs"`
}

// TextExtractor pulls plain text out of a document on disk.
type TextExtractor interface {
	// ExtractText returns the document's text content. Unreadable or
	// corrupt input fails with a *ExtractionError.
	ExtractText(ctx context.Context, path string) (string, error)
}

// ImageExtractor pulls embedded images out of a document on disk.
// An empty slice is a valid result: the document simply has no images.
type ImageExtractor interface {
	ExtractImages(ctx context.Context, path string) ([]Image, error)
}

// TextEmbeddingProvider turns text into an embedding vector via a remote
// model. Remote failures surface as *ProviderError.
type TextEmbeddingProvider interface {
	EmbedText(ctx context.Context, text string) (EmbeddingVector, error)
	// Close frees any resources held by the provider.
	Close()
}

// ImageFeatureProvider turns an image into a feature vector via a remote
// model. Same failure contract as TextEmbeddingProvider.
type ImageFeatureProvider interface {
	EmbedImage(ctx context.Context, img Image) (EmbeddingVector, error)
	Close()
}

// ImageTagger produces a short textual description (tags) for an image.
// Combined with a TextEmbeddingProvider it forms an ImageFeatureProvider.
type ImageTagger interface {
	TagImage(ctx context.Context, img Image) (string, error)
	Close()
}
