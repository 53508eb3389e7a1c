package types

import "fmt"

// ExtractionError reports an upstream document parsing failure. It aborts
// the comparison for the document pair it occurred in.
type ExtractionError struct {
	// Path is the document that failed to parse.
	Path string
	// Err is the underlying parser error.
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ProviderError reports a remote-service failure (network, auth, quota).
// It carries enough detail for the caller to decide on retry; no retry is
// performed here.
type ProviderError struct {
	// Provider names the failing service, e.g. "openai" or "gemini".
	Provider string
	// StatusCode is the HTTP status when the failure came from an API
	// response, 0 otherwise.
	StatusCode int
	// Message describes the failure.
	Message string
	// Err is the underlying SDK error, when available.
	Err error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s provider: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }
