// Package gemini implements the image feature provider on Google's Gemini
// API: the vision model tags an image with a short description, and the
// embedding model turns the tags into a feature vector.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/botirk38/docsim/types"
)

// Default models used when none are configured.
const (
	DefaultTagModel   = "gemini-2.0-flash"
	DefaultEmbedModel = "text-embedding-004"
)

// tagPrompt asks for a deterministic, comparable description. Keeping it
// short keeps embeddings of the same subject close together.
const tagPrompt = "List the main objects, scene and style visible in this image as a short comma-separated sequence of lowercase tags. Respond with the tags only."

// Provider tags and embeds images via the Gemini API.
type Provider struct {
	client     *genai.Client
	tagModel   string
	embedModel string
}

// Config provides configuration options for the Gemini provider.
type Config struct {
	// APIKey authenticates against the API. Falls back to the
	// GEMINI_API_KEY environment variable when empty.
	APIKey string

	// TagModel is the vision model producing tags; defaults to
	// DefaultTagModel.
	TagModel string

	// EmbedModel is the embedding model; defaults to DefaultEmbedModel.
	EmbedModel string
}

// New creates an image feature provider for Gemini.
func New(ctx context.Context, config Config) (*Provider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("Gemini API key is required")
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	tagModel := config.TagModel
	if tagModel == "" {
		tagModel = DefaultTagModel
	}
	embedModel := config.EmbedModel
	if embedModel == "" {
		embedModel = DefaultEmbedModel
	}

	return &Provider{client: client, tagModel: tagModel, embedModel: embedModel}, nil
}

// TagImage asks the vision model to describe the image.
func (p *Provider) TagImage(ctx context.Context, img types.Image) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(tagPrompt),
		}, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.tagModel, contents, nil)
	if err != nil {
		return "", wrapErr(err)
	}

	tags := strings.TrimSpace(resp.Text())
	if tags == "" {
		return "", &types.ProviderError{Provider: "gemini", Message: "empty tag response"}
	}
	return tags, nil
}

// EmbedImage tags the image and embeds the resulting tag text.
func (p *Provider) EmbedImage(ctx context.Context, img types.Image) (types.EmbeddingVector, error) {
	tags, err := p.TagImage(ctx, img)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.embedModel, genai.Text(tags), nil)
	if err != nil {
		return nil, wrapErr(err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, &types.ProviderError{Provider: "gemini", Message: "no embedding returned"}
	}

	values := resp.Embeddings[0].Values
	vec := make(types.EmbeddingVector, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}
	return vec, nil
}

// Close frees resources held by the provider (no-op for Gemini).
func (p *Provider) Close() {}

func wrapErr(err error) error {
	perr := &types.ProviderError{Provider: "gemini", Message: err.Error(), Err: err}
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		perr.StatusCode = apierr.Code
	}
	return perr
}
