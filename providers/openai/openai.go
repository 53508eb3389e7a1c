// Package openai implements the text embedding provider on OpenAI's API.
package openai

import (
	"context"
	"errors"
	"os"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/botirk38/docsim/types"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.EmbeddingModelTextEmbedding3Small

// Provider uses OpenAI's API to embed text.
type Provider struct {
	client *openai.Client
	model  string
}

// Config provides configuration options for the OpenAI provider.
type Config struct {
	// APIKey authenticates against the API. Falls back to the
	// OPENAI_API_KEY environment variable when empty.
	APIKey string

	// BaseURL overrides the API endpoint, for OpenAI-compatible servers.
	BaseURL string

	// OrgID is the optional organization identifier.
	OrgID string

	// Model is the embedding model name; defaults to DefaultModel.
	Model string
}

// New creates a text embedding provider for OpenAI.
func New(config Config) (*Provider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("OpenAI API key is required")
		}
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}

	client := openai.NewClient(opts...)
	return &Provider{client: &client, model: model}, nil
}

// EmbedText sends the embedding request to OpenAI.
func (p *Provider) EmbedText(ctx context.Context, text string) (types.EmbeddingVector, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	if len(resp.Data) == 0 {
		return nil, &types.ProviderError{Provider: "openai", Message: "no embedding returned"}
	}
	return resp.Data[0].Embedding, nil
}

// Close frees resources held by the provider (no-op for OpenAI).
func (p *Provider) Close() {}

func wrapErr(err error) error {
	perr := &types.ProviderError{Provider: "openai", Message: err.Error(), Err: err}
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		perr.StatusCode = apierr.StatusCode
	}
	return perr
}
