// Package anthropic implements an image tagger on Claude's vision API.
// Pair it with a text embedding provider via providers.NewTaggedImageProvider
// to obtain an image feature provider.
package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/botirk38/docsim/types"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-3-5-haiku-latest"

const tagPrompt = "List the main objects, scene and style visible in this image as a short comma-separated sequence of lowercase tags. Respond with the tags only."

// Tagger describes images via Claude.
type Tagger struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// Config provides configuration options for the Claude tagger.
type Config struct {
	// APIKey authenticates against the API. Falls back to the
	// ANTHROPIC_API_KEY environment variable when empty.
	APIKey string

	// Model is the vision-capable model; defaults to DefaultModel.
	Model string

	// MaxTokens caps the tag response length; defaults to 256.
	MaxTokens int64
}

// New creates an image tagger backed by Claude.
func New(config Config) (*Tagger, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, errors.New("Anthropic API key is required")
		}
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 256
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Tagger{client: &client, model: model, maxTokens: maxTokens}, nil
}

// TagImage sends the image to Claude and returns the tag text.
func (t *Tagger) TagImage(ctx context.Context, img types.Image) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(img.Data)

	msg, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(t.model),
		MaxTokens: t.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(img.MIMEType, encoded),
				anthropic.NewTextBlock(tagPrompt),
			),
		},
	})
	if err != nil {
		return "", wrapErr(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	tags := strings.TrimSpace(sb.String())
	if tags == "" {
		return "", &types.ProviderError{Provider: "anthropic", Message: "empty tag response"}
	}
	return tags, nil
}

// Close frees resources held by the tagger (no-op for Anthropic).
func (t *Tagger) Close() {}

func wrapErr(err error) error {
	perr := &types.ProviderError{Provider: "anthropic", Message: err.Error(), Err: err}
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		perr.StatusCode = apierr.StatusCode
	}
	return perr
}
