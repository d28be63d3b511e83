package googleai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Client generates persona text through the Gemini API.
type Client struct {
	genaiClient *genai.Client
	model       string
	config      *genai.GenerateContentConfig
}

// NewClient creates a Gemini-backed Client. Unlike the HTTP integrations the
// genai SDK takes its key at construction, so the caller resolves it first.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("googleai: api key must not be empty")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("googleai: model must not be empty")
	}

	g, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("googleai: create client: %w", err)
	}

	return &Client{
		genaiClient: g,
		model:       model,
		config: &genai.GenerateContentConfig{
			MaxOutputTokens: 2048,
		},
	}, nil
}

// Generate sends the prompt as user content and returns the response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.genaiClient.Models.GenerateContent(
		ctx,
		c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		c.config,
	)
	if err != nil {
		return "", fmt.Errorf("googleai: generate content: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("googleai: empty response text")
	}
	return text, nil
}
