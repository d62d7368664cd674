package completion

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hovorka-app/hovorka/pkg/core"
	"github.com/hovorka-app/hovorka/pkg/core/types"
)

// GeminiClient completes conversations through the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, systemPrompt string, turns []types.Turn) (string, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		var role genai.Role = genai.RoleUser
		if t.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}

	cfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", core.NewUpstreamError(fmt.Sprintf("gemini completion: %v", err))
	}
	text := resp.Text()
	if text == "" {
		return "", core.NewUpstreamError("gemini completion returned no text")
	}
	return text, nil
}
