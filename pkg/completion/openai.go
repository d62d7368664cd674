package completion

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/hovorka-app/hovorka/pkg/core"
	"github.com/hovorka-app/hovorka/pkg/core/types"
)

// OpenAIClient completes conversations through the OpenAI chat API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a client. baseURL is the API host without the /v1 suffix;
// empty keeps the SDK default.
func NewOpenAI(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL + "/v1"
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt string, turns []types.Turn) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, t := range turns {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: t.Role, Content: t.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		return "", core.NewUpstreamError(fmt.Sprintf("chat completion: %v", err))
	}
	if len(resp.Choices) == 0 {
		return "", core.NewUpstreamError("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
