package completion

import (
	"context"
	"fmt"

	"github.com/hovorka-app/hovorka/pkg/gateway/config"
)

// New builds the completion client selected by configuration.
func New(ctx context.Context, cfg config.Config) (Client, error) {
	switch cfg.CompletionProvider {
	case config.CompletionOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.CompletionModel), nil
	case config.CompletionGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.CompletionModel)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}
