// Package completion provides the synchronous text-completion clients used by
// the chat path.
package completion

import (
	"context"

	"github.com/hovorka-app/hovorka/pkg/core/types"
)

// Client produces a single assistant reply for a system prompt plus an
// ordered turn history.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, turns []types.Turn) (string, error)
}
