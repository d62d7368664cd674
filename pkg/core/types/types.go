package types

// Conversation roles. Order of a []Turn slice is chronological and is
// preserved end to end.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is a single conversation message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionRequest asks for an ephemeral realtime session for one scenario.
type SessionRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ChatRequest carries the full turn history for a synchronous text reply.
type ChatRequest struct {
	ScenarioID string `json:"scenario_id"`
	UserID     string `json:"user_id"`
	Messages   []Turn `json:"messages"`
}

// SaveTranscriptRequest persists a finished voice-session conversation.
type SaveTranscriptRequest struct {
	ScenarioID string `json:"scenario_id"`
	UserID     string `json:"user_id"`
	Messages   []Turn `json:"messages"`
}

// ChatResponse is the synchronous chat reply envelope.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// AckResponse acknowledges a write-style request.
type AckResponse struct {
	OK bool `json:"ok"`
}
