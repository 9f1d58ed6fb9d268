package agent

import "context"

// Chat roles shared by every completion backend. Transcript turns only ever
// carry user and assistant; system text travels in LLMRequest.System.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn handed to a completion backend.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenUsage reports what a completion cost. Backends that don't meter
// leave it zero.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is a provider-neutral completion request. Zero-valued knobs
// mean "backend default": MaxTokens 0 sets no cap, Temperature applies only
// when non-negative, TopP only when non-zero.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMResponse carries the generated text plus whatever usage and stop
// metadata the backend reports.
type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient is the single surface the engine talks to. Bedrock, OpenAI, and
// Gemini implement it directly; the retry and fallback wrappers compose
// around any of them.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
