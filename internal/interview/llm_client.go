package interview

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one message of conversation history, system prompts
// included.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenUsage reports model token consumption for one completion.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is a single completion request. A nil Temperature defers to
// the model's own default.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature *float32
	TopP        float32
}

// TemperaturePtr builds the Temperature field of an LLMRequest.
func TemperaturePtr(v float32) *float32 { return &v }

// LLMResponse is the model's reply.
type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient is the opaque completion capability the core consumes. It is a
// single blocking call bounded by the caller's context deadline; failures
// are explicit errors for the caller to retry or degrade.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
