package agent

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openAIChatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAILLMClient adapts the OpenAI chat completion API to LLMClient. It
// serves as the fallback backend when Bedrock is unavailable.
type OpenAILLMClient struct {
	api   openAIChatAPI
	model string
}

func NewOpenAILLMClient(api openAIChatAPI, model string) *OpenAILLMClient {
	if api == nil {
		panic("agent: openai client cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = openai.GPT4oMini
	}
	return &OpenAILLMClient{api: api, model: model}
}

func (c *OpenAILLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: block,
		})
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case ChatRoleSystem:
			role = openai.ChatMessageRoleSystem
		case ChatRoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: content,
		})
	}

	request := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		request.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature >= 0 {
		request.Temperature = req.Temperature
	}
	if req.TopP != 0 {
		request.TopP = req.TopP
	}

	resp, err := c.api.CreateChatCompletion(ctx, request)
	if err != nil {
		return LLMResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, errors.New("agent: openai returned no choices")
	}

	return LLMResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		StopReason: string(resp.Choices[0].FinishReason),
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}, nil
}
