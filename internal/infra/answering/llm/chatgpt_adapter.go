package llm

import (
	"context"
	"strings"

	domain "github.com/yanqian/complaint-intake/internal/domain/answering"
	"github.com/yanqian/complaint-intake/internal/infra/llm/chatgpt"
	"github.com/yanqian/complaint-intake/pkg/metrics"
)

// ChatGPTLLM adapts the ChatGPT client to the answering domain.
type ChatGPTLLM struct {
	client      *chatgpt.Client
	model       string
	temperature float32
}

// NewChatGPTLLM constructs the adapter.
func NewChatGPTLLM(client *chatgpt.Client, model string, temperature float32) *ChatGPTLLM {
	return &ChatGPTLLM{client: client, model: model, temperature: temperature}
}

// Chat sends a chat completion request.
func (l *ChatGPTLLM) Chat(ctx context.Context, messages []domain.LLMMessage) (domain.Completion, error) {
	req := chatgpt.ChatCompletionRequest{
		Model:       l.model,
		Temperature: l.temperature,
		Messages:    make([]chatgpt.Message, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, chatgpt.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	resp, err := l.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.Completion{}, err
	}
	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{Usage: usage}, nil
	}
	return domain.Completion{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage:   usage,
	}, nil
}

var _ domain.LLM = (*ChatGPTLLM)(nil)

// EchoLLM returns a lightweight fallback without external calls.
type EchoLLM struct{}

// Chat echoes the final message back.
func (EchoLLM) Chat(_ context.Context, messages []domain.LLMMessage) (domain.Completion, error) {
	if len(messages) == 0 {
		return domain.Completion{}, nil
	}
	return domain.Completion{Content: "Answer: " + messages[len(messages)-1].Content}, nil
}

var _ domain.LLM = EchoLLM{}
