package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Client is the part of openai.Client the assistant uses.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}
