package extract

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/alexey192/calendarit/internal/errors"
)

// extractionTemperature keeps the service deterministic-leaning; the
// output is schema-validated regardless.
const extractionTemperature = 0.2

// ChatClient is the structured-extraction service boundary. The response
// is free text expected to contain a single JSON object, possibly wrapped
// in a markdown code fence; it is treated as untrusted either way.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// openAIChat implements ChatClient against the OpenAI chat-completions API
type openAIChat struct {
	client *openai.Client
	model  string
}

// NewOpenAIChat creates a ChatClient backed by OpenAI
func NewOpenAIChat(apiKey, model string) ChatClient {
	return &openAIChat{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *openAIChat) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: extractionTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrExtractionUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", apperrors.ErrExtractionUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
