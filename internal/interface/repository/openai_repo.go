package repository

import (
	"context"
	"fmt"
	"time"

	"portcall-service/internal/domain/repository"
	"portcall-service/internal/infrastructure/oauth"
	"portcall-service/pkg/logger"
)

// OpenAIRepository produces structured JSON documents from a chat model
type OpenAIRepository struct {
	apiKey string
	model  string
	chat   *chatCompletionClient
}

// NewOpenAIRepository creates a new OpenAI synthesis repository
func NewOpenAIRepository(apiKey, baseURL, model string, timeout time.Duration, logger logger.Logger) repository.SynthesisRepository {
	client := oauth.NewBearerClient(context.Background(), apiKey, timeout)
	return &OpenAIRepository{
		apiKey: apiKey,
		model:  model,
		chat:   newChatCompletionClient("openai", baseURL, client, logger),
	}
}

// Complete requests a JSON object response for the given prompts
func (r *OpenAIRepository) Complete(ctx context.Context, req repository.SynthesisRequest) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("openai: %w", repository.ErrMissingCredential)
	}

	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	temperature := req.Temperature
	return r.chat.complete(ctx, chatCompletionRequest{
		Model:          r.model,
		Messages:       messages,
		Temperature:    &temperature,
		ResponseFormat: &chatResponseFormat{Type: "json_object"},
	})
}
