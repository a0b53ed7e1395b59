package repository

import (
	"context"
	"fmt"
	"time"

	"portcall-service/internal/domain/repository"
	"portcall-service/internal/infrastructure/oauth"
	"portcall-service/pkg/logger"
)

// PerplexityRepository answers research questions with an online search model
type PerplexityRepository struct {
	apiKey string
	model  string
	chat   *chatCompletionClient
}

// NewPerplexityRepository creates a new Perplexity research repository
func NewPerplexityRepository(apiKey, baseURL, model string, timeout time.Duration, logger logger.Logger) repository.ResearchRepository {
	client := oauth.NewBearerClient(context.Background(), apiKey, timeout)
	return &PerplexityRepository{
		apiKey: apiKey,
		model:  model,
		chat:   newChatCompletionClient("perplexity", baseURL, client, logger),
	}
}

// Ask sends a single user message and returns the answer text
func (r *PerplexityRepository) Ask(ctx context.Context, prompt string) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("perplexity: %w", repository.ErrMissingCredential)
	}

	return r.chat.complete(ctx, chatCompletionRequest{
		Model:    r.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
}
