package repository

import (
	"context"
	"errors"
)

// ErrMissingCredential is returned when a backend API key is not configured
var ErrMissingCredential = errors.New("api key is missing")

// ResearchRepository defines the web research backend used by producers
type ResearchRepository interface {
	// Ask submits one question and returns the textual answer
	Ask(ctx context.Context, prompt string) (string, error)
}

// SynthesisRequest is one structured synthesis call
type SynthesisRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
}

// SynthesisRepository defines the language model used to merge findings
type SynthesisRepository interface {
	// Complete returns the raw JSON object produced by the model
	Complete(ctx context.Context, req SynthesisRequest) (string, error)
}
