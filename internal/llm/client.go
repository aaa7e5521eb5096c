package llm

import (
	"context"

	"github.com/agenthands/leafcheck/internal/core/model"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type VisionClient interface {
	GenerateWithImage(ctx context.Context, prompt string, image model.Image) (string, error)
}

// Client is what every provider adapter implements.
type Client interface {
	LLMClient
	VisionClient
	Close() error
}
