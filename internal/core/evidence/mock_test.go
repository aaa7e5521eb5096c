package evidence

import (
	"context"
	"sync"

	"github.com/agenthands/leafcheck/internal/core/model"
)

type MockLLMClient struct {
	Response string
	Err      error

	mu      sync.Mutex
	Prompts []string
	Images  []model.Image
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockLLMClient) GenerateWithImage(ctx context.Context, prompt string, image model.Image) (string, error) {
	m.mu.Lock()
	m.Images = append(m.Images, image)
	m.mu.Unlock()
	return m.Generate(ctx, prompt)
}
