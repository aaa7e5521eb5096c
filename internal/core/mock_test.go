package core

import (
	"context"
	"sync"

	"github.com/agenthands/leafcheck/internal/core/model"
)

// MockClient answers every call with Respond, or Response/Err when Respond is
// nil. Block makes calls wait for context cancellation.
type MockClient struct {
	Response string
	Err      error
	Respond  func(prompt string) (string, error)
	Block    bool

	mu      sync.Mutex
	Prompts []string
	Closed  bool
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.Respond != nil {
		return m.Respond(prompt)
	}
	return m.Response, m.Err
}

func (m *MockClient) GenerateWithImage(ctx context.Context, prompt string, image model.Image) (string, error) {
	return m.Generate(ctx, prompt)
}

func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

type MockObserver struct {
	mu             sync.Mutex
	Sizes          []int
	Arbitrations   int
	ProducerErrors []string
}

func (o *MockObserver) ObserveConflicts(size int, arbitrated bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Sizes = append(o.Sizes, size)
	if arbitrated {
		o.Arbitrations++
	}
}

func (o *MockObserver) ObserveProducerError(producer string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ProducerErrors = append(o.ProducerErrors, producer)
}
