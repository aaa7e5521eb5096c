package advise

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/core/prompt"
)

type MockVisionClient struct {
	Response string
	Err      error
	Prompt   string
}

func (m *MockVisionClient) GenerateWithImage(ctx context.Context, prompt string, image model.Image) (string, error) {
	m.Prompt = prompt
	return m.Response, m.Err
}

var (
	leaf   = model.Image{Data: []byte("jpg"), MIMEType: "image/jpeg"}
	record = model.Record{Crop: "Potato", Disease: "Late Blight"}
)

func TestAdvise(t *testing.T) {
	mock := &MockVisionClient{Response: "```json\n" + `{"crop": "Tomato", "disease": "Late Blight",
"causes": ["Phytophthora infestans", "cool wet weather"],
"recommendations": ["Remove infected foliage", "Apply a protectant fungicide"]}` + "\n```"}
	a := NewAdvisor(mock, prompt.MustDefault(prompt.Advise))

	got, err := a.Advise(context.Background(), leaf, record)

	require.NoError(t, err)
	assert.Equal(t, "Potato", got.Crop)
	assert.Equal(t, "Late Blight", got.Disease)
	assert.Equal(t, []string{"Phytophthora infestans", "cool wet weather"}, got.Causes)
	assert.Len(t, got.Recommendations, 2)
	assert.True(t, got.Enriched())
	assert.Contains(t, mock.Prompt, "Crop: Potato, Disease: Late Blight")
}

func TestAdvise_Failures(t *testing.T) {
	a := NewAdvisor(&MockVisionClient{Err: errors.New("quota")}, prompt.MustDefault(prompt.Advise))
	got, err := a.Advise(context.Background(), leaf, record)
	assert.ErrorIs(t, err, model.ErrUpstream)
	assert.Equal(t, record, got)

	a = NewAdvisor(&MockVisionClient{Response: "I cannot help with that."}, prompt.MustDefault(prompt.Advise))
	_, err = a.Advise(context.Background(), leaf, record)
	assert.ErrorIs(t, err, model.ErrParse)
}
