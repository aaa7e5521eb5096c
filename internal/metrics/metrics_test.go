package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/leafcheck/internal/core/model"
)

type MockClient struct {
	Err error
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "Crop: Wheat, Disease: Aphid", nil
}

func (m *MockClient) GenerateWithImage(ctx context.Context, prompt string, image model.Image) (string, error) {
	return m.Generate(ctx, prompt)
}

func (m *MockClient) Close() error { return nil }

func TestObservers(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("ok", 3*time.Second)
	m.ObserveRequest("upstream_error", time.Second)
	m.ObserveRequest("ok", time.Second)
	m.ObserveConflicts(1, false)
	m.ObserveConflicts(3, true)
	m.ObserveProducerError("deepseek")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("upstream_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.arbitrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.producerErrors.WithLabelValues("deepseek")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.conflictSize))
}

func TestInstrumentClient(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ok := m.InstrumentClient("gemini-pro", &MockClient{})
	bad := m.InstrumentClient("qwen", &MockClient{Err: errors.New("429")})

	_, err := ok.GenerateWithImage(context.Background(), "identify", model.Image{})
	require.NoError(t, err)
	_, err = ok.Generate(context.Background(), "identify")
	require.NoError(t, err)
	_, err = bad.Generate(context.Background(), "identify")
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("gemini-pro", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("qwen", "error")))
	assert.NoError(t, ok.Close())
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
