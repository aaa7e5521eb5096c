package consensus

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/core/prompt"
)

const (
	aphid   = "Crop: Wheat, Disease: Aphid"
	healthy = "Crop: Wheat, Disease: Healthy"
	rust    = "Crop: Wheat, Disease: Brown Rust"
)

// aggregateTexts runs Aggregate over bare strings with the default policy.
func aggregateTexts(primary, secondary string, others ...string) []string {
	ops := make([]model.Opinion, len(others))
	for i, o := range others {
		ops[i] = model.Opinion{Text: o}
	}
	return Aggregate(model.Opinion{Text: primary}, model.Opinion{Text: secondary}, ops, DefaultPolicy()).Texts()
}

func TestAggregate_TwoOpinions(t *testing.T) {
	assert.Equal(t, []string{aphid}, aggregateTexts(aphid, aphid))
	assert.Equal(t, []string{aphid, healthy}, aggregateTexts(aphid, healthy))
}

func TestAggregate_Others(t *testing.T) {
	long := strings.Repeat("x", 51)
	edge := strings.Repeat("y", 50)

	assert.Equal(t, []string{aphid}, aggregateTexts(aphid, aphid, aphid))
	assert.Equal(t, []string{aphid, rust}, aggregateTexts(aphid, aphid, rust))
	assert.Equal(t, []string{aphid}, aggregateTexts(aphid, aphid, long))
	assert.Equal(t, []string{aphid, edge}, aggregateTexts(aphid, aphid, edge))
}

func TestAggregate_LengthCountsCharacters(t *testing.T) {
	// 47 characters, 52 bytes.
	umlauts := "Crop: Weizen, Disease: Blattdürre / Mehltäu äöü"
	// 51 characters.
	over := umlauts + "ßxxx"

	assert.Equal(t, []string{aphid, umlauts}, aggregateTexts(aphid, aphid, umlauts))
	assert.Equal(t, []string{aphid}, aggregateTexts(aphid, aphid, over))
}

func TestAggregate_KeepsDuplicatesAmongOthers(t *testing.T) {
	got := aggregateTexts(aphid, healthy, rust, rust, healthy)

	assert.Equal(t, []string{aphid, healthy, rust, rust, healthy}, got)
}

func TestAggregate_RawStringComparison(t *testing.T) {
	got := aggregateTexts(aphid, "crop: wheat, disease: aphid", aphid+" ")

	assert.Len(t, got, 3)
}

func TestAggregate_SecondaryIgnoresLengthFilter(t *testing.T) {
	verbose := "The crop appears to be Wheat and the disease looks like Aphid infestation."

	assert.Equal(t, []string{aphid, verbose}, aggregateTexts(aphid, verbose))
}

func TestAggregate_ErrorMarkersAreFilteredByLength(t *testing.T) {
	marker := model.ErrorOpinion("deepseek", errors.New("error, status code: 429, status: 429 Too Many Requests, message: rate limited"))
	short := model.Opinion{Source: "qwen", Text: healthy}

	set := Aggregate(model.Opinion{Source: "flash", Text: aphid}, model.Opinion{Source: "pro", Text: aphid},
		[]model.Opinion{marker, short}, DefaultPolicy())

	assert.Equal(t, model.ConflictSet{{Source: "flash", Text: aphid}, short}, set)
}

func TestAggregate_RejectMalformed(t *testing.T) {
	policy := Policy{MaxHintLength: 50, RejectMalformed: true}
	others := []model.Opinion{{Text: "Wheat with aphids"}, {Text: "Error: boom"}, {Text: rust}}

	set := Aggregate(model.Opinion{Text: aphid}, model.Opinion{Text: aphid}, others, policy)

	assert.Equal(t, []string{aphid, rust}, set.Texts())
}

type MockVisionClient struct {
	Response string
	Err      error
	Prompt   string
	Calls    int
}

func (m *MockVisionClient) GenerateWithImage(ctx context.Context, prompt string, image model.Image) (string, error) {
	m.Calls++
	m.Prompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

var (
	vocab = prompt.Vocabulary{Crops: []string{"Wheat"}, Diseases: []string{"Aphid", "Healthy"}}
	leaf  = model.Image{Data: []byte("png"), MIMEType: "image/png"}
)

func TestArbitrate(t *testing.T) {
	mock := &MockVisionClient{Response: " Crop: Wheat, Disease: Healthy \n"}
	a := NewArbiter(mock, prompt.MustDefault(prompt.Verify), vocab)

	out, err := a.Arbitrate(context.Background(), leaf, model.ConflictSet{{Text: aphid}, {Text: healthy}})

	require.NoError(t, err)
	assert.Equal(t, healthy, out)
	assert.Contains(t, mock.Prompt, "- "+aphid+"\n- "+healthy)
	assert.Contains(t, mock.Prompt, "main source of truth")
}

func TestArbitrate_RequiresConflict(t *testing.T) {
	mock := &MockVisionClient{}
	a := NewArbiter(mock, prompt.MustDefault(prompt.Verify), vocab)

	_, err := a.Arbitrate(context.Background(), leaf, model.ConflictSet{{Text: aphid}})

	assert.ErrorIs(t, err, model.ErrNoConflict)
	assert.Zero(t, mock.Calls)
}

func TestArbitrate_Failure(t *testing.T) {
	a := NewArbiter(&MockVisionClient{Err: errors.New("500")}, prompt.MustDefault(prompt.Verify), vocab)

	_, err := a.Arbitrate(context.Background(), leaf, model.ConflictSet{{Text: aphid}, {Text: healthy}})

	assert.ErrorIs(t, err, model.ErrUpstream)
}
