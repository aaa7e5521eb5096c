package consensus

import (
	"context"
	"strings"

	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/core/prompt"
	"github.com/agenthands/leafcheck/internal/llm"
)

const ArbiterRole = "arbiter"

// Arbiter re-reads the image with the conflicting opinions as hints. It must
// share the client of the most accurate visual producer.
type Arbiter struct {
	Client     llm.VisionClient
	Prompt     *prompt.Template
	Vocabulary prompt.Vocabulary
}

func NewArbiter(client llm.VisionClient, tmpl *prompt.Template, vocab prompt.Vocabulary) *Arbiter {
	return &Arbiter{
		Client:     client,
		Prompt:     tmpl,
		Vocabulary: vocab,
	}
}

// Arbitrate returns the arbiter's raw answer. Only call it with a real conflict.
func (a *Arbiter) Arbitrate(ctx context.Context, image model.Image, set model.ConflictSet) (string, error) {
	if set.Unanimous() {
		return "", model.ErrNoConflict
	}

	text, err := a.Prompt.Render(prompt.Data{Vocabulary: a.Vocabulary, Opinions: set.Texts()})
	if err != nil {
		return "", err
	}

	response, err := a.Client.GenerateWithImage(ctx, text, image)
	if err != nil {
		return "", &model.UpstreamError{Role: ArbiterRole, Err: err}
	}
	return strings.TrimSpace(response), nil
}
