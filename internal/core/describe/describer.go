package describe

import (
	"context"
	"errors"
	"strings"

	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/core/prompt"
	"github.com/agenthands/leafcheck/internal/llm"
)

const Role = "describer"

// Describer turns the image into plain observations for the text producers.
type Describer struct {
	Client llm.VisionClient
	Prompt *prompt.Template
}

func NewDescriber(client llm.VisionClient, tmpl *prompt.Template) *Describer {
	return &Describer{
		Client: client,
		Prompt: tmpl,
	}
}

func (d *Describer) Describe(ctx context.Context, image model.Image) (string, error) {
	text, err := d.Prompt.Render(prompt.Data{})
	if err != nil {
		return "", err
	}

	response, err := d.Client.GenerateWithImage(ctx, text, image)
	if err != nil {
		return "", &model.UpstreamError{Role: Role, Err: err}
	}

	description := strings.TrimSpace(response)
	if description == "" {
		return "", &model.UpstreamError{Role: Role, Err: errors.New("empty description")}
	}
	return description, nil
}
