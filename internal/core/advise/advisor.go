// Package advise enriches a decided record with likely causes and
// recommendations for the farmer.
package advise

import (
	"context"

	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/core/normalize"
	"github.com/agenthands/leafcheck/internal/core/prompt"
	"github.com/agenthands/leafcheck/internal/llm"
)

const Role = "advisor"

type Advisor struct {
	Client llm.VisionClient
	Prompt *prompt.Template
}

func NewAdvisor(client llm.VisionClient, tmpl *prompt.Template) *Advisor {
	return &Advisor{
		Client: client,
		Prompt: tmpl,
	}
}

// Advise returns a copy of record with causes and recommendations filled in.
// Crop and disease are never taken from the advisor's answer.
func (a *Advisor) Advise(ctx context.Context, image model.Image, record model.Record) (model.Record, error) {
	text, err := a.Prompt.Render(prompt.Data{Crop: record.Crop, Disease: record.Disease})
	if err != nil {
		return record, err
	}

	response, err := a.Client.GenerateWithImage(ctx, text, image)
	if err != nil {
		return record, &model.UpstreamError{Role: Role, Err: err}
	}

	advice, err := normalize.Normalize(response)
	if err != nil {
		return record, err
	}

	record.Causes = advice.Causes
	record.Recommendations = advice.Recommendations
	return record, nil
}
