// Package evidence implements the label producers: visual classifiers that
// look at the image and text classifiers that only read its description.
package evidence

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/core/prompt"
	"github.com/agenthands/leafcheck/internal/llm"
)

type VisualProducer struct {
	Name       string
	Client     llm.VisionClient
	Prompt     *prompt.Template
	Vocabulary prompt.Vocabulary
}

func NewVisualProducer(name string, client llm.VisionClient, tmpl *prompt.Template, vocab prompt.Vocabulary) *VisualProducer {
	return &VisualProducer{
		Name:       name,
		Client:     client,
		Prompt:     tmpl,
		Vocabulary: vocab,
	}
}

// Predict asks the model for a label. Failures are not absorbed here.
func (p *VisualProducer) Predict(ctx context.Context, image model.Image) (model.Opinion, error) {
	text, err := p.Prompt.Render(prompt.Data{Vocabulary: p.Vocabulary})
	if err != nil {
		return model.Opinion{}, err
	}

	response, err := p.Client.GenerateWithImage(ctx, text, image)
	if err != nil {
		return model.Opinion{}, &model.UpstreamError{Role: p.Name, Err: err}
	}

	return model.Opinion{Source: p.Name, Text: strings.TrimSpace(response)}, nil
}

type TextProducer struct {
	Name       string
	Client     llm.LLMClient
	Prompt     *prompt.Template
	Vocabulary prompt.Vocabulary
}

func NewTextProducer(name string, client llm.LLMClient, tmpl *prompt.Template, vocab prompt.Vocabulary) *TextProducer {
	return &TextProducer{
		Name:       name,
		Client:     client,
		Prompt:     tmpl,
		Vocabulary: vocab,
	}
}

// Predict never fails: a broken call becomes an "Error: ..." opinion and the
// cause is returned alongside for logging.
func (p *TextProducer) Predict(ctx context.Context, description string) (model.Opinion, *model.ProducerError) {
	text, err := p.Prompt.Render(prompt.Data{Vocabulary: p.Vocabulary, Description: description})
	if err == nil {
		var response string
		response, err = p.Client.Generate(ctx, text)
		if err == nil {
			return model.Opinion{Source: p.Name, Text: strings.TrimSpace(response)}, nil
		}
	}

	perr := &model.ProducerError{Producer: p.Name, Err: err}
	return model.ErrorOpinion(p.Name, err), perr
}

// Result pairs a text producer's opinion with the error it absorbed, if any.
type Result struct {
	Opinion model.Opinion
	Err     *model.ProducerError
}

// PredictAll runs the text producers concurrently. Results keep producer order.
func PredictAll(ctx context.Context, producers []*TextProducer, description string) []Result {
	results := make([]Result, len(producers))

	// A plain Group: one producer failing must not cancel the others.
	var g errgroup.Group
	for i, p := range producers {
		g.Go(func() error {
			op, err := p.Predict(ctx, description)
			results[i] = Result{Opinion: op, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Opinions drops the error side of the results.
func Opinions(results []Result) []model.Opinion {
	out := make([]model.Opinion, len(results))
	for i, r := range results {
		out[i] = r.Opinion
	}
	return out
}
