package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/leafcheck/internal/config"
	"github.com/agenthands/leafcheck/internal/core/advise"
	"github.com/agenthands/leafcheck/internal/core/consensus"
	"github.com/agenthands/leafcheck/internal/core/describe"
	"github.com/agenthands/leafcheck/internal/core/evidence"
	"github.com/agenthands/leafcheck/internal/core/prompt"
	"github.com/agenthands/leafcheck/internal/llm"
)

// ClientFactory opens a provider client for one configured role.
type ClientFactory func(ctx context.Context, cfg config.LLMConfig) (llm.Client, error)

// Build wires a Diagnoser from configuration. The returned close function
// releases every client that was opened.
func Build(ctx context.Context, cfg *config.Config, newClient ClientFactory, opts ...Option) (*Diagnoser, func() error, error) {
	if newClient == nil {
		newClient = llm.NewClient
	}

	templates, err := loadTemplates(cfg.Prompts)
	if err != nil {
		return nil, nil, err
	}

	var clients []llm.Client
	closeAll := func() error {
		var errs []error
		for _, c := range clients {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}
	open := func(role config.LLMConfig) (llm.Client, error) {
		c, err := newClient(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", role.Label(), err)
		}
		clients = append(clients, c)
		return c, nil
	}

	describer, err := open(cfg.Describer)
	if err != nil {
		return nil, nil, errors.Join(err, closeAll())
	}
	fast, err := open(cfg.Fast)
	if err != nil {
		return nil, nil, errors.Join(err, closeAll())
	}
	accurate, err := open(cfg.Accurate)
	if err != nil {
		return nil, nil, errors.Join(err, closeAll())
	}

	vocab := prompt.Vocabulary{Crops: cfg.Labels.Crops, Diseases: cfg.Labels.Diseases}

	var texts []*evidence.TextProducer
	for _, tc := range cfg.Text {
		if tc.System == "" {
			tc.System = prompt.System
		}
		c, err := open(tc)
		if err != nil {
			return nil, nil, errors.Join(err, closeAll())
		}
		texts = append(texts, evidence.NewTextProducer(tc.Label(), c, templates[prompt.TextIdentify], vocab))
	}

	deps := Deps{
		Describer: describe.NewDescriber(describer, templates[prompt.Describe]),
		Fast:      evidence.NewVisualProducer(cfg.Fast.Label(), fast, templates[prompt.Identify], vocab),
		Accurate:  evidence.NewVisualProducer(cfg.Accurate.Label(), accurate, templates[prompt.Identify], vocab),
		Text:      texts,
		// The arbiter and advisor always reuse the most accurate model.
		Arbiter: consensus.NewArbiter(accurate, templates[prompt.Verify], vocab),
		Policy: consensus.Policy{
			MaxHintLength:   cfg.Consensus.MaxHintLength,
			RejectMalformed: cfg.Consensus.RejectMalformed,
		},
	}
	if cfg.Enrichment.Enabled {
		deps.Advisor = advise.NewAdvisor(accurate, templates[prompt.Advise])
	}

	return NewDiagnoser(deps, opts...), closeAll, nil
}

func loadTemplates(p config.Prompts) (map[string]*prompt.Template, error) {
	texts := map[string]string{
		prompt.Describe:     p.Describe,
		prompt.Identify:     p.Identify,
		prompt.TextIdentify: p.TextIdentify,
		prompt.Verify:       p.Verify,
		prompt.Advise:       p.Advise,
	}

	out := make(map[string]*prompt.Template, len(texts))
	for name, text := range texts {
		t, err := prompt.New(name, text)
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}
