// Package core runs the diagnosis workflow for one image: describe, collect
// opinions, aggregate, arbitrate when they disagree, normalize and enrich.
package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/leafcheck/internal/core/advise"
	"github.com/agenthands/leafcheck/internal/core/consensus"
	"github.com/agenthands/leafcheck/internal/core/describe"
	"github.com/agenthands/leafcheck/internal/core/evidence"
	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/core/normalize"
)

// Deps are the collaborators of a Diagnoser. Advisor is optional.
type Deps struct {
	Describer *describe.Describer
	Fast      *evidence.VisualProducer
	Accurate  *evidence.VisualProducer
	Text      []*evidence.TextProducer
	Arbiter   *consensus.Arbiter
	Advisor   *advise.Advisor
	Policy    consensus.Policy
}

// Observer receives workflow events; the server plugs metrics in here.
type Observer interface {
	ObserveConflicts(size int, arbitrated bool)
	ObserveProducerError(producer string)
}

type nopObserver struct{}

func (nopObserver) ObserveConflicts(int, bool) {}
func (nopObserver) ObserveProducerError(string) {}

type Option func(*Diagnoser)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Diagnoser) { d.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(d *Diagnoser) { d.observer = o }
}

type Diagnoser struct {
	deps     Deps
	logger   *zap.Logger
	observer Observer
}

func NewDiagnoser(deps Deps, opts ...Option) *Diagnoser {
	d := &Diagnoser{
		deps:     deps,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Diagnoser) validate() error {
	var errs []error
	if d.deps.Describer == nil {
		errs = append(errs, errors.New("describer is required"))
	}
	if d.deps.Fast == nil || d.deps.Accurate == nil {
		errs = append(errs, errors.New("fast and accurate producers are required"))
	}
	if d.deps.Arbiter == nil {
		errs = append(errs, errors.New("arbiter is required"))
	}
	return errors.Join(errs...)
}

// Analyze diagnoses one image. Any failure other than a text producer's
// fails the whole request and no partial record is returned.
func (d *Diagnoser) Analyze(ctx context.Context, image model.Image) (*model.Diagnosis, error) {
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("diagnoser not configured: %w", err)
	}

	var (
		fast, accurate model.Opinion
		description    string
		texts          []evidence.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		op, err := d.deps.Fast.Predict(gctx, image)
		fast = op
		return err
	})
	g.Go(func() error {
		op, err := d.deps.Accurate.Predict(gctx, image)
		accurate = op
		return err
	})
	g.Go(func() error {
		desc, err := d.deps.Describer.Describe(gctx, image)
		if err != nil {
			return err
		}
		description = desc
		texts = evidence.PredictAll(gctx, d.deps.Text, desc)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.logger.Debug("visual opinions",
		zap.String("fast", fast.Text),
		zap.String("accurate", accurate.Text))
	for _, r := range texts {
		if r.Err != nil {
			d.logger.Warn("text producer failed", zap.String("producer", r.Err.Producer), zap.Error(r.Err.Err))
			d.observer.ObserveProducerError(r.Err.Producer)
			continue
		}
		d.logger.Debug("text opinion",
			zap.String("producer", r.Opinion.Source),
			zap.String("text", r.Opinion.Text),
			zap.Stringer("kind", r.Opinion.Kind()))
	}

	others := evidence.Opinions(texts)
	diag := &model.Diagnosis{
		Description: description,
		Opinions:    append([]model.Opinion{fast, accurate}, others...),
		Conflicts:   consensus.Aggregate(fast, accurate, others, d.deps.Policy),
		Final:       fast.Text,
	}

	if !diag.Conflicts.Unanimous() {
		final, err := d.deps.Arbiter.Arbitrate(ctx, image, diag.Conflicts)
		if err != nil {
			return nil, err
		}
		diag.Final = final
		diag.Arbitrated = true
	}
	d.logger.Info("consensus",
		zap.Int("conflicts", len(diag.Conflicts)),
		zap.Bool("arbitrated", diag.Arbitrated),
		zap.String("final", diag.Final))
	d.observer.ObserveConflicts(len(diag.Conflicts), diag.Arbitrated)

	record, err := normalize.Normalize(diag.Final)
	if err != nil {
		return nil, err
	}

	if d.deps.Advisor != nil {
		record, err = d.deps.Advisor.Advise(ctx, image, record)
		if err != nil {
			return nil, err
		}
	}

	diag.Record = record
	return diag, nil
}
