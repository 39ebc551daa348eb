package campaign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"creative-automation/internal/assetstore"
	"creative-automation/internal/compliance"
	"creative-automation/internal/generate"
	"creative-automation/internal/provider"
	"creative-automation/internal/region"
	"creative-automation/internal/variant"
)

const defaultMaxConcurrent = 4

// ErrBudgetExceeded marks assets that were not finished before the campaign
// time budget ran out.
var ErrBudgetExceeded = errors.New("campaign time budget exceeded")

type Localizer interface {
	Localize(ctx context.Context, message string, lang language.Tag, culture string) (string, bool)
}

type Generator interface {
	Generate(ctx context.Context, req generate.Request) ([]byte, []generate.Attempt, error)
}

type Compositor interface {
	Composite(raw []byte, v variant.Variant, message, label string) ([]byte, error)
}

type AssetStore interface {
	Store(ctx context.Context, key assetstore.Key, data []byte) (string, error)
}

type Options struct {
	Resolver   *region.Resolver
	Localizer  Localizer
	Generator  Generator
	Compositor Compositor
	Store      AssetStore
	Gate       compliance.Gate

	MaxConcurrent int
	// Budget bounds the generation phase of one run. Units still pending when
	// it expires are recorded as failed; the campaign is still returned.
	Budget        time.Duration
	Now           func() time.Time
	NewID         func() (string, error)
	Tracer        trace.Tracer
	Logger        *slog.Logger
}

type progressKey struct{}

// WithProgress returns a context that makes Run call fn once per finished
// asset. fn may be called from several goroutines at once.
func WithProgress(ctx context.Context, fn func(AssetResult)) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// ProgressFrom returns the callback installed by WithProgress, or nil.
func ProgressFrom(ctx context.Context) func(AssetResult) {
	fn, _ := ctx.Value(progressKey{}).(func(AssetResult))
	return fn
}

// Orchestrator holds only read-only collaborators; one instance serves any
// number of concurrent runs.
type Orchestrator struct {
	resolver   *region.Resolver
	localizer  Localizer
	generator  Generator
	compositor Compositor
	store      AssetStore
	gate       compliance.Gate

	maxConcurrent int
	budget        time.Duration
	now           func() time.Time
	newID         func() (string, error)
	tracer        trace.Tracer
	logger        *slog.Logger
}

func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Resolver == nil:
		return nil, errors.New("campaign: resolver is required")
	case opts.Localizer == nil:
		return nil, errors.New("campaign: localizer is required")
	case opts.Generator == nil:
		return nil, errors.New("campaign: generator is required")
	case opts.Compositor == nil:
		return nil, errors.New("campaign: compositor is required")
	case opts.Store == nil:
		return nil, errors.New("campaign: asset store is required")
	case opts.Gate == nil:
		return nil, errors.New("campaign: compliance gate is required")
	}

	o := &Orchestrator{
		resolver:      opts.Resolver,
		localizer:     opts.Localizer,
		generator:     opts.Generator,
		compositor:    opts.Compositor,
		store:         opts.Store,
		gate:          opts.Gate,
		maxConcurrent: opts.MaxConcurrent,
		budget:        opts.Budget,
		now:           opts.Now,
		newID:         opts.NewID,
		tracer:        opts.Tracer,
		logger:        opts.Logger,
	}
	if o.maxConcurrent <= 0 {
		o.maxConcurrent = defaultMaxConcurrent
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = newUUID
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("creative-automation/internal/campaign")
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o, nil
}

func newUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Run produces one campaign for brief. Per-asset failures are recorded in the
// result, including those cut short by the time budget; only an invalid brief,
// an ID failure or cancellation of ctx make Run return an error.
func (o *Orchestrator) Run(ctx context.Context, brief Brief) (*Campaign, error) {
	brief, err := brief.Validate()
	if err != nil {
		return nil, err
	}
	id, err := o.newID()
	if err != nil {
		return nil, fmt.Errorf("campaign id: %w", err)
	}

	ctx, span := o.tracer.Start(ctx, "campaign.run", trace.WithAttributes(
		attribute.String("campaign.id", id),
		attribute.String("campaign.region", brief.Region),
		attribute.Int("campaign.products", len(brief.Products)),
	))
	defer span.End()

	c := &Campaign{ID: id, Brief: brief, CreatedAt: o.now().UTC()}
	log := o.logger.With("campaign_id", id)
	started := time.Now()

	res := o.resolver.Resolve(brief.Region)
	culture := o.resolver.CulturalContext(brief.Region)
	label := o.resolver.Label(brief.Region)
	c.Language = res.Language.String()
	c.RegionMatched = res.Matched
	if !res.Matched && brief.Region != "" {
		log.Info("region not recognized, using default language", "region", brief.Region, "language", c.Language)
	}

	c.LocalizedMessage, c.TranslationFallback = o.localizer.Localize(ctx, brief.Message, res.Language, culture)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	variants := variant.All()
	tokens := assetstore.UniqueTokens(brief.Products)
	c.Assets = make([]AssetResult, len(brief.Products)*len(variants))

	unitCtx, cancelUnits := ctx, context.CancelFunc(func() {})
	if o.budget > 0 {
		unitCtx, cancelUnits = context.WithTimeout(ctx, o.budget)
	}
	defer cancelUnits()

	progress := ProgressFrom(ctx)
	g, gctx := errgroup.WithContext(unitCtx)
	g.SetLimit(o.maxConcurrent)
	for i, product := range brief.Products {
		for j, v := range variants {
			idx := i*len(variants) + j
			u := unit{
				campaign: c,
				product:  product,
				token:    tokens[i],
				variant:  v,
				culture:  culture,
				label:    label,
			}
			g.Go(func() error {
				c.Assets[idx] = o.runUnit(ctx, gctx, u, log)
				if progress != nil {
					progress(c.Assets[idx])
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "canceled")
		return nil, err
	}
	if unitCtx.Err() != nil {
		log.Warn("campaign time budget exceeded", "budget", o.budget.String(), "failed", len(c.Assets)-len(c.Produced()))
	}

	produced := c.Produced()
	checked := make([]compliance.Asset, 0, len(produced))
	for _, a := range produced {
		checked = append(checked, compliance.Asset{Product: a.Product, Variant: a.Variant, Path: a.Path})
	}
	c.Compliance, err = o.gate.Validate(ctx, checked, c.LocalizedMessage)
	if err != nil {
		log.Warn("compliance gate failed", "err", err)
		c.Compliance = compliance.Unavailable(err)
	}

	span.SetAttributes(
		attribute.Int("campaign.assets.produced", len(produced)),
		attribute.String("campaign.compliance", string(c.Compliance.Status)),
	)
	log.Info("campaign finished",
		"language", c.Language,
		"translation_fallback", c.TranslationFallback,
		"produced", len(produced),
		"total", len(c.Assets),
		"compliance", c.Compliance.Status,
		"duration", time.Since(started).String(),
	)
	return c, nil
}

type unit struct {
	campaign *Campaign
	product  string
	token    string
	variant  variant.Variant
	culture  string
	label    string
}

// runUnit generates under genCtx, which carries the time budget, and stores
// under ctx so a finished image is not lost to the budget.
func (o *Orchestrator) runUnit(ctx, genCtx context.Context, u unit, log *slog.Logger) AssetResult {
	genCtx, span := o.tracer.Start(genCtx, "campaign.asset", trace.WithAttributes(
		attribute.String("asset.product", u.product),
		attribute.String("asset.variant", u.variant.Ratio()),
	))
	defer span.End()

	r := AssetResult{Product: u.product, Variant: u.variant, Status: StatusFailed}
	fail := func(err error) AssetResult {
		r.Error = err.Error()
		span.SetStatus(codes.Error, r.Error)
		log.Warn("asset failed", "product", u.product, "variant", u.variant.String(), "err", err)
		return r
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if genCtx.Err() != nil {
		r.Attempts = []Attempt{{Kind: provider.KindTimeout, Err: ErrBudgetExceeded.Error()}}
		return fail(ErrBudgetExceeded)
	}

	raw, attempts, err := o.generator.Generate(genCtx, generate.Request{
		Product:  u.product,
		Audience: u.campaign.Brief.Audience,
		Message:  u.campaign.LocalizedMessage,
		Region:   u.campaign.Brief.Region,
		Culture:  u.culture,
		Variant:  u.variant,
	})
	r.Attempts = attempts
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) && genCtx.Err() != nil {
			err = fmt.Errorf("%w: %w", ErrBudgetExceeded, err)
		}
		return fail(err)
	}

	img, err := o.compositor.Composite(raw, u.variant, u.campaign.LocalizedMessage, u.label)
	if err != nil {
		return fail(err)
	}
	r.Composited = true

	path, err := o.store.Store(ctx, assetstore.Key{
		CampaignID: u.campaign.ID,
		CreatedAt:  u.campaign.CreatedAt,
		Product:    u.token,
		Variant:    u.variant,
	}, img)
	if err != nil {
		return fail(err)
	}

	r.Status = StatusProduced
	r.Path = path
	return r
}
