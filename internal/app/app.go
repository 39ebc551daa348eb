// Package app assembles the campaign pipeline from configuration. The web
// server, the bot and the CLI all run campaigns through an App.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"creative-automation/internal/analytics"
	"creative-automation/internal/assetstore"
	"creative-automation/internal/campaign"
	"creative-automation/internal/compliance"
	"creative-automation/internal/compositor"
	"creative-automation/internal/config"
	"creative-automation/internal/dispatch"
	"creative-automation/internal/gemini"
	"creative-automation/internal/generate"
	"creative-automation/internal/httpclient"
	"creative-automation/internal/huggingface"
	"creative-automation/internal/openai"
	"creative-automation/internal/provider"
	"creative-automation/internal/region"
	"creative-automation/internal/telemetry"
	"creative-automation/internal/translate"
	"creative-automation/internal/vectorindex"
)

const serviceName = "creative-automation"

var ErrSearchDisabled = errors.New("similar-campaign search is disabled, set GEMINI_API_KEY")

type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Resolver  *region.Resolver
	Assets    *assetstore.Store
	Analytics *analytics.Store
	// Vectors is nil when no embedding key is configured.
	Vectors *vectorindex.Index

	orchestrator *campaign.Orchestrator
	dispatcher   *dispatch.Dispatcher
	shutdown     func(context.Context) error
}

func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(cfg.LogLevel, nil)
	}
	for _, w := range cfg.Warnings {
		logger.Warn("config", "warning", w)
	}

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, shutdown: shutdown}
	if err := a.build(ctx); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		Traced:     cfg.OTelEndpoint != "",
	})
	clients := &providerSet{cfg: cfg, http: httpClient, logger: logger}

	table := region.DefaultTable()
	if cfg.RegionTableFile != "" {
		t, err := region.LoadOverrides(table, cfg.RegionTableFile)
		if err != nil {
			return fmt.Errorf("load region table: %w", err)
		}
		table = t
	}
	a.Resolver = region.NewResolver(table, region.Options{DefaultLanguage: cfg.DefaultLang, Logger: logger})

	primary, err := clients.image(cfg.PrimaryProvider)
	if err != nil {
		return err
	}
	var fallback provider.ImageProvider
	if cfg.FallbackProvider != "" {
		if fallback, err = clients.image(cfg.FallbackProvider); err != nil {
			return err
		}
	}
	gen, err := generate.New(
		provider.RateLimited(primary, cfg.ProviderRPS),
		provider.RateLimited(fallback, cfg.ProviderRPS),
		generate.Options{Timeout: cfg.ProviderTimeout, Logger: logger},
	)
	if err != nil {
		return err
	}

	localizer := translate.New(clients.translator(cfg.TranslationProvider), translate.Options{
		DefaultLanguage: cfg.DefaultLang,
		Timeout:         cfg.TranslateTimeout,
		Logger:          logger,
	})

	comp, err := compositor.New(compositor.Options{LogoPath: cfg.LogoPath, FontPath: cfg.FontPath, Logger: logger})
	if err != nil {
		return err
	}

	if a.Assets, err = assetstore.New(assetstore.Options{Root: cfg.AssetsDir, Logger: logger}); err != nil {
		return err
	}

	a.orchestrator, err = campaign.New(campaign.Options{
		Resolver:      a.Resolver,
		Localizer:     localizer,
		Generator:     gen,
		Compositor:    comp,
		Store:         a.Assets,
		Gate:          compliance.NewRules(compliance.RulesOptions{}),
		MaxConcurrent: cfg.MaxConcurrent,
		Budget:        cfg.RequestTimeout,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	if a.Analytics, err = analytics.Open(cfg.DBPath); err != nil {
		return err
	}
	sinks := []dispatch.Sink{dispatch.SinkFunc{
		SinkName: "analytics",
		Fn: func(ctx context.Context, c *campaign.Campaign) error {
			return a.Analytics.Record(ctx, analytics.FromCampaign(c))
		},
	}}

	if cfg.GeminiAPIKey != "" {
		embedder, err := vectorindex.NewGenAIEmbedder(ctx, vectorindex.GenAIOptions{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.EmbeddingModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			return err
		}
		if a.Vectors, err = vectorindex.Open(cfg.VectorDBPath, embedder, vectorindex.Options{Logger: logger}); err != nil {
			return err
		}
		sinks = append(sinks, dispatch.SinkFunc{
			SinkName: "vectorindex",
			Fn: func(ctx context.Context, c *campaign.Campaign) error {
				return a.Vectors.Index(ctx, vectorindex.EntryFromCampaign(c))
			},
		})
	} else {
		logger.Info("vector index disabled, GEMINI_API_KEY not set")
	}

	a.dispatcher = dispatch.New(sinks, dispatch.Options{QueueSize: cfg.DispatchQueue, Logger: logger})
	return nil
}

// Generate runs one campaign, writes its manifest and hands it to the
// side-effect sinks. Manifest and sink failures are logged only.
func (a *App) Generate(ctx context.Context, brief campaign.Brief) (*campaign.Campaign, error) {
	c, err := a.orchestrator.Run(ctx, brief)
	if err != nil {
		return nil, err
	}
	if _, err := a.Assets.WriteManifest(c.ID, c.CreatedAt, NewManifest(c)); err != nil {
		a.Logger.Warn("write manifest failed", "campaign_id", c.ID, "err", err)
	}
	a.dispatcher.Submit(c)
	return c, nil
}

func (a *App) Recent(ctx context.Context, limit int) ([]analytics.Record, error) {
	return a.Analytics.Recent(ctx, limit)
}

func (a *App) Similar(ctx context.Context, query string, k int) ([]vectorindex.Match, error) {
	if a.Vectors == nil {
		return nil, ErrSearchDisabled
	}
	return a.Vectors.Search(ctx, query, k)
}

// Backfill indexes up to limit analytics records into the vector index and
// returns how many were indexed.
func (a *App) Backfill(ctx context.Context, limit int) (int, error) {
	if a.Vectors == nil {
		return 0, ErrSearchDisabled
	}
	records, err := a.Analytics.Recent(ctx, limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := a.Vectors.Index(ctx, EntryFromRecord(r)); err != nil {
			a.Logger.Warn("backfill entry failed", "campaign_id", r.CampaignID, "err", err)
			continue
		}
		n++
	}
	return n, nil
}

// Close drains pending side effects, then releases stores and flushes spans.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.dispatcher != nil {
		errs = append(errs, a.dispatcher.Close(ctx))
	}
	if a.Vectors != nil {
		errs = append(errs, a.Vectors.Close())
	}
	if a.Analytics != nil {
		errs = append(errs, a.Analytics.Close())
	}
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(ctx))
	}
	return errors.Join(errs...)
}

// EntryFromRecord rebuilds the vector index document for a stored campaign.
func EntryFromRecord(r analytics.Record) vectorindex.Entry {
	products, _ := json.Marshal(r.Products)
	return vectorindex.Entry{
		CampaignID: r.CampaignID,
		Text:       r.Message,
		Metadata: map[string]string{
			"products":          string(products),
			"region":            r.Region,
			"audience":          r.Audience,
			"language":          r.Language,
			"localized_message": r.LocalizedMessage,
		},
	}
}

type Manifest struct {
	CampaignID string                 `json:"campaign_id"`
	CreatedAt  time.Time              `json:"created_at"`
	Brief      campaign.Brief         `json:"brief"`
	Language   string                 `json:"language"`
	Localized  string                 `json:"localized_message"`
	Fallback   bool                   `json:"translation_fallback"`
	Summary    string                 `json:"summary"`
	Outputs    map[string]string      `json:"outputs"`
	Assets     []campaign.AssetResult `json:"assets"`
	Compliance compliance.Result      `json:"compliance"`
}

func NewManifest(c *campaign.Campaign) Manifest {
	return Manifest{
		CampaignID: c.ID,
		CreatedAt:  c.CreatedAt,
		Brief:      c.Brief,
		Language:   c.Language,
		Localized:  c.LocalizedMessage,
		Fallback:   c.TranslationFallback,
		Summary:    c.Summary(),
		Outputs:    c.Outputs(),
		Assets:     c.Assets,
		Compliance: c.Compliance,
	}
}

// providerSet builds each provider client at most once so a provider used as
// both image generator and translator shares one client.
type providerSet struct {
	cfg    config.Config
	http   *http.Client
	logger *slog.Logger

	hf  *huggingface.Client
	oai *openai.Client
	gem *gemini.Client
}

func (p *providerSet) openai() *openai.Client {
	if p.oai == nil {
		p.oai = openai.New(openai.Options{
			APIKey:     p.cfg.OpenAIAPIKey,
			BaseURL:    p.cfg.OpenAIBaseURL,
			ImageModel: p.cfg.OpenAIImageModel,
			ChatModel:  p.cfg.OpenAIChatModel,
			HTTPClient: p.http,
			Logger:     p.logger,
		})
	}
	return p.oai
}

func (p *providerSet) gemini() *gemini.Client {
	if p.gem == nil {
		p.gem = gemini.New(gemini.Options{
			APIKey:     p.cfg.GeminiAPIKey,
			BaseURL:    p.cfg.GeminiBaseURL,
			APIVersion: p.cfg.GeminiAPIVersion,
			HTTPClient: p.http,
			Logger:     p.logger,
		})
	}
	return p.gem
}

func (p *providerSet) image(name string) (provider.ImageProvider, error) {
	switch name {
	case config.ProviderHuggingFace:
		if p.hf == nil {
			p.hf = huggingface.New(huggingface.Options{
				Token:      p.cfg.HFToken,
				BaseURL:    p.cfg.HFBaseURL,
				Model:      p.cfg.HFModel,
				HTTPClient: p.http,
				Logger:     p.logger,
			})
		}
		return p.hf, nil
	case config.ProviderOpenAI:
		return p.openai(), nil
	case config.ProviderGemini:
		return p.gemini(), nil
	}
	return nil, fmt.Errorf("unknown image provider %q", name)
}

func (p *providerSet) translator(name string) provider.Translator {
	switch name {
	case config.ProviderOpenAI:
		return p.openai()
	case config.ProviderGemini:
		return p.gemini()
	}
	return nil
}

// ReadAsset returns the bytes of a stored asset addressed by its path
// relative to the assets root.
func (a *App) ReadAsset(rel string) ([]byte, error) {
	abs, err := a.Assets.Abs(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}
