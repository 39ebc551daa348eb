package campaign

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/text/language"

	"creative-automation/internal/assetstore"
	"creative-automation/internal/compliance"
	"creative-automation/internal/generate"
	"creative-automation/internal/provider"
	"creative-automation/internal/region"
	"creative-automation/internal/variant"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLocalizer struct {
	mu    sync.Mutex
	calls []language.Tag
}

func (f *fakeLocalizer) Localize(_ context.Context, message string, lang language.Tag, _ string) (string, bool) {
	f.mu.Lock()
	f.calls = append(f.calls, lang)
	f.mu.Unlock()
	if lang == language.German {
		return "Professionelle Sicherheitsausrüstung", false
	}
	return message, false
}

type fakeGenerator struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	fail     func(req generate.Request) bool
	block    bool
	blockIf  func(req generate.Request) bool
}

func (f *fakeGenerator) Generate(ctx context.Context, req generate.Request) ([]byte, []generate.Attempt, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	if f.block || (f.blockIf != nil && f.blockIf(req)) {
		<-ctx.Done()
		return nil, []generate.Attempt{{Provider: "primary", Err: ctx.Err().Error()}}, ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail != nil && f.fail(req) {
		return nil, []generate.Attempt{
			{Provider: "primary", Err: "quota"},
			{Provider: "fallback", Err: "auth"},
		}, fmt.Errorf("%w: both down", generate.ErrAllProvidersFailed)
	}
	return []byte("raw:" + req.Product + ":" + req.Variant.Ratio()), []generate.Attempt{{Provider: "primary", OK: true}}, nil
}

type fakeCompositor struct {
	fail func(v variant.Variant, raw []byte) bool
}

func (f *fakeCompositor) Composite(raw []byte, v variant.Variant, message, label string) ([]byte, error) {
	if f.fail != nil && f.fail(v, raw) {
		return nil, errors.New("composite failed: bad image")
	}
	return []byte(fmt.Sprintf("%s|%s|%s", raw, message, label)), nil
}

type failingStore struct {
	inner *assetstore.Store
	fail  func(key assetstore.Key) bool
}

func (s failingStore) Store(ctx context.Context, key assetstore.Key, data []byte) (string, error) {
	if s.fail(key) {
		return "", fmt.Errorf("%w: disk full", assetstore.ErrStorage)
	}
	return s.inner.Store(ctx, key, data)
}

type recordingGate struct {
	mu     sync.Mutex
	calls  int
	assets []compliance.Asset
	text   string
	err    error
}

func (g *recordingGate) Validate(_ context.Context, assets []compliance.Asset, text string) (compliance.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.assets = assets
	g.text = text
	if g.err != nil {
		return compliance.Result{}, g.err
	}
	return compliance.Result{Status: compliance.StatusApproved, Issues: []string{}}, nil
}

type harness struct {
	store *assetstore.Store
	loc   *fakeLocalizer
	gen   *fakeGenerator
	comp  *fakeCompositor
	gate  *recordingGate
	opts  Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := assetstore.New(assetstore.Options{Root: t.TempDir()})
	require.NoError(t, err)
	h := &harness{
		store: store,
		loc:   &fakeLocalizer{},
		gen:   &fakeGenerator{},
		comp:  &fakeCompositor{},
		gate:  &recordingGate{},
	}
	h.opts = Options{
		Resolver:      region.NewResolver(region.DefaultTable(), region.Options{}),
		Localizer:     h.loc,
		Generator:     h.gen,
		Compositor:    h.comp,
		Store:         store,
		Gate:          h.gate,
		MaxConcurrent: 4,
		Now:           func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) },
	}
	return h
}

func (h *harness) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := New(h.opts)
	require.NoError(t, err)
	return o
}

func (h *harness) assertStorageMatchesStatus(t *testing.T, c *Campaign) {
	t.Helper()
	for _, a := range c.Assets {
		if a.Status == StatusProduced {
			assert.NotEmpty(t, a.Path)
			assert.True(t, h.store.Exists(a.Path), a.Path)
		} else {
			assert.Empty(t, a.Path)
			assert.NotEmpty(t, a.Error)
		}
		assert.NotEmpty(t, a.Attempts)
		assert.LessOrEqual(t, len(a.Attempts), 2)
	}
}

var germanyBrief = Brief{
	Products: []string{"safety helmet", "work boots"},
	Region:   "Germany",
	Audience: "construction workers",
	Message:  "Professional safety equipment",
}

func TestRunGermanyScenario(t *testing.T) {
	h := newHarness(t)
	c, err := h.orchestrator(t).Run(context.Background(), germanyBrief)
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "de", c.Language)
	assert.True(t, c.RegionMatched)
	assert.Equal(t, "Professionelle Sicherheitsausrüstung", c.LocalizedMessage)
	assert.NotEqual(t, germanyBrief.Message, c.LocalizedMessage)
	assert.False(t, c.TranslationFallback)
	require.Equal(t, []language.Tag{language.German}, h.loc.calls)

	require.Len(t, c.Assets, 6)
	want := []struct {
		product string
		v       variant.Variant
	}{
		{"safety helmet", variant.Square}, {"safety helmet", variant.Landscape}, {"safety helmet", variant.Portrait},
		{"work boots", variant.Square}, {"work boots", variant.Landscape}, {"work boots", variant.Portrait},
	}
	for i, w := range want {
		a := c.Assets[i]
		assert.Equal(t, w.product, a.Product)
		assert.Equal(t, w.v, a.Variant)
		assert.Equal(t, StatusProduced, a.Status)
		assert.True(t, a.Composited)
		assert.Len(t, a.Attempts, 1)
	}
	assert.Equal(t, "campaign_20250314_092653_"+c.ID+"/work_boots/16x9/image_16x9.png", c.Assets[4].Path)

	assert.Equal(t, 1, h.gate.calls)
	assert.Len(t, h.gate.assets, 6)
	assert.Equal(t, c.LocalizedMessage, h.gate.text)
	assert.Equal(t, compliance.StatusApproved, c.Compliance.Status)
	assert.Equal(t, "6 of 6 produced", c.Summary())
	assert.Len(t, c.Outputs(), 3)
	h.assertStorageMatchesStatus(t, c)
}

func TestRunCompositesLocalizedMessageAndLabel(t *testing.T) {
	h := newHarness(t)
	c, err := h.orchestrator(t).Run(context.Background(), Brief{Products: []string{"helmet"}, Region: "Germany", Message: "Safety first"})
	require.NoError(t, err)

	abs, err := h.store.Abs(c.Assets[0].Path)
	require.NoError(t, err)
	raw, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, "raw:helmet:1:1|Professionelle Sicherheitsausrüstung|Made in Germany", string(raw))
}

func TestRunPartialProviderFailure(t *testing.T) {
	h := newHarness(t)
	h.gen.fail = func(req generate.Request) bool {
		return req.Product == "work boots" && req.Variant == variant.Landscape
	}
	c, err := h.orchestrator(t).Run(context.Background(), germanyBrief)
	require.NoError(t, err)

	require.Len(t, c.Assets, 6)
	failed := c.Assets[4]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Len(t, failed.Attempts, 2)
	assert.False(t, failed.Composited)
	assert.Contains(t, failed.Error, "all image providers failed")
	assert.Equal(t, "5 of 6 produced", c.Summary())
	assert.Len(t, h.gate.assets, 5)
	h.assertStorageMatchesStatus(t, c)
}

func TestRunCompositeFailureKeepsAttempts(t *testing.T) {
	h := newHarness(t)
	h.comp.fail = func(v variant.Variant, _ []byte) bool { return v == variant.Portrait }
	c, err := h.orchestrator(t).Run(context.Background(), germanyBrief)
	require.NoError(t, err)

	for _, a := range c.Assets {
		if a.Variant == variant.Portrait {
			assert.Equal(t, StatusFailed, a.Status)
			assert.False(t, a.Composited)
			assert.Len(t, a.Attempts, 1)
			assert.True(t, a.Attempts[0].OK)
		} else {
			assert.Equal(t, StatusProduced, a.Status)
		}
	}
	h.assertStorageMatchesStatus(t, c)
}

func TestRunStorageFailureNeverMarksProduced(t *testing.T) {
	h := newHarness(t)
	h.opts.Store = failingStore{inner: h.store, fail: func(k assetstore.Key) bool {
		return k.Product == "safety_helmet" && k.Variant == variant.Square
	}}
	c, err := h.orchestrator(t).Run(context.Background(), germanyBrief)
	require.NoError(t, err)

	a := c.Assets[0]
	assert.Equal(t, StatusFailed, a.Status)
	assert.True(t, a.Composited)
	assert.Empty(t, a.Path)
	assert.Contains(t, a.Error, "disk full")
	assert.False(t, h.store.Exists(assetstore.Path(assetstore.Key{
		CampaignID: c.ID, CreatedAt: c.CreatedAt, Product: "safety_helmet", Variant: variant.Square,
	})))
	h.assertStorageMatchesStatus(t, c)
}

func TestRunAllFailuresStillReturnsCampaign(t *testing.T) {
	h := newHarness(t)
	h.gen.fail = func(generate.Request) bool { return true }
	c, err := h.orchestrator(t).Run(context.Background(), germanyBrief)
	require.NoError(t, err)

	assert.Len(t, c.Assets, 6)
	assert.Empty(t, c.Produced())
	assert.Equal(t, 1, h.gate.calls)
	assert.Empty(t, h.gate.assets)
}

func TestRunComplianceUnavailable(t *testing.T) {
	h := newHarness(t)
	h.gate.err = errors.New("gate offline")
	c, err := h.orchestrator(t).Run(context.Background(), germanyBrief)
	require.NoError(t, err)

	assert.Equal(t, compliance.StatusUnknown, c.Compliance.Status)
	require.Len(t, c.Compliance.Issues, 1)
	assert.Contains(t, c.Compliance.Issues[0], "gate offline")
}

func TestRunInvalidBrief(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t)
	for _, b := range []Brief{
		{},
		{Products: []string{}},
		{Products: []string{"helmet", "   "}},
	} {
		_, err := o.Run(context.Background(), b)
		assert.ErrorIs(t, err, ErrInvalidBrief)
	}
	assert.Zero(t, h.gen.calls.Load())
	assert.Zero(t, h.gate.calls)
}

func TestRunIDFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.opts.NewID = func() (string, error) { return "", errors.New("entropy exhausted") }
	_, err := h.orchestrator(t).Run(context.Background(), germanyBrief)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
	assert.Zero(t, h.gen.calls.Load())
}

func TestRunUniqueIDs(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(t)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		c, err := o.Run(context.Background(), Brief{Products: []string{"mug"}, Region: "Japan", Message: "Good morning"})
		require.NoError(t, err)
		assert.False(t, seen[c.ID], c.ID)
		seen[c.ID] = true
	}
}

func TestRunUnmatchedRegionUsesDefaultLanguage(t *testing.T) {
	h := newHarness(t)
	c, err := h.orchestrator(t).Run(context.Background(), Brief{Products: []string{"mug"}, Region: "Atlantis", Message: "Good morning"})
	require.NoError(t, err)

	assert.Equal(t, "en", c.Language)
	assert.False(t, c.RegionMatched)
	assert.Equal(t, "Good morning", c.LocalizedMessage)
	assert.Equal(t, []language.Tag{language.English}, h.loc.calls)
}

func TestRunDuplicateProductsGetDistinctPaths(t *testing.T) {
	h := newHarness(t)
	c, err := h.orchestrator(t).Run(context.Background(), Brief{Products: []string{"Safety Helmet", "safety-helmet"}, Message: "Stay safe on site"})
	require.NoError(t, err)

	paths := map[string]bool{}
	for _, a := range c.Assets {
		require.Equal(t, StatusProduced, a.Status)
		assert.False(t, paths[a.Path], a.Path)
		paths[a.Path] = true
	}
	assert.Len(t, paths, 6)
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	h := newHarness(t)
	h.gen.delay = 20 * time.Millisecond
	h.opts.MaxConcurrent = 2

	var observed atomic.Int32
	ctx := WithProgress(context.Background(), func(AssetResult) { observed.Add(1) })

	c, err := h.orchestrator(t).Run(ctx, Brief{Products: []string{"a", "b", "c"}, Message: "Hello there friends"})
	require.NoError(t, err)

	assert.Len(t, c.Assets, 9)
	assert.Equal(t, int32(9), h.gen.calls.Load())
	assert.Equal(t, int32(9), observed.Load())
	assert.LessOrEqual(t, h.gen.maxSeen.Load(), int32(2))
	assert.Greater(t, h.gen.maxSeen.Load(), int32(0))
}

func TestRunBudgetKeepsFinishedAssets(t *testing.T) {
	h := newHarness(t)
	h.gen.blockIf = func(req generate.Request) bool { return req.Product == "work boots" }
	h.opts.MaxConcurrent = 1
	h.opts.Budget = 100 * time.Millisecond

	c, err := h.orchestrator(t).Run(context.Background(), germanyBrief)
	require.NoError(t, err)
	require.Len(t, c.Assets, 6)
	assert.Equal(t, "3 of 6 produced", c.Summary())
	h.assertStorageMatchesStatus(t, c)

	for _, a := range c.Assets {
		if a.Product == "safety helmet" {
			assert.Equal(t, StatusProduced, a.Status)
			continue
		}
		assert.Equal(t, StatusFailed, a.Status)
		assert.Contains(t, a.Error, ErrBudgetExceeded.Error())
	}
	last := c.Assets[5]
	require.Len(t, last.Attempts, 1)
	assert.Equal(t, provider.KindTimeout, last.Attempts[0].Kind)

	assert.Equal(t, 1, h.gate.calls)
	assert.Len(t, h.gate.assets, 3)
}

func TestRunCancellation(t *testing.T) {
	h := newHarness(t)
	h.gen.block = true
	o := h.orchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(ctx, germanyBrief)
		done <- err
	}()

	require.Eventually(t, func() bool { return h.gen.calls.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Zero(t, h.gate.calls)
}

func TestRunAssetCountProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 10; round++ {
		h := newHarness(t)
		n := 1 + rng.Intn(5)
		products := make([]string, n)
		for i := range products {
			products[i] = fmt.Sprintf("product %d", rng.Intn(3))
		}
		failing := map[string]bool{}
		for _, p := range products {
			for _, v := range variant.All() {
				if rng.Intn(3) == 0 {
					failing[p+v.Ratio()] = true
				}
			}
		}
		h.gen.fail = func(req generate.Request) bool { return failing[req.Product+req.Variant.Ratio()] }

		c, err := h.orchestrator(t).Run(context.Background(), Brief{Products: products, Region: "France", Message: "Bonjour tout le monde"})
		require.NoError(t, err)
		assert.Len(t, c.Assets, 3*n)
		h.assertStorageMatchesStatus(t, c)
		assert.Equal(t, 1, h.gate.calls)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	h := newHarness(t)
	opts := h.opts
	opts.Gate = nil
	_, err := New(opts)
	assert.Error(t, err)

	opts = h.opts
	opts.Resolver = nil
	_, err = New(opts)
	assert.Error(t, err)
}

func TestBriefValidateTrims(t *testing.T) {
	b, err := Brief{Products: []string{"  helmet "}, Region: " Germany ", Message: " hi "}.Validate()
	require.NoError(t, err)
	assert.Equal(t, []string{"helmet"}, b.Products)
	assert.Equal(t, "Germany", b.Region)
	assert.Equal(t, "hi", b.Message)
}
