package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"creative-automation/internal/analytics"
	"creative-automation/internal/assetstore"
	"creative-automation/internal/campaign"
	"creative-automation/internal/compliance"
	"creative-automation/internal/config"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		LogLevel:         "error",
		PrimaryProvider:  config.ProviderHuggingFace,
		HFToken:          "hf-test",
		HFModel:          "test/sdxl",
		AssetsDir:        filepath.Join(dir, "assets"),
		DBPath:           filepath.Join(dir, "db", "campaigns.db"),
		VectorDBPath:     filepath.Join(dir, "db", "vectors.db"),
		MaxConcurrent:    2,
		DispatchQueue:    4,
		HTTPTimeout:      10 * time.Second,
		RequestTimeout:   30 * time.Second,
		ProviderTimeout:  5 * time.Second,
		TranslateTimeout: time.Second,
		DefaultLang:      language.English,
	}
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, NewLogger("error", io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestGenerateProducesAssetsManifestAndRecord(t *testing.T) {
	img := pngBytes(t)
	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test/sdxl", r.URL.Path)
		w.Header().Set("content-type", "image/png")
		_, _ = w.Write(img)
	}))
	defer hf.Close()

	cfg := testConfig(t)
	cfg.HFBaseURL = hf.URL
	a := newTestApp(t, cfg)

	c, err := a.Generate(context.Background(), campaign.Brief{
		Products: []string{"Work Boots"},
		Region:   "Germany",
		Audience: "Construction workers",
		Message:  "Built for the job site",
	})
	require.NoError(t, err)
	require.Len(t, c.Assets, 3)
	assert.Equal(t, "de", c.Language)
	assert.True(t, c.TranslationFallback)
	assert.Equal(t, "Built for the job site", c.LocalizedMessage)
	assert.Equal(t, compliance.StatusApproved, c.Compliance.Status)
	for _, asset := range c.Assets {
		assert.Equal(t, campaign.StatusProduced, asset.Status)
		assert.True(t, a.Assets.Exists(asset.Path), asset.Path)
	}

	raw, err := os.ReadFile(filepath.Join(a.Assets.Root(), assetstore.CampaignDir(c.ID, c.CreatedAt), assetstore.ManifestName))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, c.ID, m.CampaignID)
	assert.Equal(t, "3 of 3 produced", m.Summary)
	assert.Len(t, m.Outputs, 3)

	require.NoError(t, a.dispatcher.Close(context.Background()))
	rec, err := a.Analytics.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Produced)
	assert.Equal(t, []string{"Work Boots"}, rec.Products)
}

func TestGenerateUsesFallbackProvider(t *testing.T) {
	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer hf.Close()

	b64 := base64.StdEncoding.EncodeToString(pngBytes(t))
	oai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []any{map[string]any{"b64_json": b64}},
		})
	}))
	defer oai.Close()

	cfg := testConfig(t)
	cfg.HFBaseURL = hf.URL
	cfg.FallbackProvider = config.ProviderOpenAI
	cfg.OpenAIAPIKey = "sk-test"
	cfg.OpenAIBaseURL = oai.URL + "/"
	a := newTestApp(t, cfg)

	c, err := a.Generate(context.Background(), campaign.Brief{
		Products: []string{"Safety Helmet"},
		Region:   "United States",
		Message:  "Protection you can trust",
	})
	require.NoError(t, err)
	for _, asset := range c.Assets {
		require.Equal(t, campaign.StatusProduced, asset.Status, asset.Error)
		require.Len(t, asset.Attempts, 2)
		assert.Equal(t, "huggingface", asset.Attempts[0].Provider)
		assert.False(t, asset.Attempts[0].OK)
		assert.Equal(t, "openai", asset.Attempts[1].Provider)
		assert.True(t, asset.Attempts[1].OK)
	}
}

func TestSearchDisabledWithoutKey(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	assert.Nil(t, a.Vectors)

	_, err := a.Similar(context.Background(), "boots", 3)
	assert.ErrorIs(t, err, ErrSearchDisabled)
	_, err = a.Backfill(context.Background(), 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestNewFailsOnBadRegionFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.RegionTableFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, NewLogger("error", io.Discard))
	assert.Error(t, err)
}

func TestEntryFromRecord(t *testing.T) {
	e := EntryFromRecord(analytics.Record{
		CampaignID:       "c-1",
		Products:         []string{"Boots", "Helmet"},
		Region:           "Japan",
		Audience:         "Hikers",
		Language:         "ja",
		Message:          "Go further",
		LocalizedMessage: "もっと遠くへ",
	})
	assert.Equal(t, "c-1", e.CampaignID)
	assert.Equal(t, "Go further", e.Text)
	assert.Equal(t, `["Boots","Helmet"]`, e.Metadata["products"])
	assert.Equal(t, "Japan", e.Metadata["region"])
	assert.Equal(t, "もっと遠くへ", e.Metadata["localized_message"])
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("warn", &buf)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestGenerateKeepsFinishedAssetsWhenBudgetRunsOut(t *testing.T) {
	img := pngBytes(t)
	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if strings.Contains(body.Inputs, "slow gadget") {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		w.Header().Set("content-type", "image/png")
		_, _ = w.Write(img)
	}))
	defer hf.Close()

	cfg := testConfig(t)
	cfg.HFBaseURL = hf.URL
	cfg.MaxConcurrent = 1
	cfg.ProviderTimeout = time.Second
	cfg.RequestTimeout = 1500 * time.Millisecond
	a := newTestApp(t, cfg)

	c, err := a.Generate(context.Background(), campaign.Brief{
		Products: []string{"fast boots", "slow gadget"},
		Region:   "Germany",
		Message:  "Built for the job site",
	})
	require.NoError(t, err)
	require.Len(t, c.Assets, 6)
	assert.Equal(t, "3 of 6 produced", c.Summary())

	for _, asset := range c.Assets {
		if asset.Product == "fast boots" {
			assert.Equal(t, campaign.StatusProduced, asset.Status)
			assert.True(t, a.Assets.Exists(asset.Path), asset.Path)
			continue
		}
		assert.Equal(t, campaign.StatusFailed, asset.Status)
		assert.NotEmpty(t, asset.Attempts)
	}
	assert.Contains(t, c.Assets[5].Error, campaign.ErrBudgetExceeded.Error())

	_, err = os.Stat(filepath.Join(a.Assets.Root(), assetstore.CampaignDir(c.ID, c.CreatedAt), assetstore.ManifestName))
	assert.NoError(t, err)
}

func TestMasterManifestKeepsUnreadableCampaigns(t *testing.T) {
	img := pngBytes(t)
	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "image/png")
		_, _ = w.Write(img)
	}))
	defer hf.Close()

	cfg := testConfig(t)
	cfg.HFBaseURL = hf.URL
	a := newTestApp(t, cfg)

	c, err := a.Generate(context.Background(), campaign.Brief{
		Products: []string{"Work Boots", "Safety Helmet"},
		Region:   "Germany",
		Audience: "Construction workers",
		Message:  "Built for the job site",
	})
	require.NoError(t, err)

	broken := filepath.Join(a.Assets.Root(), "campaign_20000101_000000_broken", assetstore.ManifestName)
	require.NoError(t, os.MkdirAll(filepath.Dir(broken), 0o755))
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o644))

	rel, m, err := a.WriteMasterManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, assetstore.MasterManifestName, rel)
	assert.True(t, a.Assets.Exists(rel))

	assert.Equal(t, 2, m.TotalCampaigns)
	assert.Equal(t, 2, m.TotalProducts)
	assert.Equal(t, 6, m.TotalAssets)
	assert.Equal(t, 6, m.ProducedAssets)
	assert.Equal(t, []string{"Germany"}, m.UniqueRegions)
	assert.Equal(t, []string{"Construction workers"}, m.UniqueAudiences)

	require.Len(t, m.Campaigns, 2)
	require.NotNil(t, m.Campaigns[0].Manifest)
	assert.Equal(t, c.ID, m.Campaigns[0].Manifest.CampaignID)
	assert.Nil(t, m.Campaigns[1].Manifest)
	assert.NotEmpty(t, m.Campaigns[1].Error)
}
